package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
)

// TxRunner runs a function within a single database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CommunityService defines the interface for community operations
type CommunityService interface {
	// CreateCommunity registers a community, normalizing the billing mode label.
	// Manager role required.
	CreateCommunity(ctx context.Context, actor shared.Principal, name, modeLabel string, ratePerArea, fixedAmount int64) (*community.Community, error)

	// GetCommunityByID retrieves a community by its ID
	// Returns ErrCommunityNotFound if the community doesn't exist
	GetCommunityByID(ctx context.Context, id uuid.UUID) (*community.Community, error)

	// ListCommunities retrieves a page of communities
	ListCommunities(ctx context.Context, page, perPage int) ([]*community.Community, error)
}

// UnitService defines the interface for unit operations
type UnitService interface {
	// CreateUnit registers a unit in a community. Community admin or manager
	// role required for the target community.
	CreateUnit(ctx context.Context, actor shared.Principal, communityID uuid.UUID, label string, floorArea float64, ownerID uuid.UUID, billingStart *time.Time) (*unit.Unit, error)

	// GetUnitByID retrieves a unit by its ID
	// Returns ErrUnitNotFound if the unit doesn't exist
	GetUnitByID(ctx context.Context, id uuid.UUID) (*unit.Unit, error)

	// ListUnits retrieves a page of a community's units plus the total count
	ListUnits(ctx context.Context, communityID uuid.UUID, page, perPage int) ([]*unit.Unit, int64, error)
}

// BalanceService implements the opening balance dual-control workflow.
// All operations require administration rights over the target community.
type BalanceService interface {
	// SetOpeningBalance sets and locks the balance while it is still unlocked.
	// Returns ErrBalanceLocked once a balance has been locked.
	SetOpeningBalance(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64) (*community.Community, error)

	// RequestRevision files a pending overwrite request for a locked balance.
	// At most one request per community may be pending (ErrRevisionPending).
	RequestRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64, reason string) (*community.RevisionRequest, error)

	// GetPendingRevision returns the community's outstanding request, if any
	GetPendingRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error)

	// ApproveRevision resolves the pending request and overwrites the balance
	// in one transaction. The approver must differ from the requester
	// (ErrSelfApproval); a concurrent resolution loses with ErrRevisionResolved.
	ApproveRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error)

	// RejectRevision resolves the pending request without touching the
	// balance. Same preconditions as ApproveRevision, including the self-check.
	RejectRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error)
}

// LedgerService defines ledger record operations exposed over HTTP
type LedgerService interface {
	// GeneratePeriods backfills the unit's missing billing months up to asOf
	// synchronously and returns the newly created records
	GeneratePeriods(ctx context.Context, actor shared.Principal, unitID uuid.UUID, asOf time.Time) ([]*ledger.Record, error)

	// ListByUnit retrieves a page of a unit's ledger records, newest first
	ListByUnit(ctx context.Context, unitID uuid.UUID, page, perPage int) ([]*ledger.Record, error)

	// SubmitPayment transitions a record PENDING -> SUBMITTED
	SubmitPayment(ctx context.Context, actor shared.Principal, recordID uuid.UUID) (*ledger.Record, error)

	// VerifyPayment transitions a record SUBMITTED -> PAID. Community admin
	// or manager role required.
	VerifyPayment(ctx context.Context, actor shared.Principal, recordID uuid.UUID) (*ledger.Record, error)

	// RequestBackfill enqueues one asynchronous backfill job per unit of the
	// community and returns the number of jobs published
	RequestBackfill(ctx context.Context, actor shared.Principal, communityID uuid.UUID, asOf time.Time, correlationID string) (int, error)
}

// ExpenseService defines expense recording operations
type ExpenseService interface {
	// RecordExpense books an expense against the month containing incurredAt.
	// Community admin or manager role required.
	RecordExpense(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64, description string, incurredAt time.Time) (*expense.Expense, error)

	// ListExpenses retrieves a community's expenses for one period
	ListExpenses(ctx context.Context, communityID uuid.UUID, period time.Time) ([]*expense.Expense, error)
}

// MonthSummary is one community's financial rollup for a single period
type MonthSummary struct {
	CommunityID uuid.UUID
	Period      time.Time
	Collected   int64
	Expenses    int64
	PendingDues int64
	// ClosingBalance is populated only within an annual report chain
	ClosingBalance *int64
}

// YearReport chains twelve monthly summaries with running closing balances
type YearReport struct {
	CommunityID    uuid.UUID
	Year           int
	OpeningBalance int64
	TotalCollected int64
	TotalExpenses  int64
	Months         []MonthSummary
}

// ReportService implements the ledger aggregation and reconciliation reads.
// Aggregations are snapshot reads; a community with no activity in a period
// rolls up to zeros rather than an error.
type ReportService interface {
	AggregateMonth(ctx context.Context, communityID uuid.UUID, year int, month time.Month) (*MonthSummary, error)
	AggregateYear(ctx context.Context, communityID uuid.UUID, year int) (*YearReport, error)
	AggregateAllCommunities(ctx context.Context, year int, month time.Month) ([]*MonthSummary, error)
}

// AuditService exposes the stored audit history for an entity
type AuditService interface {
	History(ctx context.Context, entityKind, entityID string, page, perPage int) ([]*audit.Entry, int64, error)
}
