package ledger

import (
	"context"
	"time"

	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MonthTotals is a community's rollup for a single period
type MonthTotals struct {
	CommunityID uuid.UUID
	Period      time.Time
	Collected   int64
	PendingDues int64
}

// Repository manages ledger record persistence and periodic rollups
type Repository interface {
	// Create inserts a record, relying on the (unit_id, period) unique
	// constraint. Returns ErrDuplicateRecord when the period already exists.
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByUnitAndPeriod(ctx context.Context, unitID uuid.UUID, period time.Time) (*Record, error)
	ListByUnitID(ctx context.Context, unitID uuid.UUID, limit, offset int) ([]*Record, error)

	// UpdateStatus transitions a record's payment status via compare-and-swap
	// on the current status. Returns ErrInvalidStatusChange if the record is
	// no longer in the expected state.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to shared.RecordStatus) error

	// TotalsForPeriod sums collected (PAID) and pending dues (non-PAID)
	// amounts for a community in the given period.
	TotalsForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (collected int64, pendingDues int64, err error)

	// CollectedBefore sums all PAID amounts for periods strictly before the
	// given one; it seeds the closing balance chain for annual reports.
	CollectedBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error)

	// TotalsForAllCommunities returns per-community rollups for one period
	TotalsForAllCommunities(ctx context.Context, period time.Time) ([]*MonthTotals, error)
}

// ErrRecordNotFound indicates missing ledger record
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "ledger record not found: " + e.RecordID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.RecordID == uuid.Nil {
		return true
	}
	return e.RecordID == t.RecordID
}

// ErrDuplicateRecord indicates a (unit, period) uniqueness violation.
// The period generator treats it as a successful no-op.
type ErrDuplicateRecord struct {
	UnitID uuid.UUID
	Period time.Time
}

func (e ErrDuplicateRecord) Error() string {
	return "ledger record already exists for unit " + e.UnitID.String() + " period " + e.Period.Format("2006-01")
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.UnitID == uuid.Nil {
		return true
	}
	return e.UnitID == t.UnitID && e.Period.Equal(t.Period)
}

// ErrInvalidStatusChange indicates a payment status transition whose
// precondition no longer holds (e.g. concurrent verification).
type ErrInvalidStatusChange struct {
	RecordID uuid.UUID
	From     shared.RecordStatus
	To       shared.RecordStatus
}

func (e ErrInvalidStatusChange) Error() string {
	return "ledger record " + e.RecordID.String() + " is not in status " + string(e.From) + " (wanted transition to " + string(e.To) + ")"
}
