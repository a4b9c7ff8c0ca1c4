package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL.
// The uq_ledger_unit_period unique index on (unit_id, period) is the source
// of truth for the one-record-per-period invariant.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create inserts a ledger record. A unique violation on (unit_id, period)
// maps to ErrDuplicateRecord so the period generator can treat a concurrent
// insert as a successful no-op.
func (r *LedgerRepository) Create(ctx context.Context, record *ledger.Record) error {
	query := `
		INSERT INTO ledger_records (id, unit_id, community_id, period, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		record.ID,
		record.UnitID,
		record.CommunityID,
		record.Period,
		record.Amount,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrDuplicateRecord{UnitID: record.UnitID, Period: record.Period}
		}
		r.logger.Error("Failed to create ledger record",
			"unit_id", record.UnitID.String(),
			"period", record.Period.Format("2006-01"),
			"error", err,
		)
		return fmt.Errorf("failed to create ledger record: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger record by its ID
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Record, error) {
	query := `
		SELECT id, unit_id, community_id, period, amount, status, created_at, updated_at
		FROM ledger_records
		WHERE id = $1
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrRecordNotFound{RecordID: id}
		}
		r.logger.Error("Failed to get ledger record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}

	return record, nil
}

// GetByUnitAndPeriod retrieves the record for one unit and billing month
func (r *LedgerRepository) GetByUnitAndPeriod(ctx context.Context, unitID uuid.UUID, period time.Time) (*ledger.Record, error) {
	query := `
		SELECT id, unit_id, community_id, period, amount, status, created_at, updated_at
		FROM ledger_records
		WHERE unit_id = $1 AND period = $2
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, unitID, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrRecordNotFound{}
		}
		r.logger.Error("Failed to get ledger record by unit and period",
			"unit_id", unitID.String(),
			"period", period.Format("2006-01"),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get ledger record by unit and period: %w", err)
	}

	return record, nil
}

// ListByUnitID retrieves a unit's records, newest period first
func (r *LedgerRepository) ListByUnitID(ctx context.Context, unitID uuid.UUID, limit, offset int) ([]*ledger.Record, error) {
	query := `
		SELECT id, unit_id, community_id, period, amount, status, created_at, updated_at
		FROM ledger_records
		WHERE unit_id = $1
		ORDER BY period DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, unitID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger records", "unit_id", unitID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	defer rows.Close()

	var records []*ledger.Record
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger records: %w", err)
	}

	return records, nil
}

// UpdateStatus transitions a record's payment status, preconditioned on the
// current status so two admins cannot both verify the same payment.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to shared.RecordStatus) error {
	query := `
		UPDATE ledger_records
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to update ledger record status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update ledger record status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ledger.ErrInvalidStatusChange{RecordID: id, From: from, To: to}
	}

	return nil
}

// TotalsForPeriod sums collected and pending amounts for one community month.
// A period with no records rolls up to zeros.
func (r *LedgerRepository) TotalsForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = $3), 0),
			COALESCE(SUM(amount) FILTER (WHERE status <> $3), 0)
		FROM ledger_records
		WHERE community_id = $1 AND period = $2
	`

	var collected, pendingDues int64
	err := r.querier.QueryRow(ctx, query, communityID, period, shared.RecordStatusPaid).Scan(&collected, &pendingDues)
	if err != nil {
		r.logger.Error("Failed to aggregate ledger period",
			"community_id", communityID.String(),
			"period", period.Format("2006-01"),
			"error", err,
		)
		return 0, 0, fmt.Errorf("failed to aggregate ledger period: %w", err)
	}

	return collected, pendingDues, nil
}

// CollectedBefore sums all PAID amounts for periods strictly before the given one
func (r *LedgerRepository) CollectedBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_records
		WHERE community_id = $1 AND period < $2 AND status = $3
	`

	var collected int64
	err := r.querier.QueryRow(ctx, query, communityID, period, shared.RecordStatusPaid).Scan(&collected)
	if err != nil {
		r.logger.Error("Failed to sum collected before period",
			"community_id", communityID.String(),
			"period", period.Format("2006-01"),
			"error", err,
		)
		return 0, fmt.Errorf("failed to sum collected before period: %w", err)
	}

	return collected, nil
}

// TotalsForAllCommunities returns per-community rollups for one period
func (r *LedgerRepository) TotalsForAllCommunities(ctx context.Context, period time.Time) ([]*ledger.MonthTotals, error) {
	query := `
		SELECT
			community_id,
			COALESCE(SUM(amount) FILTER (WHERE status = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE status <> $2), 0)
		FROM ledger_records
		WHERE period = $1
		GROUP BY community_id
		ORDER BY community_id
	`

	rows, err := r.querier.Query(ctx, query, period, shared.RecordStatusPaid)
	if err != nil {
		r.logger.Error("Failed to aggregate all communities", "period", period.Format("2006-01"), "error", err)
		return nil, fmt.Errorf("failed to aggregate all communities: %w", err)
	}
	defer rows.Close()

	var totals []*ledger.MonthTotals
	for rows.Next() {
		t := &ledger.MonthTotals{Period: period}
		if err := rows.Scan(&t.CommunityID, &t.Collected, &t.PendingDues); err != nil {
			return nil, fmt.Errorf("failed to scan community totals: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over community totals: %w", err)
	}

	return totals, nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LedgerRepository) scanRecord(row rowScanner) (*ledger.Record, error) {
	var record ledger.Record
	err := row.Scan(
		&record.ID,
		&record.UnitID,
		&record.CommunityID,
		&record.Period,
		&record.Amount,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
