package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/platform/persistence"
	"github.com/google/uuid"
)

// ExpenseRepository implements the expense.Repository interface for PostgreSQL
type ExpenseRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewExpenseRepository creates a new PostgreSQL expense repository
func NewExpenseRepository(logger *slog.Logger, db *persistence.PostgresDB) expense.Repository {
	return &ExpenseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new expense
func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO community_expenses (id, community_id, period, amount, description, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.CommunityID,
		e.Period,
		e.Amount,
		e.Description,
		e.RecordedBy,
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", "community_id", e.CommunityID.String(), "error", err)
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// ListByCommunityAndPeriod retrieves a community's expenses for one period
func (r *ExpenseRepository) ListByCommunityAndPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) ([]*expense.Expense, error) {
	query := `
		SELECT id, community_id, period, amount, description, recorded_by, created_at
		FROM community_expenses
		WHERE community_id = $1 AND period = $2
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, communityID, period)
	if err != nil {
		r.logger.Error("Failed to list expenses", "community_id", communityID.String(), "error", err)
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense
	for rows.Next() {
		var e expense.Expense
		err := rows.Scan(
			&e.ID,
			&e.CommunityID,
			&e.Period,
			&e.Amount,
			&e.Description,
			&e.RecordedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over expenses: %w", err)
	}

	return expenses, nil
}

// SumForPeriod totals a community's expenses for one period
func (r *ExpenseRepository) SumForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM community_expenses
		WHERE community_id = $1 AND period = $2
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, communityID, period).Scan(&total); err != nil {
		r.logger.Error("Failed to sum expenses for period",
			"community_id", communityID.String(),
			"period", period.Format("2006-01"),
			"error", err,
		)
		return 0, fmt.Errorf("failed to sum expenses for period: %w", err)
	}

	return total, nil
}

// SumBefore totals all expenses for periods strictly before the given one
func (r *ExpenseRepository) SumBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM community_expenses
		WHERE community_id = $1 AND period < $2
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, communityID, period).Scan(&total); err != nil {
		r.logger.Error("Failed to sum expenses before period",
			"community_id", communityID.String(),
			"period", period.Format("2006-01"),
			"error", err,
		)
		return 0, fmt.Errorf("failed to sum expenses before period: %w", err)
	}

	return total, nil
}
