package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// ExpenseServiceImpl implements the ExpenseService interface
type ExpenseServiceImpl struct {
	expenseRepo   expense.Repository
	communityRepo community.Repository
	recorder      auditRecorder
	logger        *slog.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(logger *slog.Logger, expenseRepo expense.Repository, communityRepo community.Repository, outboxRepo outbox.Repository) ExpenseService {
	return &ExpenseServiceImpl{
		expenseRepo:   expenseRepo,
		communityRepo: communityRepo,
		recorder:      auditRecorder{outboxRepo: outboxRepo, logger: logger},
		logger:        logger,
	}
}

// RecordExpense books an expense against the month containing incurredAt
func (s *ExpenseServiceImpl) RecordExpense(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64, description string, incurredAt time.Time) (*expense.Expense, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}

	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}

	e, err := expense.NewExpense(communityID, incurredAt, amount, description, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.recorder.record(ctx, audit.NewEntry(
		"expense", e.ID.String(), audit.ActionCreate, actor.ID, nil, map[string]any{
			"community_id": e.CommunityID.String(),
			"period":       e.Period.Format("2006-01"),
			"amount":       e.Amount,
			"description":  e.Description,
		},
	))

	s.logger.Info("Expense recorded",
		"expense_id", e.ID.String(),
		"community_id", communityID.String(),
		"period", e.Period.Format("2006-01"),
		"amount", amount,
		"actor_id", actor.ID.String(),
	)
	return e, nil
}

// ListExpenses retrieves a community's expenses for one period
func (s *ExpenseServiceImpl) ListExpenses(ctx context.Context, communityID uuid.UUID, period time.Time) ([]*expense.Expense, error) {
	return s.expenseRepo.ListByCommunityAndPeriod(ctx, communityID, period)
}
