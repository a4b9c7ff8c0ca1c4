package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/domain/ledger"
)

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	communityRepo community.Repository
	ledgerRepo    ledger.Repository
	expenseRepo   expense.Repository
	logger        *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(logger *slog.Logger, communityRepo community.Repository, ledgerRepo ledger.Repository, expenseRepo expense.Repository) ReportService {
	return &ReportServiceImpl{
		communityRepo: communityRepo,
		ledgerRepo:    ledgerRepo,
		expenseRepo:   expenseRepo,
		logger:        logger,
	}
}

// AggregateMonth rolls up one community's collected, expense and pending dues
// totals for a single period. No activity rolls up to zeros.
func (s *ReportServiceImpl) AggregateMonth(ctx context.Context, communityID uuid.UUID, year int, month time.Month) (*MonthSummary, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}

	period := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	collected, pendingDues, err := s.ledgerRepo.TotalsForPeriod(ctx, communityID, period)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.SumForPeriod(ctx, communityID, period)
	if err != nil {
		return nil, err
	}

	return &MonthSummary{
		CommunityID: communityID,
		Period:      period,
		Collected:   collected,
		Expenses:    expenses,
		PendingDues: pendingDues,
	}, nil
}

// AggregateYear produces twelve monthly summaries with chained closing
// balances: closing(p) = closing(p-1) + collected(p) - expenses(p), seeded
// from the locked opening balance plus all activity before January of the
// requested year.
func (s *ReportServiceImpl) AggregateYear(ctx context.Context, communityID uuid.UUID, year int) (*YearReport, error) {
	c, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	var opening int64
	if c.OpeningBalance != nil {
		opening = *c.OpeningBalance
	}

	january := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	collectedBefore, err := s.ledgerRepo.CollectedBefore(ctx, communityID, january)
	if err != nil {
		return nil, err
	}
	expensesBefore, err := s.expenseRepo.SumBefore(ctx, communityID, january)
	if err != nil {
		return nil, err
	}

	report := &YearReport{
		CommunityID:    communityID,
		Year:           year,
		OpeningBalance: opening,
		Months:         make([]MonthSummary, 0, 12),
	}

	running := opening + collectedBefore - expensesBefore
	for month := time.January; month <= time.December; month++ {
		period := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

		collected, pendingDues, err := s.ledgerRepo.TotalsForPeriod(ctx, communityID, period)
		if err != nil {
			return nil, err
		}
		expenses, err := s.expenseRepo.SumForPeriod(ctx, communityID, period)
		if err != nil {
			return nil, err
		}

		running += collected - expenses
		closing := running

		report.Months = append(report.Months, MonthSummary{
			CommunityID:    communityID,
			Period:         period,
			Collected:      collected,
			Expenses:       expenses,
			PendingDues:    pendingDues,
			ClosingBalance: &closing,
		})
		report.TotalCollected += collected
		report.TotalExpenses += expenses
	}

	return report, nil
}

// AggregateAllCommunities returns per-community rollups for a single period.
// Communities without ledger activity appear with zero totals.
func (s *ReportServiceImpl) AggregateAllCommunities(ctx context.Context, year int, month time.Month) ([]*MonthSummary, error) {
	period := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	totalsByID := make(map[uuid.UUID]*ledger.MonthTotals)
	totals, err := s.ledgerRepo.TotalsForAllCommunities(ctx, period)
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		totalsByID[t.CommunityID] = t
	}

	summaries := make([]*MonthSummary, 0)
	for offset := 0; ; offset += reportListBatchSize {
		communities, err := s.communityRepo.List(ctx, reportListBatchSize, offset)
		if err != nil {
			return nil, err
		}
		if len(communities) == 0 {
			break
		}

		for _, c := range communities {
			summary := &MonthSummary{CommunityID: c.ID, Period: period}
			if t, ok := totalsByID[c.ID]; ok {
				summary.Collected = t.Collected
				summary.PendingDues = t.PendingDues
			}

			expenses, err := s.expenseRepo.SumForPeriod(ctx, c.ID, period)
			if err != nil {
				return nil, err
			}
			summary.Expenses = expenses

			summaries = append(summaries, summary)
		}

		if len(communities) < reportListBatchSize {
			break
		}
	}

	return summaries, nil
}

// reportListBatchSize bounds how many communities are loaded per page while
// building the portfolio-wide rollup
const reportListBatchSize = 200
