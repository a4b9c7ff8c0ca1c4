package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/shared"
)

// BackfillServiceImpl implements the BackfillService interface
type BackfillServiceImpl struct {
	generator PeriodGenerator
	logger    *slog.Logger
}

// NewBackfillService creates a new backfill service
func NewBackfillService(logger *slog.Logger, generator PeriodGenerator) BackfillService {
	return &BackfillServiceImpl{
		generator: generator,
		logger:    logger,
	}
}

// ProcessBackfill generates the unit's missing ledger periods up to the
// requested cutoff. The generator is idempotent, so redelivered messages
// simply create nothing.
func (s *BackfillServiceImpl) ProcessBackfill(ctx context.Context, request *shared.BackfillRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	created, err := s.generator.GeneratePeriods(ctx, request.UnitID, request.AsOf, request.RequestedBy)
	if err != nil {
		return fmt.Errorf("backfill for unit %s failed: %w", request.UnitID.String(), err)
	}

	logger.Info("Backfill completed for unit",
		"request_id", request.RequestID.String(),
		"unit_id", request.UnitID.String(),
		"community_id", request.CommunityID.String(),
		"created", len(created),
	)
	return nil
}
