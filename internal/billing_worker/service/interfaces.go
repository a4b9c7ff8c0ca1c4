package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// BackfillService defines the interface for processing backfill requests.
type BackfillService interface {
	ProcessBackfill(ctx context.Context, request *shared.BackfillRequest) error
}

// PeriodGenerator generates the missing ledger periods for one unit
type PeriodGenerator interface {
	GeneratePeriods(ctx context.Context, unitID uuid.UUID, asOf time.Time, actorID uuid.UUID) ([]*ledger.Record, error)
}
