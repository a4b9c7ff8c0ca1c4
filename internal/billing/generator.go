package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/unit"
	"github.com/google/uuid"
)

// Generator backfills missing ledger periods for units. It is safe to invoke
// concurrently for the same unit: insertion races are resolved by the
// (unit_id, period) unique constraint, and losing a race is a no-op.
type Generator struct {
	communityRepo community.Repository
	unitRepo      unit.Repository
	ledgerRepo    ledger.Repository
	outboxRepo    outbox.Repository
	logger        *slog.Logger
}

// NewGenerator creates a period generator
func NewGenerator(
	logger *slog.Logger,
	communityRepo community.Repository,
	unitRepo unit.Repository,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
) *Generator {
	return &Generator{
		communityRepo: communityRepo,
		unitRepo:      unitRepo,
		ledgerRepo:    ledgerRepo,
		outboxRepo:    outboxRepo,
		logger:        logger,
	}
}

// GeneratePeriods inserts one ledger record per elapsed billing month for the
// unit, pro-rating the start month, up to and including the month of asOf.
// Existing records are left untouched, so re-invocation with the same or a
// later asOf only ever appends. Returns the newly created records; an empty
// result is a valid success. A unit with no billing start date or a zero
// monthly amount generates nothing and no error.
func (g *Generator) GeneratePeriods(ctx context.Context, unitID uuid.UUID, asOf time.Time, actorID uuid.UUID) ([]*ledger.Record, error) {
	u, err := g.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	c, err := g.communityRepo.GetByID(ctx, u.CommunityID)
	if err != nil {
		return nil, err
	}

	monthly := ComputeMonthlyAmount(c, u)
	if monthly <= 0 || u.BillingStart == nil {
		g.logger.Debug("Nothing to bill for unit",
			"unit_id", unitID.String(),
			"monthly_amount", monthly,
			"billing_start_set", u.BillingStart != nil,
		)
		return []*ledger.Record{}, nil
	}

	schedule := BuildSchedule(monthly, *u.BillingStart, asOf)

	created := make([]*ledger.Record, 0, len(schedule))
	for _, charge := range schedule {
		record := ledger.NewRecord(u.ID, u.CommunityID, charge.Period, charge.Amount)
		if err := g.ledgerRepo.Create(ctx, record); err != nil {
			if errors.Is(err, ledger.ErrDuplicateRecord{}) {
				// Period already exists, possibly from a concurrent run
				continue
			}
			return created, fmt.Errorf("failed to generate period %s for unit %s: %w",
				charge.Period.Format("2006-01"), u.ID.String(), err)
		}

		g.recordAudit(ctx, record, actorID)
		created = append(created, record)
	}

	g.logger.Info("Generated ledger periods",
		"unit_id", u.ID.String(),
		"community_id", u.CommunityID.String(),
		"scheduled", len(schedule),
		"created", len(created),
	)

	return created, nil
}

// recordAudit queues a CREATE audit entry for a generated record. Audit
// delivery is best-effort here: a failed enqueue must not undo billing.
func (g *Generator) recordAudit(ctx context.Context, record *ledger.Record, actorID uuid.UUID) {
	entry := audit.NewEntry("ledger_record", record.ID.String(), audit.ActionCreate, actorID, nil, record.Snapshot())
	message, err := outbox.NewMessage(entry)
	if err != nil {
		g.logger.Error("Failed to build audit outbox message", "record_id", record.ID.String(), "error", err)
		return
	}
	if err := g.outboxRepo.Create(ctx, message); err != nil {
		g.logger.Error("Failed to enqueue audit entry for generated record",
			"record_id", record.ID.String(),
			"error", err,
		)
	}
}
