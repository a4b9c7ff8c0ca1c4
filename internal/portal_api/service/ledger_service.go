package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
	"github.com/community-billing-ledger/internal/platform/messaging/producers"
)

// PeriodGenerator backfills a unit's missing billing months
type PeriodGenerator interface {
	GeneratePeriods(ctx context.Context, unitID uuid.UUID, asOf time.Time, actorID uuid.UUID) ([]*ledger.Record, error)
}

// backfillBatchSize bounds how many units are loaded per page while fanning
// out backfill jobs for a community
const backfillBatchSize = 500

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	generator  PeriodGenerator
	ledgerRepo ledger.Repository
	unitRepo   unit.Repository
	producer   producers.MessagePublisher
	recorder   auditRecorder
	logger     *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	logger *slog.Logger,
	generator PeriodGenerator,
	ledgerRepo ledger.Repository,
	unitRepo unit.Repository,
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
) LedgerService {
	return &LedgerServiceImpl{
		generator:  generator,
		ledgerRepo: ledgerRepo,
		unitRepo:   unitRepo,
		producer:   producer,
		recorder:   auditRecorder{outboxRepo: outboxRepo, logger: logger},
		logger:     logger,
	}
}

// GeneratePeriods backfills the unit's missing billing months up to asOf
func (s *LedgerServiceImpl) GeneratePeriods(ctx context.Context, actor shared.Principal, unitID uuid.UUID, asOf time.Time) ([]*ledger.Record, error) {
	u, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCommunityScope(actor, u.CommunityID); err != nil {
		return nil, err
	}

	return s.generator.GeneratePeriods(ctx, unitID, asOf, actor.ID)
}

// ListByUnit retrieves a page of a unit's ledger records, newest first
func (s *LedgerServiceImpl) ListByUnit(ctx context.Context, unitID uuid.UUID, page, perPage int) ([]*ledger.Record, error) {
	offset := (page - 1) * perPage
	return s.ledgerRepo.ListByUnitID(ctx, unitID, perPage, offset)
}

// SubmitPayment transitions a record PENDING -> SUBMITTED
func (s *LedgerServiceImpl) SubmitPayment(ctx context.Context, actor shared.Principal, recordID uuid.UUID) (*ledger.Record, error) {
	return s.transitionStatus(ctx, actor, recordID, shared.RecordStatusPending, shared.RecordStatusSubmitted, false)
}

// VerifyPayment transitions a record SUBMITTED -> PAID; admin only
func (s *LedgerServiceImpl) VerifyPayment(ctx context.Context, actor shared.Principal, recordID uuid.UUID) (*ledger.Record, error) {
	return s.transitionStatus(ctx, actor, recordID, shared.RecordStatusSubmitted, shared.RecordStatusPaid, true)
}

// transitionStatus applies a payment status CAS and audits the change
func (s *LedgerServiceImpl) transitionStatus(ctx context.Context, actor shared.Principal, recordID uuid.UUID, from, to shared.RecordStatus, adminOnly bool) (*ledger.Record, error) {
	record, err := s.ledgerRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if adminOnly {
		if !actor.CanAdminister(record.CommunityID) {
			return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: record.CommunityID}
		}
	} else if err := s.requireCommunityScope(actor, record.CommunityID); err != nil {
		return nil, err
	}

	oldState := record.Snapshot()

	if err := s.ledgerRepo.UpdateStatus(ctx, recordID, from, to); err != nil {
		return nil, err
	}
	record.Status = to

	s.recorder.record(ctx, audit.NewEntry(
		"ledger_record", recordID.String(), audit.ActionUpdate, actor.ID, oldState, record.Snapshot(),
	))

	s.logger.Info("Ledger record status changed",
		"record_id", recordID.String(),
		"from", string(from),
		"to", string(to),
		"actor_id", actor.ID.String(),
	)
	return record, nil
}

// RequestBackfill enqueues one asynchronous backfill job per unit of the community
func (s *LedgerServiceImpl) RequestBackfill(ctx context.Context, actor shared.Principal, communityID uuid.UUID, asOf time.Time, correlationID string) (int, error) {
	if !actor.CanAdminister(communityID) {
		return 0, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}

	published := 0
	for offset := 0; ; offset += backfillBatchSize {
		units, err := s.unitRepo.ListByCommunityID(ctx, communityID, backfillBatchSize, offset)
		if err != nil {
			return published, err
		}
		if len(units) == 0 {
			break
		}

		for _, u := range units {
			request := &shared.BackfillRequest{
				RequestID:     uuid.New(),
				UnitID:        u.ID,
				CommunityID:   communityID,
				AsOf:          asOf,
				RequestedBy:   actor.ID,
				CorrelationID: correlationID,
				Timestamp:     time.Now().UTC(),
			}
			if err := s.producer.Publish(ctx, u.ID.String(), request); err != nil {
				s.logger.Error("Failed to publish backfill job",
					"community_id", communityID.String(),
					"unit_id", u.ID.String(),
					"error", err,
				)
				return published, err
			}
			published++
		}

		if len(units) < backfillBatchSize {
			break
		}
	}

	s.logger.Info("Backfill jobs published",
		"community_id", communityID.String(),
		"jobs", published,
		"actor_id", actor.ID.String(),
	)
	return published, nil
}

// requireCommunityScope admits community admins, managers, and residents of
// the same community
func (s *LedgerServiceImpl) requireCommunityScope(actor shared.Principal, communityID uuid.UUID) error {
	if actor.CanAdminister(communityID) {
		return nil
	}
	if actor.Role == shared.RoleResident && actor.CommunityID == communityID {
		return nil
	}
	return shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
}
