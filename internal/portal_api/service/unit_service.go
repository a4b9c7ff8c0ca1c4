package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
)

// UnitServiceImpl implements the UnitService interface
type UnitServiceImpl struct {
	unitRepo      unit.Repository
	communityRepo community.Repository
	recorder      auditRecorder
	logger        *slog.Logger
}

// NewUnitService creates a new unit service
func NewUnitService(logger *slog.Logger, unitRepo unit.Repository, communityRepo community.Repository, outboxRepo outbox.Repository) UnitService {
	return &UnitServiceImpl{
		unitRepo:      unitRepo,
		communityRepo: communityRepo,
		recorder:      auditRecorder{outboxRepo: outboxRepo, logger: logger},
		logger:        logger,
	}
}

// CreateUnit registers a unit in a community
func (s *UnitServiceImpl) CreateUnit(ctx context.Context, actor shared.Principal, communityID uuid.UUID, label string, floorArea float64, ownerID uuid.UUID, billingStart *time.Time) (*unit.Unit, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}

	// The community must exist before anything is billed against it
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}

	u, err := unit.NewUnit(communityID, label, floorArea, ownerID, billingStart)
	if err != nil {
		return nil, err
	}

	if err := s.unitRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.recorder.record(ctx, audit.NewEntry(
		"unit", u.ID.String(), audit.ActionCreate, actor.ID, nil, map[string]any{
			"community_id": u.CommunityID.String(),
			"label":        u.Label,
			"floor_area":   u.FloorArea,
			"owner_id":     u.OwnerID.String(),
		},
	))

	s.logger.Info("Unit created",
		"unit_id", u.ID.String(),
		"community_id", communityID.String(),
		"actor_id", actor.ID.String(),
	)
	return u, nil
}

// GetUnitByID retrieves a unit by its ID
func (s *UnitServiceImpl) GetUnitByID(ctx context.Context, id uuid.UUID) (*unit.Unit, error) {
	return s.unitRepo.GetByID(ctx, id)
}

// ListUnits retrieves a page of a community's units plus the total count
func (s *UnitServiceImpl) ListUnits(ctx context.Context, communityID uuid.UUID, page, perPage int) ([]*unit.Unit, int64, error) {
	offset := (page - 1) * perPage

	units, err := s.unitRepo.ListByCommunityID(ctx, communityID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.unitRepo.CountByCommunityID(ctx, communityID)
	if err != nil {
		return nil, 0, err
	}

	return units, total, nil
}
