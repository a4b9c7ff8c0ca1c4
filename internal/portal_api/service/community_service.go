package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// CommunityServiceImpl implements the CommunityService interface
type CommunityServiceImpl struct {
	communityRepo community.Repository
	recorder      auditRecorder
	logger        *slog.Logger
}

// NewCommunityService creates a new community service
func NewCommunityService(logger *slog.Logger, communityRepo community.Repository, outboxRepo outbox.Repository) CommunityService {
	return &CommunityServiceImpl{
		communityRepo: communityRepo,
		recorder:      auditRecorder{outboxRepo: outboxRepo, logger: logger},
		logger:        logger,
	}
}

// CreateCommunity registers a community, normalizing the billing mode label
func (s *CommunityServiceImpl) CreateCommunity(ctx context.Context, actor shared.Principal, name, modeLabel string, ratePerArea, fixedAmount int64) (*community.Community, error) {
	if actor.Role != shared.RoleManager {
		return nil, shared.ErrRoleDenied{PrincipalID: actor.ID, Role: actor.Role}
	}

	c, err := community.NewCommunity(name, modeLabel, ratePerArea, fixedAmount)
	if err != nil {
		return nil, err
	}

	if err := s.communityRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.recorder.record(ctx, audit.NewEntry(
		"community", c.ID.String(), audit.ActionCreate, actor.ID, nil, c.Snapshot(),
	))

	s.logger.Info("Community created",
		"community_id", c.ID.String(),
		"billing_mode", string(c.BillingMode),
		"actor_id", actor.ID.String(),
	)
	return c, nil
}

// GetCommunityByID retrieves a community by its ID
func (s *CommunityServiceImpl) GetCommunityByID(ctx context.Context, id uuid.UUID) (*community.Community, error) {
	return s.communityRepo.GetByID(ctx, id)
}

// ListCommunities retrieves a page of communities
func (s *CommunityServiceImpl) ListCommunities(ctx context.Context, page, perPage int) ([]*community.Community, error) {
	offset := (page - 1) * perPage
	return s.communityRepo.List(ctx, perPage, offset)
}
