package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// BalanceServiceImpl implements the BalanceService interface.
// Approval and rejection run inside a single database transaction so the
// revision resolution, the balance overwrite and the audit outbox entries
// commit or roll back together.
type BalanceServiceImpl struct {
	txRunner      TxRunner
	communityRepo community.Repository
	outboxRepo    outbox.Repository
	recorder      auditRecorder
	logger        *slog.Logger
}

// NewBalanceService creates a new balance service
func NewBalanceService(logger *slog.Logger, txRunner TxRunner, communityRepo community.Repository, outboxRepo outbox.Repository) BalanceService {
	return &BalanceServiceImpl{
		txRunner:      txRunner,
		communityRepo: communityRepo,
		outboxRepo:    outboxRepo,
		recorder:      auditRecorder{outboxRepo: outboxRepo, logger: logger},
		logger:        logger,
	}
}

// SetOpeningBalance sets and locks the balance while it is still unlocked
func (s *BalanceServiceImpl) SetOpeningBalance(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64) (*community.Community, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}
	if amount < 0 {
		return nil, community.ErrInvalidAmount
	}

	c, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	oldState := c.Snapshot()

	if err := s.communityRepo.LockOpeningBalance(ctx, communityID, amount); err != nil {
		return nil, err
	}

	c.OpeningBalance = &amount
	c.BalanceLocked = true

	s.recorder.record(ctx, audit.NewEntry(
		"community", communityID.String(), audit.ActionUpdate, actor.ID, oldState, c.Snapshot(),
	))

	s.logger.Info("Opening balance locked",
		"community_id", communityID.String(),
		"amount", amount,
		"actor_id", actor.ID.String(),
	)
	return c, nil
}

// RequestRevision files a pending overwrite request for a locked balance
func (s *BalanceServiceImpl) RequestRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID, amount int64, reason string) (*community.RevisionRequest, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}

	c, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !c.BalanceLocked {
		return nil, community.ErrBalanceUnset{CommunityID: communityID}
	}

	req, err := community.NewRevisionRequest(communityID, actor.ID, amount, reason)
	if err != nil {
		return nil, err
	}

	if err := s.communityRepo.CreateRevision(ctx, req); err != nil {
		return nil, err
	}

	s.recorder.record(ctx, audit.NewEntry(
		"balance_revision", req.ID.String(), audit.ActionCreate, actor.ID, nil, revisionSnapshot(req),
	))

	s.logger.Info("Balance revision requested",
		"community_id", communityID.String(),
		"request_id", req.ID.String(),
		"amount", amount,
		"actor_id", actor.ID.String(),
	)
	return req, nil
}

// GetPendingRevision returns the community's outstanding request, if any
func (s *BalanceServiceImpl) GetPendingRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}
	return s.communityRepo.GetPendingRevision(ctx, communityID)
}

// ApproveRevision resolves the pending request and overwrites the balance in
// one transaction
func (s *BalanceServiceImpl) ApproveRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error) {
	return s.resolveRevision(ctx, actor, communityID, shared.RevisionStatusApproved)
}

// RejectRevision resolves the pending request without touching the balance
func (s *BalanceServiceImpl) RejectRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error) {
	return s.resolveRevision(ctx, actor, communityID, shared.RevisionStatusRejected)
}

// resolveRevision applies the shared dual-control preconditions, then
// transitions the pending request to the requested terminal status. On
// approval the community balance is overwritten in the same transaction.
func (s *BalanceServiceImpl) resolveRevision(ctx context.Context, actor shared.Principal, communityID uuid.UUID, status shared.RevisionStatus) (*community.RevisionRequest, error) {
	if !actor.CanAdminister(communityID) {
		return nil, shared.ErrWrongCommunity{PrincipalID: actor.ID, CommunityID: communityID}
	}

	req, err := s.communityRepo.GetPendingRevision(ctx, communityID)
	if err != nil {
		return nil, err
	}

	// Dual control: the requester may never resolve their own request
	if req.RequestedBy == actor.ID {
		return nil, community.ErrSelfApproval{RequestID: req.ID, AdminID: actor.ID}
	}

	c, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	oldCommunityState := c.Snapshot()
	oldRequestState := revisionSnapshot(req)

	now := time.Now().UTC()
	req.Status = status
	req.ResolvedBy = &actor.ID
	req.ResolvedAt = &now

	entries := []*audit.Entry{
		audit.NewEntry("balance_revision", req.ID.String(), audit.ActionUpdate, actor.ID, oldRequestState, revisionSnapshot(req)),
	}
	if status == shared.RevisionStatusApproved {
		c.OpeningBalance = &req.Amount
		entries = append(entries,
			audit.NewEntry("community", communityID.String(), audit.ActionUpdate, actor.ID, oldCommunityState, c.Snapshot()),
		)
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txCommunityRepo := s.communityRepo.WithTx(tx)
		txOutboxRepo := s.outboxRepo.WithTx(tx)

		if err := txCommunityRepo.ResolveRevision(ctx, req); err != nil {
			return err
		}

		if status == shared.RevisionStatusApproved {
			if err := txCommunityRepo.OverwriteOpeningBalance(ctx, communityID, req.Amount); err != nil {
				return err
			}
		}

		for _, entry := range entries {
			msg, err := outbox.NewMessage(entry)
			if err != nil {
				return fmt.Errorf("failed to build outbox message for revision resolution: %w", err)
			}
			if err := txOutboxRepo.Create(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Balance revision resolved",
		"community_id", communityID.String(),
		"request_id", req.ID.String(),
		"status", string(status),
		"resolved_by", actor.ID.String(),
	)
	return req, nil
}

// revisionSnapshot returns the audit-relevant fields of a revision request
func revisionSnapshot(req *community.RevisionRequest) map[string]any {
	snap := map[string]any{
		"community_id": req.CommunityID.String(),
		"requested_by": req.RequestedBy.String(),
		"amount":       req.Amount,
		"reason":       req.Reason,
		"status":       string(req.Status),
	}
	if req.ResolvedBy != nil {
		snap["resolved_by"] = req.ResolvedBy.String()
	}
	return snap
}
