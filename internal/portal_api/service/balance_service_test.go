package service

import (
	"context"
	"errors"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
)

func adminOf(communityID uuid.UUID) shared.Principal {
	return shared.Principal{ID: uuid.New(), Role: shared.RoleCommunityAdmin, CommunityID: communityID}
}

func lockedCommunity(id uuid.UUID, balance int64) *community.Community {
	c, _ := community.NewCommunity("Maple Court", "FIXED", 0, 5000)
	c.ID = id
	c.OpeningBalance = &balance
	c.BalanceLocked = true
	return c
}

func TestBalanceServiceImpl_SetOpeningBalance(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	communityID := uuid.New()
	actor := adminOf(communityID)

	t.Run("Success", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		c, _ := community.NewCommunity("Maple Court", "FIXED", 0, 5000)
		c.ID = communityID

		mockCommunityRepo.On("GetByID", ctx, communityID).Return(c, nil).Once()
		mockCommunityRepo.On("LockOpeningBalance", ctx, communityID, int64(120000)).Return(nil).Once()
		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		got, err := service.SetOpeningBalance(ctx, actor, communityID, 120000)

		assert.NoError(t, err)
		assert.NotNil(t, got.OpeningBalance)
		assert.Equal(t, int64(120000), *got.OpeningBalance)
		assert.True(t, got.BalanceLocked)
		mockCommunityRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("AlreadyLocked", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockCommunityRepo.On("LockOpeningBalance", ctx, communityID, int64(300)).
			Return(community.ErrBalanceLocked{CommunityID: communityID}).Once()

		_, err := service.SetOpeningBalance(ctx, actor, communityID, 300)

		var locked community.ErrBalanceLocked
		assert.ErrorAs(t, err, &locked)
		mockOutboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		_, err := service.SetOpeningBalance(ctx, actor, communityID, -1)

		assert.ErrorIs(t, err, community.ErrInvalidAmount)
		mockCommunityRepo.AssertNotCalled(t, "LockOpeningBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongCommunityAdmin", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		outsider := adminOf(uuid.New())
		_, err := service.SetOpeningBalance(ctx, outsider, communityID, 100)

		var wrong shared.ErrWrongCommunity
		assert.ErrorAs(t, err, &wrong)
	})
}

func TestBalanceServiceImpl_RequestRevision(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	communityID := uuid.New()
	actor := adminOf(communityID)

	t.Run("Success", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockCommunityRepo.On("CreateRevision", ctx, mock.AnythingOfType("*community.RevisionRequest")).Return(nil).Once()
		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		req, err := service.RequestRevision(ctx, actor, communityID, 90000, "initial audit found discrepancy")

		assert.NoError(t, err)
		assert.Equal(t, shared.RevisionStatusPending, req.Status)
		assert.Equal(t, actor.ID, req.RequestedBy)
		assert.Equal(t, int64(90000), req.Amount)
		mockCommunityRepo.AssertExpectations(t)
	})

	t.Run("BalanceNotLocked", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		c, _ := community.NewCommunity("Maple Court", "FIXED", 0, 5000)
		c.ID = communityID
		mockCommunityRepo.On("GetByID", ctx, communityID).Return(c, nil).Once()

		_, err := service.RequestRevision(ctx, actor, communityID, 90000, "reason")

		var unset community.ErrBalanceUnset
		assert.ErrorAs(t, err, &unset)
		mockCommunityRepo.AssertNotCalled(t, "CreateRevision", mock.Anything, mock.Anything)
	})

	t.Run("SecondPendingRejected", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockCommunityRepo.On("CreateRevision", ctx, mock.Anything).
			Return(community.ErrRevisionPending{CommunityID: communityID}).Once()

		_, err := service.RequestRevision(ctx, actor, communityID, 90000, "reason")

		var pending community.ErrRevisionPending
		assert.ErrorAs(t, err, &pending)
	})
}

func TestBalanceServiceImpl_ApproveRevision(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	communityID := uuid.New()
	requester := adminOf(communityID)
	approver := adminOf(communityID)

	pendingRequest := func() *community.RevisionRequest {
		req, _ := community.NewRevisionRequest(communityID, requester.ID, 90000, "audit correction")
		return req
	}

	t.Run("ApprovalOverwritesBalance", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()
		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockTxRunner.On("ExecuteTx", ctx, mock.Anything).Return(nil).Once()
		mockCommunityRepo.On("ResolveRevision", ctx, req).Return(nil).Once()
		mockCommunityRepo.On("OverwriteOpeningBalance", ctx, communityID, int64(90000)).Return(nil).Once()
		// One entry for the request transition and one for the balance change
		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Twice()

		resolved, err := service.ApproveRevision(ctx, approver, communityID)

		assert.NoError(t, err)
		assert.Equal(t, shared.RevisionStatusApproved, resolved.Status)
		assert.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, approver.ID, *resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)
		mockCommunityRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
		mockTxRunner.AssertExpectations(t)
	})

	t.Run("RejectionLeavesBalanceAlone", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()
		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockTxRunner.On("ExecuteTx", ctx, mock.Anything).Return(nil).Once()
		mockCommunityRepo.On("ResolveRevision", ctx, req).Return(nil).Once()
		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		resolved, err := service.RejectRevision(ctx, approver, communityID)

		assert.NoError(t, err)
		assert.Equal(t, shared.RevisionStatusRejected, resolved.Status)
		mockCommunityRepo.AssertNotCalled(t, "OverwriteOpeningBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SelfApprovalForbidden", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()

		_, err := service.ApproveRevision(ctx, requester, communityID)

		var selfApproval community.ErrSelfApproval
		assert.ErrorAs(t, err, &selfApproval)
		mockCommunityRepo.AssertNotCalled(t, "ResolveRevision", mock.Anything, mock.Anything)
		mockTxRunner.AssertNotCalled(t, "ExecuteTx", mock.Anything, mock.Anything)
	})

	t.Run("SelfRejectionForbidden", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()

		_, err := service.RejectRevision(ctx, requester, communityID)

		var selfApproval community.ErrSelfApproval
		assert.ErrorAs(t, err, &selfApproval)
	})

	t.Run("ConcurrentResolutionLoses", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()
		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockTxRunner.On("ExecuteTx", ctx, mock.Anything).Return(nil).Once()
		mockCommunityRepo.On("ResolveRevision", ctx, req).
			Return(community.ErrRevisionResolved{RequestID: req.ID}).Once()

		_, err := service.ApproveRevision(ctx, approver, communityID)

		var resolvedErr community.ErrRevisionResolved
		assert.ErrorAs(t, err, &resolvedErr)
		mockCommunityRepo.AssertNotCalled(t, "OverwriteOpeningBalance", mock.Anything, mock.Anything, mock.Anything)
		mockOutboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NoPendingRequest", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).
			Return(nil, community.ErrNoPendingRevision{CommunityID: communityID}).Once()

		_, err := service.ApproveRevision(ctx, approver, communityID)

		assert.ErrorIs(t, err, community.ErrNoPendingRevision{})
	})

	t.Run("AuditEnqueueFailureRollsBack", func(t *testing.T) {
		mockCommunityRepo := new(MockCommunityRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		mockTxRunner := new(MockTxRunner)
		service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

		req := pendingRequest()
		mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()
		mockCommunityRepo.On("GetByID", ctx, communityID).Return(lockedCommunity(communityID, 500), nil).Once()
		mockTxRunner.On("ExecuteTx", ctx, mock.Anything).Return(nil).Once()
		mockCommunityRepo.On("ResolveRevision", ctx, req).Return(nil).Once()
		mockCommunityRepo.On("OverwriteOpeningBalance", ctx, communityID, int64(90000)).Return(nil).Once()
		mockOutboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(errors.New("insert failed")).Once()

		_, err := service.ApproveRevision(ctx, approver, communityID)

		assert.Error(t, err)
	})
}

func TestBalanceServiceImpl_GetPendingRevision(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	communityID := uuid.New()
	actor := adminOf(communityID)

	mockCommunityRepo := new(MockCommunityRepository)
	mockOutboxRepo := new(MockOutboxRepository)
	mockTxRunner := new(MockTxRunner)
	service := NewBalanceService(logger, mockTxRunner, mockCommunityRepo, mockOutboxRepo)

	req, _ := community.NewRevisionRequest(communityID, uuid.New(), 90000, "reason")
	mockCommunityRepo.On("GetPendingRevision", ctx, communityID).Return(req, nil).Once()

	got, err := service.GetPendingRevision(ctx, actor, communityID)

	assert.NoError(t, err)
	assert.Equal(t, req, got)
	mockCommunityRepo.AssertExpectations(t)
}
