package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// BalanceHandler handles HTTP requests for the opening balance workflow
type BalanceHandler struct {
	balanceService service.BalanceService
	logger         *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, balanceService service.BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger,
	}
}

// SetOpeningBalance sets and locks a community's opening balance
func (h *BalanceHandler) SetOpeningBalance(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	var req SetOpeningBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	updated, err := h.balanceService.SetOpeningBalance(c.Request.Context(), actor, communityID, req.Amount)
	if err != nil {
		h.respondBalanceError(c, err, "Failed to set opening balance")
		return
	}

	RespondOK(c, mapCommunityToResponse(updated))
}

// RequestRevision files a revision request against a locked opening balance
func (h *BalanceHandler) RequestRevision(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	var req CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	revision, err := h.balanceService.RequestRevision(c.Request.Context(), actor, communityID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, community.ErrInvalidAmount) || errors.Is(err, community.ErrEmptyReason) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.respondBalanceError(c, err, "Failed to request balance revision")
		return
	}

	RespondCreated(c, mapRevisionToResponse(revision))
}

// GetPendingRevision retrieves the outstanding revision request, if any
func (h *BalanceHandler) GetPendingRevision(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	revision, err := h.balanceService.GetPendingRevision(c.Request.Context(), actor, communityID)
	if err != nil {
		h.respondBalanceError(c, err, "Failed to get pending revision")
		return
	}

	RespondOK(c, mapRevisionToResponse(revision))
}

// ApproveRevision approves the pending revision and applies the new balance
func (h *BalanceHandler) ApproveRevision(c *gin.Context) {
	h.resolveRevision(c, h.balanceService.ApproveRevision)
}

// RejectRevision rejects the pending revision, leaving the balance untouched
func (h *BalanceHandler) RejectRevision(c *gin.Context) {
	h.resolveRevision(c, h.balanceService.RejectRevision)
}

func (h *BalanceHandler) resolveRevision(c *gin.Context, resolve func(ctx context.Context, actor shared.Principal, communityID uuid.UUID) (*community.RevisionRequest, error)) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	revision, err := resolve(c.Request.Context(), actor, communityID)
	if err != nil {
		h.respondBalanceError(c, err, "Failed to resolve balance revision")
		return
	}

	RespondOK(c, mapRevisionToResponse(revision))
}

// respondBalanceError maps workflow errors onto HTTP status codes
func (h *BalanceHandler) respondBalanceError(c *gin.Context, err error, logMessage string) {
	var notFound community.ErrCommunityNotFound
	var noPending community.ErrNoPendingRevision
	var balanceLocked community.ErrBalanceLocked
	var balanceUnset community.ErrBalanceUnset
	var revisionPending community.ErrRevisionPending
	var revisionResolved community.ErrRevisionResolved
	var selfApproval community.ErrSelfApproval
	var wrongCommunity shared.ErrWrongCommunity
	var roleDenied shared.ErrRoleDenied

	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Community not found")
	case errors.As(err, &noPending):
		RespondNotFound(c, "No pending revision request")
	case errors.As(err, &balanceLocked):
		RespondConflict(c, "Opening balance is already locked")
	case errors.As(err, &balanceUnset):
		RespondConflict(c, "Opening balance has not been locked yet")
	case errors.As(err, &revisionPending):
		RespondConflict(c, "A revision request is already pending")
	case errors.As(err, &revisionResolved):
		RespondConflict(c, "Revision request was already resolved")
	case errors.As(err, &selfApproval):
		RespondForbidden(c, "Requester cannot resolve their own revision request")
	case errors.As(err, &wrongCommunity), errors.As(err, &roleDenied):
		RespondForbidden(c, "")
	default:
		h.logger.Error(logMessage, "error", err)
		RespondInternalError(c)
	}
}

// mapRevisionToResponse maps a revision request entity to a response DTO
func mapRevisionToResponse(r *community.RevisionRequest) RevisionResponse {
	response := RevisionResponse{
		ID:          r.ID.String(),
		CommunityID: r.CommunityID.String(),
		RequestedBy: r.RequestedBy.String(),
		Amount:      r.Amount,
		Reason:      r.Reason,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ResolvedBy != nil {
		response.ResolvedBy = r.ResolvedBy.String()
	}
	if r.ResolvedAt != nil {
		response.ResolvedAt = r.ResolvedAt.Format(time.RFC3339)
	}
	return response
}
