package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// CommunityHandler handles HTTP requests for community operations
type CommunityHandler struct {
	communityService service.CommunityService
	logger           *slog.Logger
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(logger *slog.Logger, communityService service.CommunityService) *CommunityHandler {
	return &CommunityHandler{
		communityService: communityService,
		logger:           logger,
	}
}

// Create handles registration of a new community
func (h *CommunityHandler) Create(c *gin.Context) {
	var req CreateCommunityRequest
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

	created, err := h.communityService.CreateCommunity(c.Request.Context(), actor, req.Name, req.BillingMode, req.RatePerArea, req.FixedAmount)
	if err != nil {
		var roleDenied shared.ErrRoleDenied
		if errors.As(err, &roleDenied) {
			RespondForbidden(c, "Only managers may register communities")
			return
		}
		if errors.Is(err, community.ErrEmptyName) || errors.Is(err, community.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create community", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapCommunityToResponse(created))
}

// GetByID retrieves a community by its ID, returning 404 if not found
func (h *CommunityHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	found, err := h.communityService.GetCommunityByID(c.Request.Context(), id)
	if err != nil {
		var notFound community.ErrCommunityNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Community not found")
			return
		}
		h.logger.Error("Failed to get community", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapCommunityToResponse(found))
}

// List retrieves a page of communities
func (h *CommunityHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	communities, err := h.communityService.ListCommunities(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list communities", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]CommunityResponse, 0, len(communities))
	for _, found := range communities {
		responses = append(responses, mapCommunityToResponse(found))
	}
	RespondWithData(c, http.StatusOK, responses)
}

// parseUUIDParam parses a UUID path parameter and responds 400 on failure
func parseUUIDParam(c *gin.Context, logger *slog.Logger, name, message string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Error(message, name, raw, "error", err)
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// mapCommunityToResponse maps a community entity to a community response DTO
func mapCommunityToResponse(c *community.Community) CommunityResponse {
	return CommunityResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		BillingMode:    string(c.BillingMode),
		RatePerArea:    c.RatePerArea,
		FixedAmount:    c.FixedAmount,
		OpeningBalance: c.OpeningBalance,
		BalanceLocked:  c.BalanceLocked,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}
