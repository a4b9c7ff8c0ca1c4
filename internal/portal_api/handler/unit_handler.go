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
	"github.com/community-billing-ledger/internal/domain/unit"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// UnitHandler handles HTTP requests for unit operations
type UnitHandler struct {
	unitService service.UnitService
	logger      *slog.Logger
}

// NewUnitHandler creates a new unit handler
func NewUnitHandler(logger *slog.Logger, unitService service.UnitService) *UnitHandler {
	return &UnitHandler{
		unitService: unitService,
		logger:      logger,
	}
}

// Create handles registration of a unit within a community
func (h *UnitHandler) Create(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.logger.Error("Invalid owner ID", "owner_id", req.OwnerID, "error", err)
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	var billingStart *time.Time
	if req.BillingStart != "" {
		parsed, err := time.Parse(time.RFC3339, req.BillingStart)
		if err != nil {
			// Accept plain dates as well as full timestamps
			parsed, err = time.Parse("2006-01-02", req.BillingStart)
			if err != nil {
				h.logger.Error("Invalid billing start", "billing_start", req.BillingStart, "error", err)
				RespondBadRequest(c, "Invalid billing start date")
				return
			}
		}
		billingStart = &parsed
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	created, err := h.unitService.CreateUnit(c.Request.Context(), actor, communityID, req.Label, req.FloorArea, ownerID, billingStart)
	if err != nil {
		var notFound community.ErrCommunityNotFound
		var wrongCommunity shared.ErrWrongCommunity
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Community not found")
		case errors.As(err, &wrongCommunity):
			RespondForbidden(c, "")
		case errors.Is(err, unit.ErrEmptyLabel), errors.Is(err, unit.ErrNegativeArea):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create unit", "community_id", communityID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapUnitToResponse(created))
}

// GetByID retrieves a unit by its ID, returning 404 if not found
func (h *UnitHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, h.logger, "id", "Invalid unit ID")
	if !ok {
		return
	}

	found, err := h.unitService.GetUnitByID(c.Request.Context(), id)
	if err != nil {
		var notFound unit.ErrUnitNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Unit not found")
			return
		}
		h.logger.Error("Failed to get unit", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapUnitToResponse(found))
}

// ListByCommunity retrieves a paginated list of a community's units
func (h *UnitHandler) ListByCommunity(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	units, total, err := h.unitService.ListUnits(c.Request.Context(), communityID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list units", "community_id", communityID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]UnitResponse, 0, len(units))
	for _, found := range units {
		responses = append(responses, mapUnitToResponse(found))
	}
	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapUnitToResponse maps a unit entity to a unit response DTO
func mapUnitToResponse(u *unit.Unit) UnitResponse {
	response := UnitResponse{
		ID:          u.ID.String(),
		CommunityID: u.CommunityID.String(),
		Label:       u.Label,
		FloorArea:   u.FloorArea,
		OwnerID:     u.OwnerID.String(),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
	if u.BillingStart != nil {
		response.BillingStart = u.BillingStart.Format(time.RFC3339)
	}
	return response
}
