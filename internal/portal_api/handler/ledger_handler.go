package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// LedgerHandler handles HTTP requests for ledger record operations
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Generate backfills the unit's missing billing months synchronously and
// returns the newly created records. An empty result is a valid success.
func (h *LedgerHandler) Generate(c *gin.Context) {
	unitID, ok := parseUUIDParam(c, h.logger, "id", "Invalid unit ID")
	if !ok {
		return
	}

	asOf, ok := h.parseAsOfBody(c)
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	records, err := h.ledgerService.GeneratePeriods(c.Request.Context(), actor, unitID, asOf)
	if err != nil {
		h.respondLedgerError(c, err, "Failed to generate ledger periods")
		return
	}

	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}
	RespondCreated(c, responses)
}

// ListByUnit retrieves a paginated list of a unit's ledger records
func (h *LedgerHandler) ListByUnit(c *gin.Context) {
	unitID, ok := parseUUIDParam(c, h.logger, "id", "Invalid unit ID")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, err := h.ledgerService.ListByUnit(c.Request.Context(), unitID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list ledger records", "unit_id", unitID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}
	RespondWithData(c, http.StatusOK, responses)
}

// Submit transitions a record PENDING -> SUBMITTED
func (h *LedgerHandler) Submit(c *gin.Context) {
	h.transition(c, h.ledgerService.SubmitPayment)
}

// Verify transitions a record SUBMITTED -> PAID
func (h *LedgerHandler) Verify(c *gin.Context) {
	h.transition(c, h.ledgerService.VerifyPayment)
}

// Backfill enqueues asynchronous backfill jobs for every unit of a community
func (h *LedgerHandler) Backfill(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	asOf, ok := h.parseAsOfBody(c)
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	jobs, err := h.ledgerService.RequestBackfill(c.Request.Context(), actor, communityID, asOf, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondLedgerError(c, err, "Failed to enqueue backfill jobs")
		return
	}

	RespondAccepted(c, gin.H{
		"community_id": communityID.String(),
		"jobs":         jobs,
	})
}

func (h *LedgerHandler) transition(c *gin.Context, apply func(ctx context.Context, actor shared.Principal, recordID uuid.UUID) (*ledger.Record, error)) {
	recordID, ok := parseUUIDParam(c, h.logger, "id", "Invalid record ID")
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	record, err := apply(c.Request.Context(), actor, recordID)
	if err != nil {
		h.respondLedgerError(c, err, "Failed to change payment status")
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// parseAsOfBody reads the optional as_of bound from the request body,
// defaulting to now
func (h *LedgerHandler) parseAsOfBody(c *gin.Context) (time.Time, bool) {
	// An absent body means "up to now"
	var req GeneratePeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return time.Time{}, false
	}

	if req.AsOf == "" {
		return time.Now().UTC(), true
	}

	asOf, err := time.Parse(time.RFC3339, req.AsOf)
	if err != nil {
		asOf, err = time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			h.logger.Error("Invalid as_of date", "as_of", req.AsOf, "error", err)
			RespondBadRequest(c, "Invalid as_of date")
			return time.Time{}, false
		}
	}
	return asOf, true
}

// respondLedgerError maps ledger errors onto HTTP status codes
func (h *LedgerHandler) respondLedgerError(c *gin.Context, err error, logMessage string) {
	var unitNotFound unit.ErrUnitNotFound
	var recordNotFound ledger.ErrRecordNotFound
	var invalidStatus ledger.ErrInvalidStatusChange
	var wrongCommunity shared.ErrWrongCommunity
	var roleDenied shared.ErrRoleDenied

	switch {
	case errors.As(err, &unitNotFound):
		RespondNotFound(c, "Unit not found")
	case errors.As(err, &recordNotFound):
		RespondNotFound(c, "Ledger record not found")
	case errors.As(err, &invalidStatus):
		RespondConflict(c, "Record is not in the required payment status")
	case errors.As(err, &wrongCommunity), errors.As(err, &roleDenied):
		RespondForbidden(c, "")
	default:
		h.logger.Error(logMessage, "error", err)
		RespondInternalError(c)
	}
}

// mapRecordToResponse maps a ledger record to a record response DTO
func mapRecordToResponse(r *ledger.Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID.String(),
		UnitID:      r.UnitID.String(),
		CommunityID: r.CommunityID.String(),
		Period:      r.Period.Format("2006-01"),
		Amount:      r.Amount,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
}
