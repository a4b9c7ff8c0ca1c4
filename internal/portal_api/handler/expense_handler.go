package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// ExpenseHandler handles HTTP requests for expense operations
type ExpenseHandler struct {
	expenseService service.ExpenseService
	logger         *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(logger *slog.Logger, expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// Create books an expense against a community's billing period
func (h *ExpenseHandler) Create(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	incurredAt := time.Now().UTC()
	if req.IncurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.IncurredAt)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", req.IncurredAt)
			if err != nil {
				h.logger.Error("Invalid incurred_at date", "incurred_at", req.IncurredAt, "error", err)
				RespondBadRequest(c, "Invalid incurred_at date")
				return
			}
		}
		incurredAt = parsed
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	created, err := h.expenseService.RecordExpense(c.Request.Context(), actor, communityID, req.Amount, req.Description, incurredAt)
	if err != nil {
		var notFound community.ErrCommunityNotFound
		var wrongCommunity shared.ErrWrongCommunity
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Community not found")
		case errors.As(err, &wrongCommunity):
			RespondForbidden(c, "")
		case errors.Is(err, expense.ErrInvalidAmount), errors.Is(err, expense.ErrEmptyDescription):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to record expense", "community_id", communityID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapExpenseToResponse(created))
}

// ListByPeriod retrieves a community's expenses for one period (?period=2024-03)
func (h *ExpenseHandler) ListByPeriod(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	period, err := time.Parse("2006-01", c.Query("period"))
	if err != nil {
		h.logger.Error("Invalid period", "period", c.Query("period"), "error", err)
		RespondBadRequest(c, "Invalid period, expected YYYY-MM")
		return
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), communityID, period)
	if err != nil {
		h.logger.Error("Failed to list expenses", "community_id", communityID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, mapExpenseToResponse(e))
	}
	RespondWithData(c, http.StatusOK, responses)
}

// mapExpenseToResponse maps an expense entity to an expense response DTO
func mapExpenseToResponse(e *expense.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID.String(),
		CommunityID: e.CommunityID.String(),
		Period:      e.Period.Format("2006-01"),
		Amount:      e.Amount,
		Description: e.Description,
		RecordedBy:  e.RecordedBy.String(),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
