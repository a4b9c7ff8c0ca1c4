package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// ReportHandler handles HTTP requests for ledger aggregation reports
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Month renders one community's rollup for a single period
func (h *ReportHandler) Month(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	year, month, ok := h.parseYearMonth(c)
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}
	if !h.mayView(actor, communityID) {
		RespondForbidden(c, "")
		return
	}

	summary, err := h.reportService.AggregateMonth(c.Request.Context(), communityID, year, month)
	if err != nil {
		h.respondReportError(c, err)
		return
	}

	RespondOK(c, mapMonthSummaryToResponse(summary))
}

// Year renders twelve chained monthly summaries for a community
func (h *ReportHandler) Year(c *gin.Context) {
	communityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid community ID")
	if !ok {
		return
	}

	year, ok := h.parseYear(c)
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}
	if !h.mayView(actor, communityID) {
		RespondForbidden(c, "")
		return
	}

	report, err := h.reportService.AggregateYear(c.Request.Context(), communityID, year)
	if err != nil {
		h.respondReportError(c, err)
		return
	}

	months := make([]MonthSummaryResponse, 0, len(report.Months))
	for i := range report.Months {
		months = append(months, mapMonthSummaryToResponse(&report.Months[i]))
	}

	RespondOK(c, YearReportResponse{
		CommunityID:    report.CommunityID.String(),
		Year:           report.Year,
		OpeningBalance: report.OpeningBalance,
		TotalCollected: report.TotalCollected,
		TotalExpenses:  report.TotalExpenses,
		Months:         months,
	})
}

// AllCommunities renders per-community rollups for one period; manager only
func (h *ReportHandler) AllCommunities(c *gin.Context) {
	year, month, ok := h.parseYearMonth(c)
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}
	if actor.Role != shared.RoleManager {
		RespondForbidden(c, "Portfolio-wide reports require the manager role")
		return
	}

	summaries, err := h.reportService.AggregateAllCommunities(c.Request.Context(), year, month)
	if err != nil {
		h.respondReportError(c, err)
		return
	}

	responses := make([]MonthSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, mapMonthSummaryToResponse(summary))
	}
	RespondWithData(c, http.StatusOK, responses)
}

// mayView admits admins of the community, managers, and its residents
func (h *ReportHandler) mayView(actor shared.Principal, communityID uuid.UUID) bool {
	if actor.CanAdminister(communityID) {
		return true
	}
	return actor.Role == shared.RoleResident && actor.CommunityID == communityID
}

func (h *ReportHandler) parseYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1970 || year > 9999 {
		h.logger.Error("Invalid year", "year", c.Param("year"))
		RespondBadRequest(c, "Invalid year")
		return 0, false
	}
	return year, true
}

func (h *ReportHandler) parseYearMonth(c *gin.Context) (int, time.Month, bool) {
	year, ok := h.parseYear(c)
	if !ok {
		return 0, 0, false
	}

	monthNum, err := strconv.Atoi(c.Param("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		h.logger.Error("Invalid month", "month", c.Param("month"))
		RespondBadRequest(c, "Invalid month")
		return 0, 0, false
	}
	return year, time.Month(monthNum), true
}

// respondReportError maps aggregation errors onto HTTP status codes
func (h *ReportHandler) respondReportError(c *gin.Context, err error) {
	var notFound community.ErrCommunityNotFound
	if errors.As(err, &notFound) {
		RespondNotFound(c, "Community not found")
		return
	}
	h.logger.Error("Failed to aggregate ledger", "error", err)
	RespondInternalError(c)
}

// mapMonthSummaryToResponse maps a month summary to a response DTO
func mapMonthSummaryToResponse(s *service.MonthSummary) MonthSummaryResponse {
	return MonthSummaryResponse{
		CommunityID:    s.CommunityID.String(),
		Period:         s.Period.Format("2006-01"),
		Collected:      s.Collected,
		Expenses:       s.Expenses,
		PendingDues:    s.PendingDues,
		ClosingBalance: s.ClosingBalance,
	}
}
