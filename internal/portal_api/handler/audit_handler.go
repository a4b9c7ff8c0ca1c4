package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// auditableKinds are the entity kinds whose history may be queried
var auditableKinds = map[string]struct{}{
	"community":        {},
	"unit":             {},
	"ledger_record":    {},
	"balance_revision": {},
	"expense":          {},
}

// AuditHandler handles HTTP requests for audit history
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// History lists an entity's audit entries, newest first
func (h *AuditHandler) History(c *gin.Context) {
	kind := c.Param("kind")
	if _, ok := auditableKinds[kind]; !ok {
		h.logger.Error("Unknown auditable entity kind", "kind", kind)
		RespondBadRequest(c, "Unknown entity kind")
		return
	}

	entityID, ok := parseUUIDParam(c, h.logger, "id", "Invalid entity ID")
	if !ok {
		return
	}

	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}
	if !actor.IsAdmin() {
		RespondForbidden(c, "Audit history requires an administrative role")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.auditService.History(c.Request.Context(), kind, entityID.String(), params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list audit history", "error", err, "entity_kind", kind, "entity_id", entityID)
		RespondInternalError(c)
		return
	}

	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapAuditEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// mapAuditEntryToResponse maps an audit entry to a response DTO
func mapAuditEntryToResponse(e *audit.Entry) AuditEntryResponse {
	changes := make([]ChangeResponse, 0, len(e.Changes))
	for _, ch := range e.Changes {
		changes = append(changes, ChangeResponse{Key: ch.Key, Old: ch.Old, New: ch.New})
	}

	return AuditEntryResponse{
		ID:         e.ID.String(),
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		ActorID:    e.ActorID.String(),
		Changes:    changes,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}
