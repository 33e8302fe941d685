package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

type AuditController struct {
	Logger  *slog.Logger
	Service domain.AuditService
}

func NewAuditController(logger *slog.Logger, svc domain.AuditService) *AuditController {
	return &AuditController{
		Logger:  logger,
		Service: svc,
	}
}

// AuditListResponse is a page of audit entries.
type AuditListResponse struct {
	Entries    []*domain.AuditEntry   `json:"entries"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAudit godoc
// @Summary List audit trail entries
// @Description Filterable by event, actor, action, and time range. Non-admin callers see only their own entries.
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param event_id query string false "Filter by event ID"
// @Param actor_id query string false "Filter by actor ID (admins only)"
// @Param action query string false "Filter by action tag"
// @Param from query string false "RFC 3339 lower bound"
// @Param to query string false "RFC 3339 upper bound"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /audit [get]
func (c *AuditController) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	filter := domain.AuditFilter{
		EventID: q.Get("event_id"),
		ActorID: q.Get("actor_id"),
		Action:  domain.AuditAction(q.Get("action")),
	}
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "from must be RFC 3339")
			return
		}
		filter.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "to must be RFC 3339")
			return
		}
		filter.To = &t
	}
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.List(r.Context(), userID, filter, params)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AuditListResponse{
		Entries:    entries,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
