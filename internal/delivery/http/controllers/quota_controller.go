package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

type QuotaController struct {
	Logger  *slog.Logger
	Service domain.QuotaService
}

func NewQuotaController(logger *slog.Logger, svc domain.QuotaService) *QuotaController {
	return &QuotaController{
		Logger:  logger,
		Service: svc,
	}
}

// SetQuotasRequest maps tier IDs to quota values for one user.
type SetQuotasRequest struct {
	Quotas map[string]int `json:"quotas"`
}

// Validate implements helpers.Validator.
func (r *SetQuotasRequest) Validate() []string {
	var errs []string
	if len(r.Quotas) == 0 {
		errs = append(errs, "quotas is required")
	}
	for tierID, q := range r.Quotas {
		if !uuidRegex.MatchString(tierID) {
			errs = append(errs, fmt.Sprintf("tier id %q is not a valid UUID", tierID))
		}
		if q < 0 || q > domain.MaxTierQuota {
			errs = append(errs, fmt.Sprintf("quota for tier %s must be between 0 and %d", tierID, domain.MaxTierQuota))
		}
	}
	return errs
}

// SetQuotas godoc
// @Summary Set a user's tier quotas
// @Description Admin only. Replaces the quota value for each listed tier; tiers not listed keep their previous value. All values are validated before any row is written.
// @Tags quotas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID (UUID)"
// @Param body body controllers.SetQuotasRequest true "Tier ID to quota map"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/users/{userID}/quotas [put]
func (c *QuotaController) SetQuotas(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	var req SetQuotasRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	quotas, err := c.Service.SetQuotas(r.Context(), actorID, userID, req.Quotas)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, quotas)
}

// MySummary godoc
// @Summary Get my quota summary
// @Description Returns per-tier quota, live used counts, and remaining allowance for the authenticated manager.
// @Tags quotas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /quotas/me [get]
func (c *QuotaController) MySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	summary, err := c.Service.Summary(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}
