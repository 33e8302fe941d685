package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.GuestService
}

func NewCheckInController(logger *slog.Logger, svc domain.GuestService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest identifies the guest to check in, by access code or
// guest ID. EventID, when set, rejects codes belonging to other events.
type CheckInRequest struct {
	Code    string `json:"code"`
	EventID string `json:"event_id,omitempty"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	var errs []string
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		errs = append(errs, "code is required")
	}
	if r.EventID != "" && !uuidRegex.MatchString(r.EventID) {
		errs = append(errs, "event_id must be a valid UUID")
	}
	return errs
}

// CheckIn godoc
// @Summary Check in a guest
// @Description Resolves the scanned code (or guest ID) to exactly one of SUCCESS, DUPLICATE, or INVALID. A duplicate scan returns 200 with the original check-in time and actor; it is an outcome, not an error. Unknown codes return 200 with kind INVALID.
// @Tags checkin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CheckInRequest true "Scan"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /checkin [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.CheckIn(r.Context(), req.Code, userID, req.EventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
