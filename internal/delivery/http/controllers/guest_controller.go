package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

type GuestController struct {
	Logger  *slog.Logger
	Service domain.GuestService
}

func NewGuestController(logger *slog.Logger, svc domain.GuestService) *GuestController {
	return &GuestController{
		Logger:  logger,
		Service: svc,
	}
}

// GuestRequest is the request body for a single guest add or update.
type GuestRequest struct {
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Category   string  `json:"category,omitempty"`
	Companions int     `json:"companions"`
	Notes      string  `json:"notes,omitempty"`
}

// Validate implements helpers.Validator.
func (r *GuestRequest) Validate() []string {
	var errs []string
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.Category != "" && !domain.ValidGuestCategory(domain.GuestCategory(r.Category)) {
		errs = append(errs, "category must be one of regular, vip, staff, press")
	}
	if r.Companions < 0 {
		errs = append(errs, "companions must be >= 0")
	}
	return errs
}

func (r *GuestRequest) toRecord() *domain.GuestRecord {
	return &domain.GuestRecord{
		Name:       r.Name,
		Phone:      r.Phone,
		Category:   domain.GuestCategory(r.Category),
		Companions: r.Companions,
		Notes:      r.Notes,
	}
}

// ImportGuestsRequest is the bulk guest upload body.
type ImportGuestsRequest struct {
	Guests []GuestRequest `json:"guests"`
}

// Validate implements helpers.Validator. Row-level problems carry the
// row index so callers can fix their upload.
func (r *ImportGuestsRequest) Validate() []string {
	var errs []string
	if len(r.Guests) == 0 {
		errs = append(errs, "guests is required")
	}
	for i := range r.Guests {
		for _, e := range r.Guests[i].Validate() {
			errs = append(errs, "row "+strconv.Itoa(i)+": "+e)
		}
	}
	return errs
}

// AddGuest godoc
// @Summary Add a guest to an event
// @Description Rejects with event_full when the event's tier capacity is reached. The created guest carries a freshly generated access code.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.GuestRequest true "Guest"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: event_full"
// @Router /events/{eventID}/guests [post]
func (c *GuestController) AddGuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req GuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, err := c.Service.AddGuest(r.Context(), eventID, userID, req.toRecord())
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, guest)
}

// ImportGuests godoc
// @Summary Bulk-import guests to an event
// @Description Imports rows in order until the event's tier capacity is reached; the remainder is dropped and reported in truncated_count. Truncation is not an error.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.ImportGuestsRequest true "Guest rows"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/guests/import [post]
func (c *GuestController) ImportGuests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req ImportGuestsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	recs := make([]*domain.GuestRecord, 0, len(req.Guests))
	for i := range req.Guests {
		recs = append(recs, req.Guests[i].toRecord())
	}
	result, err := c.Service.ImportGuests(r.Context(), eventID, userID, recs)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// ListGuests godoc
// @Summary List an event's guests
// @Description Available to the event owner, assigned organizers, and admins.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/guests [get]
func (c *GuestController) ListGuests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	guests, err := c.Service.ListGuests(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guests)
}

// UpdateGuest godoc
// @Summary Update a guest
// @Description Check-in state and access code are immutable through this endpoint.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param guestID path string true "Guest ID (UUID)"
// @Param body body controllers.GuestRequest true "Guest"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/guests/{guestID} [put]
func (c *GuestController) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	guestID, ok := pathUUID(w, r, "guestID")
	if !ok {
		return
	}
	var req GuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, err := c.Service.UpdateGuest(r.Context(), eventID, guestID, userID, req.toRecord())
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guest)
}

// DeleteGuest godoc
// @Summary Delete a guest
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param guestID path string true "Guest ID (UUID)"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/guests/{guestID} [delete]
func (c *GuestController) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	guestID, ok := pathUUID(w, r, "guestID")
	if !ok {
		return
	}
	if err := c.Service.DeleteGuest(r.Context(), eventID, guestID, userID); err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
