package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

type TierController struct {
	Logger  *slog.Logger
	Service domain.TierService
}

func NewTierController(logger *slog.Logger, svc domain.TierService) *TierController {
	return &TierController{
		Logger:  logger,
		Service: svc,
	}
}

// TierRequest is the request body for tier create and update.
type TierRequest struct {
	Name        string `json:"name"`
	MinGuests   int    `json:"min_guests"`
	MaxGuests   int    `json:"max_guests"`
	IsUnlimited bool   `json:"is_unlimited"`
	SortOrder   int    `json:"sort_order"`
}

// Validate implements helpers.Validator.
func (r *TierRequest) Validate() []string {
	var errs []string
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.MinGuests < 0 {
		errs = append(errs, "min_guests must be >= 0")
	}
	if !r.IsUnlimited && r.MaxGuests < r.MinGuests {
		errs = append(errs, "max_guests must be >= min_guests")
	}
	if !r.IsUnlimited && r.MaxGuests <= 0 {
		errs = append(errs, "max_guests must be positive")
	}
	return errs
}

// ListTiers godoc
// @Summary List capacity tiers
// @Tags tiers
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active tiers"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /tiers [get]
func (c *TierController) ListTiers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	tiers, err := c.Service.ListTiers(r.Context(), userID, activeOnly)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tiers)
}

// GetTier godoc
// @Summary Get one capacity tier
// @Tags tiers
// @Produce json
// @Security BearerAuth
// @Param tierID path string true "Tier ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tiers/{tierID} [get]
func (c *TierController) GetTier(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tierID, ok := pathUUID(w, r, "tierID")
	if !ok {
		return
	}
	tier, err := c.Service.GetTier(r.Context(), userID, tierID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tier)
}

// CreateTier godoc
// @Summary Create a capacity tier
// @Description Admin only. Adds a tier to the catalog.
// @Tags tiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.TierRequest true "Tier"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/tiers [post]
func (c *TierController) CreateTier(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req TierRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tier := &domain.CapacityTier{
		Name:        req.Name,
		MinGuests:   req.MinGuests,
		MaxGuests:   req.MaxGuests,
		IsUnlimited: req.IsUnlimited,
		SortOrder:   req.SortOrder,
	}
	if err := c.Service.CreateTier(r.Context(), userID, tier); err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tier)
}

// UpdateTier godoc
// @Summary Update a capacity tier
// @Description Admin only. Activation state is managed via DELETE.
// @Tags tiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tierID path string true "Tier ID (UUID)"
// @Param body body controllers.TierRequest true "Tier"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/tiers/{tierID} [put]
func (c *TierController) UpdateTier(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tierID, ok := pathUUID(w, r, "tierID")
	if !ok {
		return
	}
	var req TierRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tier := &domain.CapacityTier{
		ID:          tierID,
		Name:        req.Name,
		MinGuests:   req.MinGuests,
		MaxGuests:   req.MaxGuests,
		IsUnlimited: req.IsUnlimited,
		SortOrder:   req.SortOrder,
	}
	updated, err := c.Service.UpdateTier(r.Context(), userID, tier)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// DeactivateTierResponse reports lingering references after a soft delete.
type DeactivateTierResponse struct {
	ReferencingEvents    int `json:"referencing_events"`
	ReferencingQuotaRows int `json:"referencing_quota_rows"`
}

// DeactivateTier godoc
// @Summary Soft-deactivate a capacity tier
// @Description Admin only. The tier row is kept; events referencing it are treated as tier-less. The response reports how many events and quota rows still point at the tier.
// @Tags tiers
// @Produce json
// @Security BearerAuth
// @Param tierID path string true "Tier ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/tiers/{tierID} [delete]
func (c *TierController) DeactivateTier(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tierID, ok := pathUUID(w, r, "tierID")
	if !ok {
		return
	}
	events, quotaRows, err := c.Service.DeactivateTier(r.Context(), userID, tierID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeactivateTierResponse{
		ReferencingEvents:    events,
		ReferencingQuotaRows: quotaRows,
	})
}
