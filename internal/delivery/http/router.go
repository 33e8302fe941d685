package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"guestgate/internal/delivery/http/controllers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/domain"
)

// Controllers bundles every controller the router mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	Tier    *controllers.TierController
	Quota   *controllers.QuotaController
	Event   *controllers.EventController
	Guest   *controllers.GuestController
	CheckIn *controllers.CheckInController
	Report  *controllers.ReportController
	Audit   *controllers.AuditController
}

// NewRouter initializes the HTTP router with all application routes.
// Role checks live in the services; the router only gates on a valid
// token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)

	// Capacity tiers
	mux.HandleFunc("GET /tiers", auth(c.Tier.ListTiers))
	mux.HandleFunc("GET /tiers/{tierID}", auth(c.Tier.GetTier))
	mux.HandleFunc("POST /admin/tiers", auth(c.Tier.CreateTier))
	mux.HandleFunc("PUT /admin/tiers/{tierID}", auth(c.Tier.UpdateTier))
	mux.HandleFunc("DELETE /admin/tiers/{tierID}", auth(c.Tier.DeactivateTier))

	// Quotas
	mux.HandleFunc("PUT /admin/users/{userID}/quotas", auth(c.Quota.SetQuotas))
	mux.HandleFunc("GET /quotas/me", auth(c.Quota.MySummary))

	// Events
	mux.HandleFunc("POST /events", auth(c.Event.CreateEvent))
	mux.HandleFunc("GET /events", auth(c.Event.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Event.GetEvent))
	mux.HandleFunc("PUT /events/{eventID}", auth(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Event.DeleteEvent))

	// Organizers
	mux.HandleFunc("POST /events/{eventID}/organizers", auth(c.Event.AssignOrganizer))
	mux.HandleFunc("GET /events/{eventID}/organizers", auth(c.Event.ListOrganizers))
	mux.HandleFunc("DELETE /events/{eventID}/organizers/{userID}", auth(c.Event.RemoveOrganizer))

	// Guests
	mux.HandleFunc("POST /events/{eventID}/guests", auth(c.Guest.AddGuest))
	mux.HandleFunc("POST /events/{eventID}/guests/import", auth(c.Guest.ImportGuests))
	mux.HandleFunc("GET /events/{eventID}/guests", auth(c.Guest.ListGuests))
	mux.HandleFunc("PUT /events/{eventID}/guests/{guestID}", auth(c.Guest.UpdateGuest))
	mux.HandleFunc("DELETE /events/{eventID}/guests/{guestID}", auth(c.Guest.DeleteGuest))

	// Check-in
	mux.HandleFunc("POST /checkin", auth(c.CheckIn.CheckIn))

	// Reports and audit
	mux.HandleFunc("GET /admin/reports/system", auth(c.Report.AdminReport))
	mux.HandleFunc("GET /reports/me", auth(c.Report.ManagerReport))
	mux.HandleFunc("GET /events/{eventID}/report", auth(c.Report.GuestsReport))
	mux.HandleFunc("GET /audit", auth(c.Audit.ListAudit))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
