package domain

import (
	"context"
	"time"
)

// Report payloads are fixed record shapes, one per report kind, so
// consumers never introspect dynamic blobs.

// TierUsageLine is one tier's share of an admin report.
type TierUsageLine struct {
	TierID     string `json:"tier_id"`
	TierName   string `json:"tier_name"`
	EventCount int    `json:"event_count"`
}

// AdminReport is the super-administrator's system-wide overview.
// swagger:model AdminReport
type AdminReport struct {
	TotalEvents    int                 `json:"total_events"`
	TotalGuests    int                 `json:"total_guests"`
	TotalCheckedIn int                 `json:"total_checked_in"`
	TierUsage      []*TierUsageLine    `json:"tier_usage"`
	ActionCounts   map[AuditAction]int `json:"action_counts"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// EventManagerReport is one manager's quota position plus their events.
// swagger:model EventManagerReport
type EventManagerReport struct {
	ManagerID   string        `json:"manager_id"`
	Summary     *QuotaSummary `json:"summary"`
	Events      []*Event      `json:"events"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GuestsReport summarizes one event's guest list and arrival state.
// swagger:model GuestsReport
type GuestsReport struct {
	EventID          string              `json:"event_id"`
	EventName        string              `json:"event_name"`
	GuestCount       int                 `json:"guest_count"`
	CheckedInCount   int                 `json:"checked_in_count"`
	CompanionCount   int                 `json:"companion_count"`
	CountsByCategory map[GuestCategory]int `json:"counts_by_category"`
	Guests           []*Guest            `json:"guests"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// ReportService builds the report kinds from live queries and the audit
// trail.
type ReportService interface {
	AdminReport(ctx context.Context, actorID string) (*AdminReport, error)
	ManagerReport(ctx context.Context, managerID string) (*EventManagerReport, error)
	GuestsReport(ctx context.Context, eventID, actorID string) (*GuestsReport, error)
}

// ReportRepository provides the system-wide aggregates the admin report
// needs beyond the per-entity repositories.
type ReportRepository interface {
	CountEvents(ctx context.Context) (int, error)
	CountGuests(ctx context.Context) (total int, checkedIn int, err error)
	TierUsage(ctx context.Context) ([]*TierUsageLine, error)
}
