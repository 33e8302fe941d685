package domain

import (
	"context"
	"time"
)

// AuditAction is the closed set of action tags recorded in the trail.
type AuditAction string

const (
	AuditCreateEvent      AuditAction = "create_event"
	AuditUpdateEvent      AuditAction = "update_event"
	AuditDeleteEvent      AuditAction = "delete_event"
	AuditAddGuest         AuditAction = "add_guest"
	AuditUploadGuests     AuditAction = "upload_guests"
	AuditUpdateGuest      AuditAction = "update_guest"
	AuditDeleteGuest      AuditAction = "delete_guest"
	AuditCheckIn          AuditAction = "check_in"
	AuditUpdateTierQuotas AuditAction = "update_tier_quotas"
	AuditCreateTier       AuditAction = "create_tier"
	AuditUpdateTier       AuditAction = "update_tier"
	AuditDeactivateTier   AuditAction = "deactivate_tier"
	AuditAssignOrganizer  AuditAction = "assign_organizer"
	AuditRemoveOrganizer  AuditAction = "remove_organizer"
)

// AuditEntry is one append-only record of a state-changing action.
// Entries are never updated or deleted.
// swagger:model AuditEntry
type AuditEntry struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actor_id"`
	EventID   *string     `json:"event_id,omitempty"`
	GuestID   *string     `json:"guest_id,omitempty"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuditFilter narrows audit reads. Zero-value fields are ignored.
type AuditFilter struct {
	EventID string
	ActorID string
	Action  AuditAction
	From    *time.Time
	To      *time.Time
}

// AuditRepository defines append-only audit storage. There is no update
// or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	// List returns entries matching the filter in chronological order.
	List(ctx context.Context, filter AuditFilter, params PaginationParams) ([]*AuditEntry, int, error)
	// CountByAction aggregates entry counts per action tag for reporting.
	CountByAction(ctx context.Context, filter AuditFilter) (map[AuditAction]int, error)
}

// AuditService records and reads the trail.
type AuditService interface {
	Record(ctx context.Context, actorID string, action AuditAction, eventID, guestID *string, details string) error
	List(ctx context.Context, actorID string, filter AuditFilter, params PaginationParams) ([]*AuditEntry, int, error)
}
