package domain

import (
	"context"
	"time"
)

// Event represents a managed event with a guest list.
// TierID may reference a deleted tier; such orphans are treated as
// "no tier" for capacity purposes.
// swagger:model Event
type Event struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	OwnerID   string     `json:"owner_id"`
	TierID    *string    `json:"tier_id,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewEvent returns a new active Event. ID is typically set by the
// repository on create.
func NewEvent(name, ownerID string, tierID *string, date *time.Time, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:      name,
		OwnerID:   ownerID,
		TierID:    tierID,
		Date:      date,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	// CreateWithinQuota inserts the event only if the owner's live event
	// count on the event's tier is still below quota, in one conditional
	// statement. Returns created=false (and no error) when the quota was
	// already consumed by a concurrent create.
	CreateWithinQuota(ctx context.Context, event *Event, quota int) (created bool, err error)
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	// CountByOwnerAndTier is the live "used" figure for the quota ledger.
	CountByOwnerAndTier(ctx context.Context, ownerID, tierID string) (int, error)
	Update(ctx context.Context, eventID string, name *string, date *time.Time, isActive *bool) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines manager-facing event operations, gated by the
// quota ledger.
type EventService interface {
	// CreateEvent gates on the quota ledger. Fails with ErrNoTierSelected,
	// ErrTierInvalid, ErrTierPermissionDenied, or ErrTierQuotaExhausted.
	CreateEvent(ctx context.Context, managerID string, tierID *string, name string, date *time.Time) (*Event, error)
	GetEvent(ctx context.Context, eventID, actorID string) (*Event, error)
	ListMyEvents(ctx context.Context, managerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, actorID string, name *string, date *time.Time, isActive *bool) (*Event, error)
	// DeleteEvent removes the event; under the live-count quota design
	// this frees the owner's quota slot on the event's tier.
	DeleteEvent(ctx context.Context, eventID, actorID string) error

	AssignOrganizerByEmail(ctx context.Context, eventID, email, actorID string) (*EventOrganizer, error)
	RemoveOrganizer(ctx context.Context, eventID, userID, actorID string) error
	ListOrganizers(ctx context.Context, eventID, actorID string) ([]*EventOrganizer, error)
}
