package domain

import (
	"context"
	"time"
)

// CapacityTier is a named guest-capacity band (e.g. 0-50, 51-100,
// unlimited). Events are assigned a tier; the tier's MaxGuests caps the
// event's guest list unless IsUnlimited is set.
// swagger:model CapacityTier
type CapacityTier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MinGuests   int       `json:"min_guests"`
	MaxGuests   int       `json:"max_guests"`
	IsUnlimited bool      `json:"is_unlimited"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCapacityTier returns an active CapacityTier with the given fields.
// ID is typically set by the repository on create.
func NewCapacityTier(name string, minGuests, maxGuests int, isUnlimited bool, sortOrder int, createdAt, updatedAt time.Time) *CapacityTier {
	return &CapacityTier{
		Name:        name,
		MinGuests:   minGuests,
		MaxGuests:   maxGuests,
		IsUnlimited: isUnlimited,
		IsActive:    true,
		SortOrder:   sortOrder,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Validate checks the tier invariant: name non-empty, and for bounded
// tiers MaxGuests >= MinGuests >= 0.
func (t *CapacityTier) Validate() error {
	if t.Name == "" {
		return ErrInvalidInput
	}
	if t.MinGuests < 0 {
		return ErrInvalidInput
	}
	if !t.IsUnlimited && (t.MaxGuests <= 0 || t.MaxGuests < t.MinGuests) {
		return ErrInvalidInput
	}
	return nil
}

// TierRepository defines the interface for capacity tier storage.
type TierRepository interface {
	Create(ctx context.Context, tier *CapacityTier) error
	GetByID(ctx context.Context, id string) (*CapacityTier, error)
	// List returns tiers ordered by sort_order. When activeOnly is true,
	// deactivated tiers are excluded.
	List(ctx context.Context, activeOnly bool) ([]*CapacityTier, error)
	Update(ctx context.Context, tier *CapacityTier) error
	// SetActive soft-activates or soft-deactivates a tier.
	SetActive(ctx context.Context, id string, active bool) error
	// CountReferences returns how many events and quota rows still point
	// at the tier. Used to warn before deactivation; references are
	// tolerated, never a hard error.
	CountReferences(ctx context.Context, id string) (events int, quotaRows int, err error)
}

// TierService defines the admin-facing tier catalog operations.
type TierService interface {
	ListTiers(ctx context.Context, actorID string, activeOnly bool) ([]*CapacityTier, error)
	GetTier(ctx context.Context, actorID, tierID string) (*CapacityTier, error)
	CreateTier(ctx context.Context, actorID string, tier *CapacityTier) error
	UpdateTier(ctx context.Context, actorID string, tier *CapacityTier) (*CapacityTier, error)
	// DeactivateTier soft-disables the tier and reports how many events
	// and quota rows still reference it.
	DeactivateTier(ctx context.Context, actorID, tierID string) (events int, quotaRows int, err error)
}
