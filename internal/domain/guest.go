package domain

import (
	"context"
	"time"
)

// GuestCategory is the closed set of guest classifications.
type GuestCategory string

const (
	GuestCategoryRegular GuestCategory = "regular"
	GuestCategoryVIP     GuestCategory = "vip"
	GuestCategoryStaff   GuestCategory = "staff"
	GuestCategoryPress   GuestCategory = "press"
)

// ValidGuestCategory reports whether c is one of the known categories.
func ValidGuestCategory(c GuestCategory) bool {
	switch c {
	case GuestCategoryRegular, GuestCategoryVIP, GuestCategoryStaff, GuestCategoryPress:
		return true
	}
	return false
}

// Guest is one entry on an event's guest list. AccessCode is globally
// unique across all guests and never recycled. CheckedIn flips one way:
// once true it never goes back.
// swagger:model Guest
type Guest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	Name        string        `json:"name"`
	Phone       *string       `json:"phone,omitempty"`
	Category    GuestCategory `json:"category"`
	Companions  int           `json:"companions"`
	Notes       string        `json:"notes"`
	AccessCode  string        `json:"access_code"`
	CheckedIn   bool          `json:"checked_in"`
	CheckedInAt *time.Time    `json:"checked_in_at,omitempty"`
	CheckedInBy *string       `json:"checked_in_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// GuestRecord is one incoming guest row (single add or import).
type GuestRecord struct {
	Name       string        `json:"name"`
	Phone      *string       `json:"phone,omitempty"`
	Category   GuestCategory `json:"category"`
	Companions int           `json:"companions"`
	Notes      string        `json:"notes"`
}

// ImportResult reports the outcome of a bulk guest import. Rows beyond
// the event's tier capacity are dropped, never an error.
// swagger:model ImportResult
type ImportResult struct {
	Created        []*Guest `json:"created"`
	TruncatedCount int      `json:"truncated_count"`
}

// CheckInKind is the outcome class of a check-in attempt. There are
// exactly three; a duplicate scan is a legitimate outcome, not an error.
type CheckInKind string

const (
	CheckInSuccess   CheckInKind = "SUCCESS"
	CheckInDuplicate CheckInKind = "DUPLICATE"
	CheckInInvalid   CheckInKind = "INVALID"
)

// CheckInResult is everything door staff need to decide on the spot:
// on DUPLICATE it carries the original check-in time and actor.
// swagger:model CheckInResult
type CheckInResult struct {
	Kind        CheckInKind `json:"kind"`
	Guest       *Guest      `json:"guest,omitempty"`
	Message     string      `json:"message"`
	CheckedInAt *time.Time  `json:"checked_in_at,omitempty"`
	CheckedInBy *string     `json:"checked_in_by,omitempty"`
}

// GuestRepository defines the interface for guest storage.
type GuestRepository interface {
	// Create inserts the guest with no capacity bound (unlimited or
	// tier-less events).
	Create(ctx context.Context, guest *Guest) error
	// CreateWithinCapacity inserts the guest only if the event's live
	// guest count is still below maxGuests, in one conditional statement.
	// Returns created=false (and no error) when the event filled up
	// concurrently.
	CreateWithinCapacity(ctx context.Context, guest *Guest, maxGuests int) (created bool, err error)
	GetByID(ctx context.Context, id string) (*Guest, error)
	// GetByAccessCode matches codes case-insensitively (stored uppercase).
	GetByAccessCode(ctx context.Context, code string) (*Guest, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Guest, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	Update(ctx context.Context, guestID string, rec *GuestRecord) (*Guest, error)
	Delete(ctx context.Context, id string) error
	// CheckIn performs the atomic pending-to-checked-in transition:
	// a single conditional update keyed on checked_in = FALSE. Returns
	// updated=false when the guest was already checked in; the caller
	// re-reads the row to report the original timestamp and actor.
	CheckIn(ctx context.Context, guestID, actorID string, at time.Time) (updated bool, err error)
}

// GuestService defines guest-list management and the check-in state machine.
type GuestService interface {
	// AddGuest hard-rejects with ErrEventFull when the event's tier
	// capacity is reached.
	AddGuest(ctx context.Context, eventID, actorID string, rec *GuestRecord) (*Guest, error)
	// ImportGuests truncates silently at capacity and reports how many
	// rows were dropped.
	ImportGuests(ctx context.Context, eventID, actorID string, recs []*GuestRecord) (*ImportResult, error)
	ListGuests(ctx context.Context, eventID, actorID string) ([]*Guest, error)
	UpdateGuest(ctx context.Context, eventID, guestID, actorID string, rec *GuestRecord) (*Guest, error)
	DeleteGuest(ctx context.Context, eventID, guestID, actorID string) error
	// CheckIn resolves codeOrGuestID (access code first, guest ID as
	// fallback), authorizes the actor against the guest's event, and
	// resolves the scan to exactly one of SUCCESS, DUPLICATE, or INVALID.
	// eventHint, when non-empty, restricts the code to that event.
	CheckIn(ctx context.Context, codeOrGuestID, actorID, eventHint string) (*CheckInResult, error)
}
