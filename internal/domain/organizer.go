package domain

import (
	"context"
	"errors"
)

// ErrAlreadyAssigned is returned when the organizer is already on the
// event's door team.
var ErrAlreadyAssigned = errors.New("already assigned to this event")

// EventOrganizer is a user assigned to work the door of an event:
// permitted to check guests in but not to manage the event.
// swagger:model EventOrganizer
type EventOrganizer struct {
	EventID  string `json:"event_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
}

// EventOrganizerRepository defines storage for event door-team assignments.
type EventOrganizerRepository interface {
	Add(ctx context.Context, eventID, userID string) error
	Remove(ctx context.Context, eventID, userID string) error
	ListByEventID(ctx context.Context, eventID string) ([]*EventOrganizer, error)
	// IsAssigned reports whether the user is on the event's door team.
	IsAssigned(ctx context.Context, eventID, userID string) (bool, error)
}

// OrganizerAssignmentEmailData carries the fields rendered into the
// organizer-assignment notification email.
type OrganizerAssignmentEmailData struct {
	Email       string
	ManagerName string
	EventName   string
}

// Mailer sends transactional email. Implementations may use SES or a
// no-op sender for development.
type Mailer interface {
	SendOrganizerAssignment(ctx context.Context, data *OrganizerAssignmentEmailData) error
}
