package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"guestgate/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	organizerRepo  domain.EventOrganizerRepository
	quotaRepo      domain.QuotaRepository
	quotaService   domain.QuotaService
	userService    domain.UserService
	userRepo       domain.UserRepository
	auditService   domain.AuditService
	mailer         domain.Mailer
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService creates the manager-facing event operations, gated by
// the quota ledger.
func NewEventService(
	eventRepo domain.EventRepository,
	organizerRepo domain.EventOrganizerRepository,
	quotaRepo domain.QuotaRepository,
	quotaService domain.QuotaService,
	userService domain.UserService,
	userRepo domain.UserRepository,
	auditService domain.AuditService,
	mailer domain.Mailer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		organizerRepo:  organizerRepo,
		quotaRepo:      quotaRepo,
		quotaService:   quotaService,
		userService:    userService,
		userRepo:       userRepo,
		auditService:   auditService,
		mailer:         mailer,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, managerID string, tierID *string, name string, date *time.Time) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.CapCreateEvents) {
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if tierID == nil || *tierID == "" {
		return nil, domain.ErrNoTierSelected
	}

	check, err := s.quotaService.CheckQuota(ctx, managerID, *tierID)
	if err != nil {
		return nil, fmt.Errorf("check quota: %w", err)
	}
	if !check.Allowed {
		return nil, check.Reason
	}

	quotaRow, err := s.quotaRepo.GetByUserAndTier(ctx, managerID, *tierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTierPermissionDenied
		}
		return nil, fmt.Errorf("get quota: %w", err)
	}

	now := time.Now()
	event := domain.NewEvent(name, managerID, tierID, date, now, now)
	// The insert re-checks the live count against quota in one statement,
	// closing the window between CheckQuota and the write.
	created, err := s.eventRepo.CreateWithinQuota(ctx, event, quotaRow.Quota)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if !created {
		return nil, domain.ErrTierQuotaExhausted
	}

	if err := s.auditService.Record(ctx, managerID, domain.AuditCreateEvent, &event.ID, nil,
		fmt.Sprintf("created event %q on tier %s", event.Name, *tierID)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditCreateEvent, "event_id", event.ID, "err", err)
	}
	return event, nil
}

// authorizeEventAccess loads the event and checks the actor may operate
// on it: owner, assigned organizer (when allowOrganizer), or ownership
// bypass. The check happens before any event state is returned.
func (s *eventService) authorizeEventAccess(ctx context.Context, eventID, actorID string, allowOrganizer bool) (*domain.Event, error) {
	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID == actorID || actor.Can(domain.CapBypassOwnership) {
		return event, nil
	}
	if allowOrganizer {
		assigned, err := s.organizerRepo.IsAssigned(ctx, eventID, actorID)
		if err != nil {
			return nil, fmt.Errorf("check organizer assignment: %w", err)
		}
		if assigned {
			return event, nil
		}
	}
	return nil, domain.ErrForbidden
}

func (s *eventService) GetEvent(ctx context.Context, eventID, actorID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.authorizeEventAccess(ctx, eventID, actorID, true)
}

func (s *eventService) ListMyEvents(ctx context.Context, managerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, actorID string, name *string, date *time.Time, isActive *bool) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorizeEventAccess(ctx, eventID, actorID, false); err != nil {
		return nil, err
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, domain.ErrInvalidInput
	}
	updated, err := s.eventRepo.Update(ctx, eventID, name, date, isActive)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditUpdateEvent, &eventID, nil,
		fmt.Sprintf("updated event %q", updated.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditUpdateEvent, "event_id", eventID, "err", err)
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorizeEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	// Usage is a live count, so this delete frees the owner's quota slot.
	if err := s.auditService.Record(ctx, actorID, domain.AuditDeleteEvent, &eventID, nil,
		fmt.Sprintf("deleted event %q", event.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditDeleteEvent, "event_id", eventID, "err", err)
	}
	return nil
}

func (s *eventService) AssignOrganizerByEmail(ctx context.Context, eventID, email, actorID string) (*domain.EventOrganizer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorizeEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user.ID == event.OwnerID {
		return nil, domain.ErrInvalidInput
	}
	if err := s.organizerRepo.Add(ctx, eventID, user.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyAssigned) {
			return nil, domain.ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("assign organizer: %w", err)
	}

	manager, err := s.userRepo.GetByID(ctx, actorID)
	managerName := "The event manager"
	if err == nil && manager != nil {
		if n := strings.TrimSpace(manager.Name + " " + manager.LastName); n != "" {
			managerName = n
		}
	}
	if err := s.mailer.SendOrganizerAssignment(ctx, &domain.OrganizerAssignmentEmailData{
		Email:       email,
		ManagerName: managerName,
		EventName:   event.Name,
	}); err != nil {
		s.logger.Warn("organizer assignment email failed", "event_id", eventID, "email", email, "err", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditAssignOrganizer, &eventID, nil,
		fmt.Sprintf("assigned organizer %s", email)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditAssignOrganizer, "event_id", eventID, "err", err)
	}
	return &domain.EventOrganizer{
		EventID:  eventID,
		UserID:   user.ID,
		Name:     user.Name,
		LastName: user.LastName,
		Email:    user.Email,
	}, nil
}

func (s *eventService) RemoveOrganizer(ctx context.Context, eventID, userID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorizeEventAccess(ctx, eventID, actorID, false); err != nil {
		return err
	}
	if err := s.organizerRepo.Remove(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove organizer: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditRemoveOrganizer, &eventID, nil,
		fmt.Sprintf("removed organizer %s", userID)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditRemoveOrganizer, "event_id", eventID, "err", err)
	}
	return nil
}

func (s *eventService) ListOrganizers(ctx context.Context, eventID, actorID string) ([]*domain.EventOrganizer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorizeEventAccess(ctx, eventID, actorID, false); err != nil {
		return nil, err
	}
	organizers, err := s.organizerRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list organizers: %w", err)
	}
	if organizers == nil {
		organizers = []*domain.EventOrganizer{}
	}
	return organizers, nil
}
