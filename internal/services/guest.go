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

type guestService struct {
	guestRepo      domain.GuestRepository
	eventRepo      domain.EventRepository
	tierRepo       domain.TierRepository
	organizerRepo  domain.EventOrganizerRepository
	userService    domain.UserService
	auditService   domain.AuditService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewGuestService creates guest-list management and the check-in state
// machine.
func NewGuestService(
	guestRepo domain.GuestRepository,
	eventRepo domain.EventRepository,
	tierRepo domain.TierRepository,
	organizerRepo domain.EventOrganizerRepository,
	userService domain.UserService,
	auditService domain.AuditService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.GuestService {
	return &guestService{
		guestRepo:      guestRepo,
		eventRepo:      eventRepo,
		tierRepo:       tierRepo,
		organizerRepo:  organizerRepo,
		userService:    userService,
		auditService:   auditService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func validateGuestRecord(rec *domain.GuestRecord) error {
	if rec == nil {
		return domain.ErrInvalidInput
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return domain.ErrInvalidInput
	}
	if rec.Category == "" {
		rec.Category = domain.GuestCategoryRegular
	}
	if !domain.ValidGuestCategory(rec.Category) {
		return domain.ErrInvalidInput
	}
	if rec.Companions < 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// eventCapacity resolves the event's guest ceiling. Returns unlimited
// for tier-less events, unlimited tiers, and orphaned tier references.
func (s *guestService) eventCapacity(ctx context.Context, event *domain.Event) (maxGuests int, unlimited bool, err error) {
	if event.TierID == nil || *event.TierID == "" {
		return 0, true, nil
	}
	tier, err := s.tierRepo.GetByID(ctx, *event.TierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Orphaned tier reference: treated as no tier.
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("get tier: %w", err)
	}
	if tier.IsUnlimited {
		return 0, true, nil
	}
	return tier.MaxGuests, false, nil
}

// authorizeGuestManagement checks the actor owns the event or holds the
// ownership bypass, before any guest data is read.
func (s *guestService) authorizeGuestManagement(ctx context.Context, eventID, actorID string) (*domain.Event, error) {
	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.CapManageGuests) {
		return nil, domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actorID && !actor.Can(domain.CapBypassOwnership) {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// insertGuest creates the guest, drawing fresh access codes until the
// global unique constraint is satisfied. Codes are never recycled, so a
// collision just means another draw.
func (s *guestService) insertGuest(ctx context.Context, guest *domain.Guest, maxGuests int, unlimited bool) (created bool, err error) {
	for attempt := 0; attempt < accessCodeMaxRetries; attempt++ {
		code, err := GenerateAccessCode()
		if err != nil {
			return false, fmt.Errorf("generate access code: %w", err)
		}
		guest.AccessCode = code
		if unlimited {
			err = s.guestRepo.Create(ctx, guest)
			if err == nil {
				return true, nil
			}
		} else {
			created, err = s.guestRepo.CreateWithinCapacity(ctx, guest, maxGuests)
			if err == nil {
				return created, nil
			}
		}
		if errors.Is(err, domain.ErrAccessCodeTaken) {
			continue
		}
		return false, fmt.Errorf("create guest: %w", err)
	}
	return false, fmt.Errorf("create guest: %w after %d attempts", domain.ErrAccessCodeTaken, accessCodeMaxRetries)
}

func (s *guestService) AddGuest(ctx context.Context, eventID, actorID string, rec *domain.GuestRecord) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorizeGuestManagement(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}
	if err := validateGuestRecord(rec); err != nil {
		return nil, err
	}
	maxGuests, unlimited, err := s.eventCapacity(ctx, event)
	if err != nil {
		return nil, err
	}
	if !unlimited {
		count, err := s.guestRepo.CountByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count guests: %w", err)
		}
		if count >= maxGuests {
			return nil, domain.ErrEventFull
		}
	}

	now := time.Now()
	guest := &domain.Guest{
		EventID:    eventID,
		Name:       rec.Name,
		Phone:      rec.Phone,
		Category:   rec.Category,
		Companions: rec.Companions,
		Notes:      rec.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.insertGuest(ctx, guest, maxGuests, unlimited)
	if err != nil {
		return nil, err
	}
	if !created {
		// The event filled up between the count and the insert.
		return nil, domain.ErrEventFull
	}

	if err := s.auditService.Record(ctx, actorID, domain.AuditAddGuest, &eventID, &guest.ID,
		fmt.Sprintf("added guest %q", guest.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditAddGuest, "event_id", eventID, "err", err)
	}
	return guest, nil
}

func (s *guestService) ImportGuests(ctx context.Context, eventID, actorID string, recs []*domain.GuestRecord) (*domain.ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorizeGuestManagement(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if err := validateGuestRecord(rec); err != nil {
			return nil, err
		}
	}
	maxGuests, unlimited, err := s.eventCapacity(ctx, event)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Created: []*domain.Guest{}}
	for _, rec := range recs {
		now := time.Now()
		guest := &domain.Guest{
			EventID:    eventID,
			Name:       rec.Name,
			Phone:      rec.Phone,
			Category:   rec.Category,
			Companions: rec.Companions,
			Notes:      rec.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		created, err := s.insertGuest(ctx, guest, maxGuests, unlimited)
		if err != nil {
			return nil, err
		}
		if !created {
			// At capacity: drop the rest of the batch silently and report
			// the count. An import never fails outright for being over.
			result.TruncatedCount = len(recs) - len(result.Created)
			break
		}
		result.Created = append(result.Created, guest)
	}

	if err := s.auditService.Record(ctx, actorID, domain.AuditUploadGuests, &eventID, nil,
		fmt.Sprintf("imported %d guests (%d truncated)", len(result.Created), result.TruncatedCount)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditUploadGuests, "event_id", eventID, "err", err)
	}
	return result, nil
}

func (s *guestService) ListGuests(ctx context.Context, eventID, actorID string) ([]*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

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
	// Organizers see the list too; they work the door from it.
	if event.OwnerID != actorID && !actor.Can(domain.CapBypassOwnership) {
		assigned, err := s.organizerRepo.IsAssigned(ctx, eventID, actorID)
		if err != nil {
			return nil, fmt.Errorf("check organizer assignment: %w", err)
		}
		if !assigned {
			return nil, domain.ErrForbidden
		}
	}
	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	if guests == nil {
		guests = []*domain.Guest{}
	}
	return guests, nil
}

func (s *guestService) UpdateGuest(ctx context.Context, eventID, guestID, actorID string, rec *domain.GuestRecord) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorizeGuestManagement(ctx, eventID, actorID); err != nil {
		return nil, err
	}
	if err := validateGuestRecord(rec); err != nil {
		return nil, err
	}
	guest, err := s.guestRepo.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	if guest.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	updated, err := s.guestRepo.Update(ctx, guestID, rec)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update guest: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditUpdateGuest, &eventID, &guestID,
		fmt.Sprintf("updated guest %q", updated.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditUpdateGuest, "guest_id", guestID, "err", err)
	}
	return updated, nil
}

func (s *guestService) DeleteGuest(ctx context.Context, eventID, guestID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorizeGuestManagement(ctx, eventID, actorID); err != nil {
		return err
	}
	guest, err := s.guestRepo.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get guest: %w", err)
	}
	if guest.EventID != eventID {
		return domain.ErrNotFound
	}
	if err := s.guestRepo.Delete(ctx, guestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete guest: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditDeleteGuest, &eventID, &guestID,
		fmt.Sprintf("deleted guest %q", guest.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditDeleteGuest, "guest_id", guestID, "err", err)
	}
	return nil
}

// looksLikeAccessCode reports whether the input matches the code shape
// (grouped restricted alphabet) as opposed to a guest UUID.
func looksLikeAccessCode(s string) bool {
	if len(s) != accessCodeLength+accessCodeLength/accessCodeGroupSize-1 {
		return false
	}
	for i, c := range s {
		if (i+1)%(accessCodeGroupSize+1) == 0 {
			if c != '-' {
				return false
			}
			continue
		}
		if !strings.ContainsRune(accessCodeAlphabet, c) {
			return false
		}
	}
	return true
}

func (s *guestService) CheckIn(ctx context.Context, codeOrGuestID, actorID, eventHint string) (*domain.CheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.CapCheckIn) {
		return nil, domain.ErrForbidden
	}

	input := NormalizeAccessCode(codeOrGuestID)
	var guest *domain.Guest
	if looksLikeAccessCode(input) {
		guest, err = s.guestRepo.GetByAccessCode(ctx, input)
	} else {
		guest, err = s.guestRepo.GetByID(ctx, codeOrGuestID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.CheckInResult{Kind: domain.CheckInInvalid, Message: "code not found"}, nil
		}
		return nil, fmt.Errorf("resolve guest: %w", err)
	}
	if eventHint != "" && guest.EventID != eventHint {
		return &domain.CheckInResult{Kind: domain.CheckInInvalid, Message: "code not valid for this event"}, nil
	}

	// Authorization runs before the state read so unauthorized callers
	// learn nothing about the guest's check-in status.
	event, err := s.eventRepo.GetByID(ctx, guest.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.CheckInResult{Kind: domain.CheckInInvalid, Message: "code not found"}, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actorID && !actor.Can(domain.CapBypassOwnership) {
		assigned, err := s.organizerRepo.IsAssigned(ctx, guest.EventID, actorID)
		if err != nil {
			return nil, fmt.Errorf("check organizer assignment: %w", err)
		}
		if !assigned {
			return nil, domain.ErrForbidden
		}
	}

	now := time.Now()
	// Single conditional update keyed on checked_in = FALSE; the affected
	// row count decides the winner under concurrent scans.
	updated, err := s.guestRepo.CheckIn(ctx, guest.ID, actorID, now)
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	if !updated {
		// Someone beat us to it (or this is a repeat scan). Report the
		// original stamp; repeated duplicates stay deterministic.
		current, err := s.guestRepo.GetByID(ctx, guest.ID)
		if err != nil {
			return nil, fmt.Errorf("get guest: %w", err)
		}
		return &domain.CheckInResult{
			Kind:        domain.CheckInDuplicate,
			Guest:       current,
			Message:     "guest already checked in",
			CheckedInAt: current.CheckedInAt,
			CheckedInBy: current.CheckedInBy,
		}, nil
	}

	guest.CheckedIn = true
	guest.CheckedInAt = &now
	guest.CheckedInBy = &actorID
	if err := s.auditService.Record(ctx, actorID, domain.AuditCheckIn, &guest.EventID, &guest.ID,
		fmt.Sprintf("checked in guest %q", guest.Name)); err != nil {
		s.logger.Warn("audit record failed", "action", domain.AuditCheckIn, "guest_id", guest.ID, "err", err)
	}
	return &domain.CheckInResult{
		Kind:        domain.CheckInSuccess,
		Guest:       guest,
		Message:     "checked in",
		CheckedInAt: &now,
		CheckedInBy: &actorID,
	}, nil
}
