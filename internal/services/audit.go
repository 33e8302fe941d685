package services

import (
	"context"
	"fmt"
	"time"

	"guestgate/internal/domain"
)

type auditService struct {
	auditRepo      domain.AuditRepository
	userService    domain.UserService
	contextTimeout time.Duration
}

// NewAuditService creates the append-only audit trail.
func NewAuditService(auditRepo domain.AuditRepository, userService domain.UserService, timeout time.Duration) domain.AuditService {
	return &auditService{
		auditRepo:      auditRepo,
		userService:    userService,
		contextTimeout: timeout,
	}
}

func (s *auditService) Record(ctx context.Context, actorID string, action domain.AuditAction, eventID, guestID *string, details string) error {
	entry := &domain.AuditEntry{
		ActorID:   actorID,
		EventID:   eventID,
		GuestID:   guestID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, actorID string, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !actor.Can(domain.CapViewAudit) {
		return nil, 0, domain.ErrForbidden
	}
	// Managers without the bypass only see their own actions.
	if !actor.Can(domain.CapBypassOwnership) {
		filter.ActorID = actorID
	}
	entries, total, err := s.auditRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, total, nil
}
