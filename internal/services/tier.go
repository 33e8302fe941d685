package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestgate/internal/domain"
)

type tierService struct {
	tierRepo       domain.TierRepository
	userService    domain.UserService
	auditService   domain.AuditService
	contextTimeout time.Duration
}

// NewTierService creates the admin-managed capacity tier catalog.
func NewTierService(
	tierRepo domain.TierRepository,
	userService domain.UserService,
	auditService domain.AuditService,
	timeout time.Duration,
) domain.TierService {
	return &tierService{
		tierRepo:       tierRepo,
		userService:    userService,
		auditService:   auditService,
		contextTimeout: timeout,
	}
}

func (s *tierService) requireTierAdmin(ctx context.Context, actorID string) error {
	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Can(domain.CapManageTiers) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *tierService) ListTiers(ctx context.Context, actorID string, activeOnly bool) ([]*domain.CapacityTier, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Any authenticated user may list tiers; managers need them to pick
	// one at event creation.
	if _, err := s.userService.ResolveActor(ctx, actorID); err != nil {
		return nil, err
	}
	tiers, err := s.tierRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	if tiers == nil {
		tiers = []*domain.CapacityTier{}
	}
	return tiers, nil
}

func (s *tierService) GetTier(ctx context.Context, actorID, tierID string) (*domain.CapacityTier, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userService.ResolveActor(ctx, actorID); err != nil {
		return nil, err
	}
	tier, err := s.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return tier, nil
}

func (s *tierService) CreateTier(ctx context.Context, actorID string, tier *domain.CapacityTier) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireTierAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := tier.Validate(); err != nil {
		return err
	}
	now := time.Now()
	tier.IsActive = true
	tier.CreatedAt = now
	tier.UpdatedAt = now
	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return fmt.Errorf("create tier: %w", err)
	}
	return s.auditService.Record(ctx, actorID, domain.AuditCreateTier, nil, nil,
		fmt.Sprintf("created tier %q", tier.Name))
}

func (s *tierService) UpdateTier(ctx context.Context, actorID string, tier *domain.CapacityTier) (*domain.CapacityTier, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireTierAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := tier.Validate(); err != nil {
		return nil, err
	}
	current, err := s.tierRepo.GetByID(ctx, tier.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	tier.IsActive = current.IsActive
	tier.CreatedAt = current.CreatedAt
	tier.UpdatedAt = time.Now()
	if err := s.tierRepo.Update(ctx, tier); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update tier: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditUpdateTier, nil, nil,
		fmt.Sprintf("updated tier %q", tier.Name)); err != nil {
		return nil, err
	}
	return tier, nil
}

func (s *tierService) DeactivateTier(ctx context.Context, actorID, tierID string) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireTierAdmin(ctx, actorID); err != nil {
		return 0, 0, err
	}
	// References are tolerated, not fatal: events keep their tier-id and
	// are treated as tier-less once the tier is gone. The counts let the
	// caller warn the admin.
	events, quotaRows, err := s.tierRepo.CountReferences(ctx, tierID)
	if err != nil {
		return 0, 0, fmt.Errorf("count tier references: %w", err)
	}
	if err := s.tierRepo.SetActive(ctx, tierID, false); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, 0, domain.ErrNotFound
		}
		return 0, 0, fmt.Errorf("deactivate tier: %w", err)
	}
	if err := s.auditService.Record(ctx, actorID, domain.AuditDeactivateTier, nil, nil,
		fmt.Sprintf("deactivated tier %s (%d events, %d quota rows reference it)", tierID, events, quotaRows)); err != nil {
		return 0, 0, err
	}
	return events, quotaRows, nil
}
