package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestgate/internal/domain"
)

type quotaService struct {
	quotaRepo      domain.QuotaRepository
	tierRepo       domain.TierRepository
	eventRepo      domain.EventRepository
	userService    domain.UserService
	auditService   domain.AuditService
	contextTimeout time.Duration
}

// NewQuotaService creates the quota ledger: the authoritative gate for
// event creation and the read-side quota summary projection.
func NewQuotaService(
	quotaRepo domain.QuotaRepository,
	tierRepo domain.TierRepository,
	eventRepo domain.EventRepository,
	userService domain.UserService,
	auditService domain.AuditService,
	timeout time.Duration,
) domain.QuotaService {
	return &quotaService{
		quotaRepo:      quotaRepo,
		tierRepo:       tierRepo,
		eventRepo:      eventRepo,
		userService:    userService,
		auditService:   auditService,
		contextTimeout: timeout,
	}
}

func (s *quotaService) CheckQuota(ctx context.Context, managerID, tierID string) (*domain.QuotaCheck, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tier, err := s.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.QuotaCheck{Allowed: false, Reason: domain.ErrTierInvalid}, nil
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	if !tier.IsActive {
		return &domain.QuotaCheck{Allowed: false, Reason: domain.ErrTierInvalid}, nil
	}

	quota := 0
	row, err := s.quotaRepo.GetByUserAndTier(ctx, managerID, tierID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get quota: %w", err)
	}
	if row != nil {
		quota = row.Quota
	}
	if quota == 0 {
		return &domain.QuotaCheck{Allowed: false, Reason: domain.ErrTierPermissionDenied}, nil
	}

	// Live count, never a stored counter, so deletions free capacity.
	used, err := s.eventRepo.CountByOwnerAndTier(ctx, managerID, tierID)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if used >= quota {
		return &domain.QuotaCheck{Allowed: false, Reason: domain.ErrTierQuotaExhausted}, nil
	}
	return &domain.QuotaCheck{Allowed: true}, nil
}

func (s *quotaService) SetQuotas(ctx context.Context, actorID, userID string, quotas map[string]int) ([]*domain.TierQuota, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.CapManageQuotas) {
		return nil, domain.ErrForbidden
	}

	// Validate everything before writing anything.
	for tierID, q := range quotas {
		if q < 0 || q > domain.MaxTierQuota {
			return nil, fmt.Errorf("quota for tier %s out of range [0,%d]: %w", tierID, domain.MaxTierQuota, domain.ErrInvalidInput)
		}
		if _, err := s.tierRepo.GetByID(ctx, tierID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrTierInvalid
			}
			return nil, fmt.Errorf("get tier: %w", err)
		}
	}
	if _, err := s.userService.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*domain.TierQuota, 0, len(quotas))
	for tierID, q := range quotas {
		row := &domain.TierQuota{UserID: userID, TierID: tierID, Quota: q, UpdatedAt: now}
		if err := s.quotaRepo.Upsert(ctx, row); err != nil {
			return nil, fmt.Errorf("upsert quota: %w", err)
		}
		out = append(out, row)
	}

	if err := s.auditService.Record(ctx, actorID, domain.AuditUpdateTierQuotas, nil, nil,
		fmt.Sprintf("set %d tier quotas for user %s", len(quotas), userID)); err != nil {
		return nil, fmt.Errorf("record audit: %w", err)
	}
	return out, nil
}

func (s *quotaService) Summary(ctx context.Context, managerID string) (*domain.QuotaSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tiers, err := s.tierRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	rows, err := s.quotaRepo.ListByUserID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	quotaByTier := make(map[string]int, len(rows))
	for _, r := range rows {
		quotaByTier[r.TierID] = r.Quota
	}

	summary := &domain.QuotaSummary{TierQuotas: make([]*domain.TierQuotaSummary, 0, len(tiers))}
	for _, tier := range tiers {
		quota := quotaByTier[tier.ID]
		used, err := s.eventRepo.CountByOwnerAndTier(ctx, managerID, tier.ID)
		if err != nil {
			return nil, fmt.Errorf("count events: %w", err)
		}
		remaining := quota - used
		if remaining < 0 {
			remaining = 0
		}
		summary.TierQuotas = append(summary.TierQuotas, &domain.TierQuotaSummary{
			TierID:    tier.ID,
			TierName:  tier.Name,
			Quota:     quota,
			Used:      used,
			Remaining: remaining,
		})
		summary.TotalQuota += quota
		summary.UsedQuota += used
		summary.RemainingQuota += remaining
	}
	return summary, nil
}
