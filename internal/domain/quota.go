package domain

import (
	"context"
	"time"
)

// MaxTierQuota is the upper bound accepted for a single (user, tier)
// quota value.
const MaxTierQuota = 100

// TierQuota is the number of events of a given tier a manager may create.
// Keyed by (UserID, TierID) with upsert semantics; a missing row means
// quota zero.
// swagger:model TierQuota
type TierQuota struct {
	UserID    string    `json:"user_id"`
	TierID    string    `json:"tier_id"`
	Quota     int       `json:"quota"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuotaCheck is the outcome of a single quota gate evaluation.
type QuotaCheck struct {
	Allowed bool
	// Reason is the gate error when not allowed: ErrTierInvalid,
	// ErrTierPermissionDenied, or ErrTierQuotaExhausted.
	Reason error
}

// TierQuotaSummary is the per-tier line of a manager's quota summary.
// swagger:model TierQuotaSummary
type TierQuotaSummary struct {
	TierID    string `json:"tier_id"`
	TierName  string `json:"tier_name"`
	Quota     int    `json:"quota"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

// QuotaSummary aggregates a manager's allowance across all active tiers.
// Used is always recomputed from live event counts, never cached.
// swagger:model QuotaSummary
type QuotaSummary struct {
	TotalQuota     int                 `json:"total_quota"`
	UsedQuota      int                 `json:"used_quota"`
	RemainingQuota int                 `json:"remaining_quota"`
	TierQuotas     []*TierQuotaSummary `json:"tier_quotas"`
}

// QuotaRepository defines the interface for tier quota storage.
type QuotaRepository interface {
	// Upsert replaces the quota for (userID, tierID); full-replace
	// semantics, never additive.
	Upsert(ctx context.Context, quota *TierQuota) error
	// GetByUserAndTier returns ErrNotFound when no row exists.
	GetByUserAndTier(ctx context.Context, userID, tierID string) (*TierQuota, error)
	ListByUserID(ctx context.Context, userID string) ([]*TierQuota, error)
}

// QuotaService is the authoritative gate for event creation.
type QuotaService interface {
	// CheckQuota answers "may this manager create one more event under
	// this tier?". It never mutates state; event creation must still use
	// the conditional insert to close the read-then-write race.
	CheckQuota(ctx context.Context, managerID, tierID string) (*QuotaCheck, error)
	// SetQuotas bulk-upserts all tier quotas for one user. Values outside
	// [0, MaxTierQuota] are rejected with ErrInvalidInput before any row
	// is written.
	SetQuotas(ctx context.Context, actorID, userID string, quotas map[string]int) ([]*TierQuota, error)
	Summary(ctx context.Context, managerID string) (*QuotaSummary, error)
}
