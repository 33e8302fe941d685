package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"guestgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaService_CheckQuota(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	tests := []struct {
		name       string
		setup      func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo)
		tierID     string
		wantAllow  bool
		wantReason error
	}{
		{
			name:       "unknown tier",
			setup:      func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {},
			tierID:     "tier-missing",
			wantAllow:  false,
			wantReason: domain.ErrTierInvalid,
		},
		{
			name: "deactivated tier",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, false)
				quotas.setQuota("mgr-1", "tier-1", 5)
			},
			tierID:     "tier-1",
			wantAllow:  false,
			wantReason: domain.ErrTierInvalid,
		},
		{
			name: "no quota row means zero",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, true)
			},
			tierID:     "tier-1",
			wantAllow:  false,
			wantReason: domain.ErrTierPermissionDenied,
		},
		{
			name: "explicit zero quota",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, true)
				quotas.setQuota("mgr-1", "tier-1", 0)
			},
			tierID:     "tier-1",
			wantAllow:  false,
			wantReason: domain.ErrTierPermissionDenied,
		},
		{
			name: "quota exhausted",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, true)
				quotas.setQuota("mgr-1", "tier-1", 2)
				tierID := "tier-1"
				events.addEvent("ev-a", "mgr-1", &tierID)
				events.addEvent("ev-b", "mgr-1", &tierID)
			},
			tierID:     "tier-1",
			wantAllow:  false,
			wantReason: domain.ErrTierQuotaExhausted,
		},
		{
			name: "allowed under quota",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, true)
				quotas.setQuota("mgr-1", "tier-1", 2)
				tierID := "tier-1"
				events.addEvent("ev-a", "mgr-1", &tierID)
			},
			tierID:    "tier-1",
			wantAllow: true,
		},
		{
			name: "other managers' events do not count",
			setup: func(tiers *fakeTierRepo, quotas *fakeQuotaRepo, events *fakeEventRepo) {
				tiers.addTier("tier-1", 50, false, true)
				quotas.setQuota("mgr-1", "tier-1", 1)
				tierID := "tier-1"
				events.addEvent("ev-a", "mgr-2", &tierID)
			},
			tierID:    "tier-1",
			wantAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers := newFakeTierRepo()
			quotas := newFakeQuotaRepo()
			events := newFakeEventRepo()
			tt.setup(tiers, quotas, events)
			users := newFakeUserService()
			users.addUser("mgr-1", domain.RoleManager)
			svc := NewQuotaService(quotas, tiers, events, users, newFakeAuditService(), timeout)

			check, err := svc.CheckQuota(ctx, "mgr-1", tt.tierID)
			require.NoError(t, err)
			require.NotNil(t, check)
			assert.Equal(t, tt.wantAllow, check.Allowed)
			if tt.wantReason != nil {
				require.True(t, errors.Is(check.Reason, tt.wantReason))
			} else {
				assert.Nil(t, check.Reason)
			}
		})
	}
}

func TestQuotaService_SetQuotas(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	setup := func() (*fakeTierRepo, *fakeQuotaRepo, *fakeUserService, *fakeAuditService, domain.QuotaService) {
		tiers := newFakeTierRepo()
		tiers.addTier("tier-1", 50, false, true)
		tiers.addTier("tier-2", 200, false, true)
		quotas := newFakeQuotaRepo()
		users := newFakeUserService()
		users.addUser("admin-1", domain.RoleAdmin)
		users.addUser("mgr-1", domain.RoleManager)
		audit := newFakeAuditService()
		svc := NewQuotaService(quotas, tiers, newFakeEventRepo(), users, audit, timeout)
		return tiers, quotas, users, audit, svc
	}

	t.Run("success upserts and audits", func(t *testing.T) {
		_, quotas, _, audit, svc := setup()
		out, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-1": 5, "tier-2": 3})
		require.NoError(t, err)
		require.Len(t, out, 2)
		got, err := quotas.GetByUserAndTier(ctx, "mgr-1", "tier-1")
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quota)
		assert.Equal(t, 1, audit.countByAction(domain.AuditUpdateTierQuotas))
	})

	t.Run("replaces previous value outright", func(t *testing.T) {
		_, quotas, _, _, svc := setup()
		quotas.setQuota("mgr-1", "tier-1", 10)
		_, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-1": 3})
		require.NoError(t, err)
		got, err := quotas.GetByUserAndTier(ctx, "mgr-1", "tier-1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Quota)
	})

	t.Run("zero revokes without deleting the row", func(t *testing.T) {
		_, quotas, _, _, svc := setup()
		quotas.setQuota("mgr-1", "tier-1", 10)
		_, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-1": 0})
		require.NoError(t, err)
		got, err := quotas.GetByUserAndTier(ctx, "mgr-1", "tier-1")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quota)
	})

	t.Run("manager cannot set quotas", func(t *testing.T) {
		_, _, _, _, svc := setup()
		_, err := svc.SetQuotas(ctx, "mgr-1", "mgr-1", map[string]int{"tier-1": 5})
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("out of range rejects before any write", func(t *testing.T) {
		_, quotas, _, _, svc := setup()
		_, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-1": 5, "tier-2": domain.MaxTierQuota + 50})
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
		_, err = quotas.GetByUserAndTier(ctx, "mgr-1", "tier-1")
		require.True(t, errors.Is(err, domain.ErrNotFound), "no row should have been written")
	})

	t.Run("negative quota rejected", func(t *testing.T) {
		_, _, _, _, svc := setup()
		_, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-1": -1})
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		_, _, _, _, svc := setup()
		_, err := svc.SetQuotas(ctx, "admin-1", "mgr-1", map[string]int{"tier-missing": 5})
		require.True(t, errors.Is(err, domain.ErrTierInvalid))
	})

	t.Run("unknown target user rejected", func(t *testing.T) {
		_, _, _, _, svc := setup()
		_, err := svc.SetQuotas(ctx, "admin-1", "user-missing", map[string]int{"tier-1": 5})
		require.True(t, errors.Is(err, domain.ErrUserNotFound))
	})
}

func TestQuotaService_Summary(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	tiers := newFakeTierRepo()
	tiers.addTier("tier-1", 50, false, true)
	tiers.addTier("tier-2", 200, false, true)
	tiers.addTier("tier-3", 0, true, false) // deactivated, excluded
	quotas := newFakeQuotaRepo()
	quotas.setQuota("mgr-1", "tier-1", 5)
	quotas.setQuota("mgr-1", "tier-2", 2)
	events := newFakeEventRepo()
	t1, t2 := "tier-1", "tier-2"
	events.addEvent("ev-a", "mgr-1", &t1)
	events.addEvent("ev-b", "mgr-1", &t1)
	events.addEvent("ev-c", "mgr-1", &t2)
	events.addEvent("ev-d", "mgr-2", &t1) // other manager, not counted

	users := newFakeUserService()
	users.addUser("mgr-1", domain.RoleManager)
	svc := NewQuotaService(quotas, tiers, events, users, newFakeAuditService(), timeout)

	summary, err := svc.Summary(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, summary.TierQuotas, 2)
	assert.Equal(t, 7, summary.TotalQuota)
	assert.Equal(t, 3, summary.UsedQuota)
	assert.Equal(t, 4, summary.RemainingQuota)

	byTier := map[string]*domain.TierQuotaSummary{}
	for _, line := range summary.TierQuotas {
		byTier[line.TierID] = line
	}
	require.Contains(t, byTier, "tier-1")
	assert.Equal(t, 5, byTier["tier-1"].Quota)
	assert.Equal(t, 2, byTier["tier-1"].Used)
	assert.Equal(t, 3, byTier["tier-1"].Remaining)
	require.Contains(t, byTier, "tier-2")
	assert.Equal(t, 1, byTier["tier-2"].Remaining)
}
