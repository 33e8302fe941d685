package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"guestgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guestFixture struct {
	guests     *fakeGuestRepo
	events     *fakeEventRepo
	tiers      *fakeTierRepo
	organizers *fakeOrganizerRepo
	users      *fakeUserService
	audit      *fakeAuditService
	svc        domain.GuestService
}

func newGuestFixture() *guestFixture {
	f := &guestFixture{
		guests:     newFakeGuestRepo(),
		events:     newFakeEventRepo(),
		tiers:      newFakeTierRepo(),
		organizers: newFakeOrganizerRepo(),
		users:      newFakeUserService(),
		audit:      newFakeAuditService(),
	}
	f.users.addUser("mgr-1", domain.RoleManager)
	f.users.addUser("mgr-2", domain.RoleManager)
	f.users.addUser("admin-1", domain.RoleAdmin)
	f.users.addUser("org-1", domain.RoleOrganizer)
	f.svc = NewGuestService(f.guests, f.events, f.tiers, f.organizers, f.users, f.audit, testLogger(), 5*time.Second)
	return f
}

// addCappedEvent wires an event owned by mgr-1 on a tier capped at max.
func (f *guestFixture) addCappedEvent(eventID string, max int) {
	tierID := "tier-" + eventID
	f.tiers.addTier(tierID, max, false, true)
	f.events.addEvent(eventID, "mgr-1", &tierID)
}

func TestGuestService_AddGuest(t *testing.T) {
	ctx := context.Background()

	t.Run("success assigns access code", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		guest, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", guest.Name)
		assert.Equal(t, domain.GuestCategoryRegular, guest.Category)
		assert.Regexp(t, "^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$", guest.AccessCode)
		assert.False(t, guest.CheckedIn)
		assert.Equal(t, 1, f.audit.countByAction(domain.AuditAddGuest))
	})

	t.Run("event full hard-rejects", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 1)
		_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada"})
		require.NoError(t, err)
		_, err = f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Grace"})
		require.True(t, errors.Is(err, domain.ErrEventFull))
	})

	t.Run("unlimited tier never fills", func(t *testing.T) {
		f := newGuestFixture()
		tierID := "tier-unlim"
		f.tiers.addTier(tierID, 0, true, true)
		f.events.addEvent("ev-1", "mgr-1", &tierID)
		for i := 0; i < 25; i++ {
			_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: fmt.Sprintf("g%d", i)})
			require.NoError(t, err)
		}
	})

	t.Run("orphaned tier reference treated as unlimited", func(t *testing.T) {
		f := newGuestFixture()
		gone := "tier-deleted"
		f.events.addEvent("ev-1", "mgr-1", &gone)
		_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada"})
		require.NoError(t, err)
	})

	t.Run("tier-less event unlimited", func(t *testing.T) {
		f := newGuestFixture()
		f.events.addEvent("ev-1", "mgr-1", nil)
		_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada"})
		require.NoError(t, err)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-2", &domain.GuestRecord{Name: "Ada"})
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("organizer cannot manage guests", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		require.NoError(t, f.organizers.Add(ctx, "ev-1", "org-1"))
		_, err := f.svc.AddGuest(ctx, "ev-1", "org-1", &domain.GuestRecord{Name: "Ada"})
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("invalid record", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		_, err := f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: ""})
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
		_, err = f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada", Companions: -1})
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
		_, err = f.svc.AddGuest(ctx, "ev-1", "mgr-1", &domain.GuestRecord{Name: "Ada", Category: "celebrity"})
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestGuestService_ImportGuests(t *testing.T) {
	ctx := context.Background()

	recs := func(n int) []*domain.GuestRecord {
		out := make([]*domain.GuestRecord, n)
		for i := range out {
			out[i] = &domain.GuestRecord{Name: fmt.Sprintf("guest %d", i)}
		}
		return out
	}

	t.Run("fits under capacity", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		result, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", recs(6))
		require.NoError(t, err)
		assert.Len(t, result.Created, 6)
		assert.Equal(t, 0, result.TruncatedCount)
	})

	t.Run("truncates at capacity without error", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		result, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", recs(12))
		require.NoError(t, err)
		assert.Len(t, result.Created, 10)
		assert.Equal(t, 2, result.TruncatedCount)
		count, err := f.guests.CountByEventID(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})

	t.Run("counts existing guests toward capacity", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		_, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", recs(7))
		require.NoError(t, err)
		result, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", recs(7))
		require.NoError(t, err)
		assert.Len(t, result.Created, 3)
		assert.Equal(t, 4, result.TruncatedCount)
	})

	t.Run("all codes unique across import", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 100)
		result, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", recs(50))
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, g := range result.Created {
			require.False(t, seen[g.AccessCode], "duplicate access code %s", g.AccessCode)
			seen[g.AccessCode] = true
		}
	})

	t.Run("row validation fails whole import", func(t *testing.T) {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		bad := recs(3)
		bad[1].Name = ""
		_, err := f.svc.ImportGuests(ctx, "ev-1", "mgr-1", bad)
		require.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestGuestService_ListGuests(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	f.addCappedEvent("ev-1", 10)
	f.guests.addGuest("g-1", "ev-1", "AAAA-BBBB-CCCC")

	t.Run("owner sees list", func(t *testing.T) {
		guests, err := f.svc.ListGuests(ctx, "ev-1", "mgr-1")
		require.NoError(t, err)
		assert.Len(t, guests, 1)
	})

	t.Run("assigned organizer sees list", func(t *testing.T) {
		require.NoError(t, f.organizers.Add(ctx, "ev-1", "org-1"))
		guests, err := f.svc.ListGuests(ctx, "ev-1", "org-1")
		require.NoError(t, err)
		assert.Len(t, guests, 1)
	})

	t.Run("unassigned manager forbidden", func(t *testing.T) {
		_, err := f.svc.ListGuests(ctx, "ev-1", "mgr-2")
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})
}

func TestGuestService_CheckIn(t *testing.T) {
	ctx := context.Background()
	const code = "ABCD-EFGH-JKLM"

	setup := func() *guestFixture {
		f := newGuestFixture()
		f.addCappedEvent("ev-1", 10)
		f.guests.addGuest("g-1", "ev-1", code)
		return f
	}

	t.Run("success by access code", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, code, "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
		require.NotNil(t, res.Guest)
		assert.True(t, res.Guest.CheckedIn)
		require.NotNil(t, res.CheckedInBy)
		assert.Equal(t, "mgr-1", *res.CheckedInBy)
		assert.Equal(t, 1, f.audit.countByAction(domain.AuditCheckIn))
	})

	t.Run("code matched case-insensitively with whitespace", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, "  abcd-efgh-jklm ", "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
	})

	t.Run("success by guest ID", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, "g-1", "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
	})

	t.Run("duplicate reports original stamp", func(t *testing.T) {
		f := setup()
		first, err := f.svc.CheckIn(ctx, code, "mgr-1", "")
		require.NoError(t, err)
		require.Equal(t, domain.CheckInSuccess, first.Kind)

		second, err := f.svc.CheckIn(ctx, code, "admin-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInDuplicate, second.Kind)
		require.NotNil(t, second.CheckedInAt)
		assert.True(t, second.CheckedInAt.Equal(*first.CheckedInAt))
		require.NotNil(t, second.CheckedInBy)
		assert.Equal(t, "mgr-1", *second.CheckedInBy)

		// Repeated duplicates stay deterministic.
		third, err := f.svc.CheckIn(ctx, code, "admin-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInDuplicate, third.Kind)
		assert.True(t, third.CheckedInAt.Equal(*first.CheckedInAt))

		// Only the winning scan is audited.
		assert.Equal(t, 1, f.audit.countByAction(domain.AuditCheckIn))
	})

	t.Run("unknown code is invalid not error", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, "ZZZZ-ZZZZ-ZZZZ", "mgr-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInInvalid, res.Kind)
		assert.Nil(t, res.Guest)
	})

	t.Run("event hint mismatch is invalid", func(t *testing.T) {
		f := setup()
		f.addCappedEvent("ev-2", 10)
		res, err := f.svc.CheckIn(ctx, code, "mgr-1", "ev-2")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInInvalid, res.Kind)
	})

	t.Run("matching event hint succeeds", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, code, "mgr-1", "ev-1")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
	})

	t.Run("assigned organizer may check in", func(t *testing.T) {
		f := setup()
		require.NoError(t, f.organizers.Add(ctx, "ev-1", "org-1"))
		res, err := f.svc.CheckIn(ctx, code, "org-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
	})

	t.Run("unassigned actor forbidden before state is revealed", func(t *testing.T) {
		f := setup()
		_, err := f.svc.CheckIn(ctx, code, "org-1", "")
		require.True(t, errors.Is(err, domain.ErrForbidden))
		_, err = f.svc.CheckIn(ctx, code, "mgr-2", "")
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("admin may check in anywhere", func(t *testing.T) {
		f := setup()
		res, err := f.svc.CheckIn(ctx, code, "admin-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckInSuccess, res.Kind)
	})
}

func TestGuestService_CheckIn_ConcurrentScans(t *testing.T) {
	ctx := context.Background()
	const code = "ABCD-EFGH-JKLM"
	f := newGuestFixture()
	f.addCappedEvent("ev-1", 10)
	f.guests.addGuest("g-1", "ev-1", code)
	require.NoError(t, f.organizers.Add(ctx, "ev-1", "org-1"))

	const scans = 20
	results := make([]*domain.CheckInResult, scans)
	errs := make([]error, scans)
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := "mgr-1"
			if i%2 == 0 {
				actor = "org-1"
			}
			results[i], errs[i] = f.svc.CheckIn(ctx, code, actor, "")
		}(i)
	}
	wg.Wait()

	success, duplicate := 0, 0
	for i := 0; i < scans; i++ {
		require.NoError(t, errs[i])
		switch results[i].Kind {
		case domain.CheckInSuccess:
			success++
		case domain.CheckInDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected kind %s", results[i].Kind)
		}
	}
	assert.Equal(t, 1, success, "exactly one scan wins")
	assert.Equal(t, scans-1, duplicate)
	assert.Equal(t, 1, f.audit.countByAction(domain.AuditCheckIn))
}
