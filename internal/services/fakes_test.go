package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"guestgate/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserService resolves actors from a fixed id -> user map.
type fakeUserService struct {
	byID map[string]*domain.User
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{byID: make(map[string]*domain.User)}
}

func (f *fakeUserService) addUser(id, role string) {
	f.byID[id] = &domain.User{ID: id, Email: id + "@example.com", Name: id, Role: role}
}

func (f *fakeUserService) SignUp(ctx context.Context, email, password, name, lastName string) (*domain.User, error) {
	return nil, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return "", nil, nil
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserService) ResolveActor(ctx context.Context, userID string) (*domain.Actor, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return domain.NewActor(u.ID, u.Role), nil
}

// fakeUserRepo backs organizer lookup by email in event service tests.
type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) addUser(id, email, role string) {
	f.byID[id] = &domain.User{ID: id, Email: strings.ToLower(email), Name: id, Role: role}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// fakeTierRepo is an in-memory TierRepository.
type fakeTierRepo struct {
	byID      map[string]*domain.CapacityTier
	nextID    int
	events    int
	quotaRows int
}

func newFakeTierRepo() *fakeTierRepo {
	return &fakeTierRepo{byID: make(map[string]*domain.CapacityTier), nextID: 1}
}

func (f *fakeTierRepo) addTier(id string, maxGuests int, unlimited, active bool) *domain.CapacityTier {
	t := &domain.CapacityTier{
		ID:          id,
		Name:        "tier " + id,
		MaxGuests:   maxGuests,
		IsUnlimited: unlimited,
		IsActive:    active,
		SortOrder:   len(f.byID),
	}
	f.byID[id] = t
	return t
}

func (f *fakeTierRepo) Create(ctx context.Context, tier *domain.CapacityTier) error {
	tier.ID = fmt.Sprintf("tier-%d", f.nextID)
	f.nextID++
	f.byID[tier.ID] = tier
	return nil
}

func (f *fakeTierRepo) GetByID(ctx context.Context, id string) (*domain.CapacityTier, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTierRepo) List(ctx context.Context, activeOnly bool) ([]*domain.CapacityTier, error) {
	var out []*domain.CapacityTier
	for _, t := range f.byID {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeTierRepo) Update(ctx context.Context, tier *domain.CapacityTier) error {
	if _, ok := f.byID[tier.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[tier.ID] = tier
	return nil
}

func (f *fakeTierRepo) SetActive(ctx context.Context, id string, active bool) error {
	t, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.IsActive = active
	return nil
}

func (f *fakeTierRepo) CountReferences(ctx context.Context, id string) (int, int, error) {
	return f.events, f.quotaRows, nil
}

// fakeQuotaRepo is an in-memory QuotaRepository keyed by (user, tier).
type fakeQuotaRepo struct {
	rows map[string]*domain.TierQuota
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{rows: make(map[string]*domain.TierQuota)}
}

func quotaKey(userID, tierID string) string { return userID + "|" + tierID }

func (f *fakeQuotaRepo) setQuota(userID, tierID string, quota int) {
	f.rows[quotaKey(userID, tierID)] = &domain.TierQuota{UserID: userID, TierID: tierID, Quota: quota}
}

func (f *fakeQuotaRepo) Upsert(ctx context.Context, quota *domain.TierQuota) error {
	f.rows[quotaKey(quota.UserID, quota.TierID)] = quota
	return nil
}

func (f *fakeQuotaRepo) GetByUserAndTier(ctx context.Context, userID, tierID string) (*domain.TierQuota, error) {
	if q, ok := f.rows[quotaKey(userID, tierID)]; ok {
		return q, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeQuotaRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.TierQuota, error) {
	var out []*domain.TierQuota
	for _, q := range f.rows {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

// fakeEventRepo is an in-memory EventRepository. CreateWithinQuota holds
// the mutex across count and insert, matching the single-statement
// conditional insert of the real repository.
type fakeEventRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Event
	nextID int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) addEvent(id, ownerID string, tierID *string) *domain.Event {
	e := &domain.Event{ID: id, Name: "event " + id, OwnerID: ownerID, TierID: tierID, IsActive: true}
	f.byID[id] = e
	return e
}

func (f *fakeEventRepo) countLocked(ownerID, tierID string) int {
	n := 0
	for _, e := range f.byID {
		if e.OwnerID == ownerID && e.TierID != nil && *e.TierID == tierID {
			n++
		}
	}
	return n
}

func (f *fakeEventRepo) CreateWithinQuota(ctx context.Context, event *domain.Event, quota int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.TierID != nil && f.countLocked(event.OwnerID, *event.TierID) >= quota {
		return false, nil
	}
	event.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[event.ID] = event
	return true, nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) CountByOwnerAndTier(ctx context.Context, ownerID, tierID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(ownerID, tierID), nil
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, name *string, date *time.Time, isActive *bool) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if name != nil {
		e.Name = *name
	}
	if date != nil {
		e.Date = date
	}
	if isActive != nil {
		e.IsActive = *isActive
	}
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeOrganizerRepo is an in-memory EventOrganizerRepository.
type fakeOrganizerRepo struct {
	members map[string]map[string]bool // eventID -> userID -> true
}

func newFakeOrganizerRepo() *fakeOrganizerRepo {
	return &fakeOrganizerRepo{members: make(map[string]map[string]bool)}
}

func (f *fakeOrganizerRepo) Add(ctx context.Context, eventID, userID string) error {
	if f.members[eventID] == nil {
		f.members[eventID] = make(map[string]bool)
	}
	if f.members[eventID][userID] {
		return domain.ErrAlreadyAssigned
	}
	f.members[eventID][userID] = true
	return nil
}

func (f *fakeOrganizerRepo) Remove(ctx context.Context, eventID, userID string) error {
	if f.members[eventID] == nil || !f.members[eventID][userID] {
		return domain.ErrNotFound
	}
	delete(f.members[eventID], userID)
	return nil
}

func (f *fakeOrganizerRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventOrganizer, error) {
	out := []*domain.EventOrganizer{}
	for uid := range f.members[eventID] {
		out = append(out, &domain.EventOrganizer{EventID: eventID, UserID: uid})
	}
	return out, nil
}

func (f *fakeOrganizerRepo) IsAssigned(ctx context.Context, eventID, userID string) (bool, error) {
	return f.members[eventID] != nil && f.members[eventID][userID], nil
}

// fakeGuestRepo is an in-memory GuestRepository. CheckIn and
// CreateWithinCapacity hold the mutex across read and write, matching
// the real repository's single-statement conditionals.
type fakeGuestRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Guest
	nextID int
}

func newFakeGuestRepo() *fakeGuestRepo {
	return &fakeGuestRepo{byID: make(map[string]*domain.Guest), nextID: 1}
}

func (f *fakeGuestRepo) addGuest(id, eventID, code string) *domain.Guest {
	g := &domain.Guest{ID: id, EventID: eventID, Name: "guest " + id, Category: domain.GuestCategoryRegular, AccessCode: code}
	f.byID[id] = g
	return g
}

func (f *fakeGuestRepo) insertLocked(guest *domain.Guest) error {
	for _, g := range f.byID {
		if g.AccessCode == guest.AccessCode {
			return domain.ErrAccessCodeTaken
		}
	}
	guest.ID = fmt.Sprintf("guest-%d", f.nextID)
	f.nextID++
	f.byID[guest.ID] = guest
	return nil
}

func (f *fakeGuestRepo) Create(ctx context.Context, guest *domain.Guest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(guest)
}

func (f *fakeGuestRepo) CreateWithinCapacity(ctx context.Context, guest *domain.Guest, maxGuests int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.byID {
		if g.EventID == guest.EventID {
			n++
		}
	}
	if n >= maxGuests {
		return false, nil
	}
	if err := f.insertLocked(guest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeGuestRepo) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.byID[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGuestRepo) GetByAccessCode(ctx context.Context, code string) (*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, g := range f.byID {
		if g.AccessCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGuestRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Guest
	for _, g := range f.byID {
		if g.EventID == eventID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.byID {
		if g.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeGuestRepo) Update(ctx context.Context, guestID string, rec *domain.GuestRecord) (*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byID[guestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	g.Name = rec.Name
	g.Phone = rec.Phone
	g.Category = rec.Category
	g.Companions = rec.Companions
	g.Notes = rec.Notes
	cp := *g
	return &cp, nil
}

func (f *fakeGuestRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeGuestRepo) CheckIn(ctx context.Context, guestID, actorID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byID[guestID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if g.CheckedIn {
		return false, nil
	}
	g.CheckedIn = true
	g.CheckedInAt = &at
	g.CheckedInBy = &actorID
	return true, nil
}

// fakeAuditService records entries in memory. Thread safe because check-in
// tests record from concurrent goroutines.
type fakeAuditService struct {
	mu        sync.Mutex
	entries   []*domain.AuditEntry
	recordErr error
}

func newFakeAuditService() *fakeAuditService {
	return &fakeAuditService{}
}

func (f *fakeAuditService) Record(ctx context.Context, actorID string, action domain.AuditAction, eventID, guestID *string, details string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, &domain.AuditEntry{
		ActorID:   actorID,
		EventID:   eventID,
		GuestID:   guestID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeAuditService) List(ctx context.Context, actorID string, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, len(f.entries), nil
}

func (f *fakeAuditService) countByAction(action domain.AuditAction) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// fakeMailer records organizer-assignment sends.
type fakeMailer struct {
	sent    []*domain.OrganizerAssignmentEmailData
	sendErr error
}

func (f *fakeMailer) SendOrganizerAssignment(ctx context.Context, data *domain.OrganizerAssignmentEmailData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}
