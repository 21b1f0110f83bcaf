package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"meetapp/internal/domain"
)

const (
	organizerA = "0190c1c4-6d4e-7000-8000-00000000000a"
	userB      = "0190c1c4-6d4e-7000-8000-00000000000b"
	userC      = "0190c1c4-6d4e-7000-8000-00000000000c"
	fileID     = "0190c1c4-6d4e-7000-8000-0000000000f1"
	missingID  = "0190c1c4-6d4e-7000-8000-0000000000ff"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeStore is an in-memory store that enforces the same uniqueness rules as
// the Postgres schema and rolls back every change made by a failed transaction.
type fakeStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	meetups map[string]*domain.Meetup
	subs    map[string]*domain.Subscription
	users   map[string]*domain.User
	files   map[string]bool

	// err, when set, is returned by every repository call.
	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meetups: map[string]*domain.Meetup{},
		subs:    map[string]*domain.Subscription{},
		users: map[string]*domain.User{
			organizerA: {ID: organizerA, Name: "Alice", Email: "alice@example.com"},
			userB:      {ID: userB, Name: "Bob", Email: "bob@example.com"},
			userC:      {ID: userC, Name: "Carol", Email: "carol@example.com"},
		},
		files: map[string]bool{fileID: true},
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	meetups, subs := f.snapshot()
	if err := fn(ctx); err != nil {
		f.dataMu.Lock()
		f.meetups, f.subs = meetups, subs
		f.dataMu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) snapshot() (map[string]*domain.Meetup, map[string]*domain.Subscription) {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	meetups := make(map[string]*domain.Meetup, len(f.meetups))
	for k, v := range f.meetups {
		c := *v
		meetups[k] = &c
	}
	subs := make(map[string]*domain.Subscription, len(f.subs))
	for k, v := range f.subs {
		c := *v
		subs[k] = &c
	}
	return meetups, subs
}

func (f *fakeStore) addMeetup(m *domain.Meetup) {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	c := *m
	f.meetups[m.ID] = &c
}

func (f *fakeStore) addSubscription(s *domain.Subscription) {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	c := *s
	f.subs[s.ID] = &c
}

func (f *fakeStore) meetupCount() int {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	return len(f.meetups)
}

func (f *fakeStore) subscriptionCount() int {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	return len(f.subs)
}

func (f *fakeStore) meetup(id string) *domain.Meetup {
	f.dataMu.Lock()
	defer f.dataMu.Unlock()
	m, ok := f.meetups[id]
	if !ok {
		return nil
	}
	c := *m
	return &c
}

type fakeMeetupRepo struct{ *fakeStore }

func (r fakeMeetupRepo) Create(ctx context.Context, m *domain.Meetup) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, other := range r.meetups {
		if other.OrganizerID == m.OrganizerID && other.HourSlot().Equal(m.HourSlot()) {
			return domain.ErrScheduleConflict
		}
	}
	c := *m
	r.meetups[m.ID] = &c
	return nil
}

func (r fakeMeetupRepo) get(ctx context.Context, id string) (*domain.Meetup, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.meetups[id]
	if !ok {
		return nil, domain.ErrMeetupNotFound
	}
	c := *m
	return &c, nil
}

func (r fakeMeetupRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Meetup, error) {
	return r.get(ctx, id)
}

func (r fakeMeetupRepo) GetByIDForShare(ctx context.Context, id string) (*domain.Meetup, error) {
	return r.get(ctx, id)
}

func (r fakeMeetupRepo) Update(ctx context.Context, m *domain.Meetup) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.meetups[m.ID]; !ok {
		return domain.ErrMeetupNotFound
	}
	for _, other := range r.meetups {
		if other.ID != m.ID && other.OrganizerID == m.OrganizerID && other.HourSlot().Equal(m.HourSlot()) {
			return domain.ErrScheduleConflict
		}
	}
	c := *m
	r.meetups[m.ID] = &c
	return nil
}

func (r fakeMeetupRepo) Delete(ctx context.Context, id string) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.meetups[id]; !ok {
		return domain.ErrMeetupNotFound
	}
	delete(r.meetups, id)
	for sid, s := range r.subs {
		if s.MeetupID == id {
			delete(r.subs, sid)
		}
	}
	return nil
}

func (r fakeMeetupRepo) ExistsInSlot(ctx context.Context, organizerID string, slot time.Time, excludeID string) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, m := range r.meetups {
		if m.ID != excludeID && m.OrganizerID == organizerID && m.HourSlot().Equal(slot) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeMeetupRepo) ListUpcoming(ctx context.Context, filter domain.MeetupFilter) ([]*domain.MeetupListing, int, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	dayStart, dayEnd, byDay := filter.DayBounds()
	var matched []*domain.Meetup
	for _, m := range r.meetups {
		if !m.StartTime.After(filter.After) {
			continue
		}
		if byDay && (m.StartTime.Before(dayStart) || !m.StartTime.Before(dayEnd)) {
			continue
		}
		c := *m
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })

	items := []*domain.MeetupListing{}
	start := filter.Pagination.Offset()
	for i := start; i < len(matched) && i < start+filter.Pagination.PageSize; i++ {
		items = append(items, &domain.MeetupListing{Meetup: matched[i], Organizer: r.users[matched[i].OrganizerID]})
	}
	return items, len(matched), nil
}

func (r fakeMeetupRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Meetup, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Meetup
	for _, m := range r.meetups {
		if m.OrganizerID == organizerID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

type fakeSubscriptionRepo struct{ *fakeStore }

func (r fakeSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, other := range r.subs {
		if other.MeetupID == s.MeetupID && other.UserID == s.UserID {
			return domain.ErrAlreadySubscribed
		}
	}
	c := *s
	r.subs[s.ID] = &c
	return nil
}

func (r fakeSubscriptionRepo) Exists(ctx context.Context, meetupID, userID string) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, s := range r.subs {
		if s.MeetupID == meetupID && s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// LockUser is a no-op: fakeStore transactions are already serialized.
func (r fakeSubscriptionRepo) LockUser(ctx context.Context, userID string) error {
	return r.err
}

func (r fakeSubscriptionRepo) ExistsAtStart(ctx context.Context, userID string, start time.Time) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, s := range r.subs {
		m, ok := r.meetups[s.MeetupID]
		if ok && s.UserID == userID && m.StartTime.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeSubscriptionRepo) ListUpcomingByUser(ctx context.Context, userID string, after time.Time) ([]*domain.SubscriptionWithMeetup, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.SubscriptionWithMeetup
	for _, s := range r.subs {
		m, ok := r.meetups[s.MeetupID]
		if !ok || s.UserID != userID || !m.StartTime.After(after) {
			continue
		}
		sc, mc := *s, *m
		out = append(out, &domain.SubscriptionWithMeetup{Subscription: &sc, Meetup: &mc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meetup.StartTime.Before(out[j].Meetup.StartTime) })
	return out, nil
}

type fakeAttachments struct{ *fakeStore }

func (a fakeAttachments) Exists(ctx context.Context, id string) (bool, error) {
	a.dataMu.Lock()
	defer a.dataMu.Unlock()
	if a.err != nil {
		return false, a.err
	}
	return a.files[id], nil
}

type fakeUsers struct {
	store *fakeStore
	err   error
}

func (u fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.store.dataMu.Lock()
	defer u.store.dataMu.Unlock()
	usr, ok := u.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return usr, nil
}

type fakeEmitter struct {
	mu      sync.Mutex
	emitted []*domain.SubscriptionNotification
	err     error
}

func (e *fakeEmitter) Emit(ctx context.Context, n *domain.SubscriptionNotification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.emitted = append(e.emitted, n)
	return nil
}

func (e *fakeEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.emitted)
}

type fakeListCache struct {
	pages         map[string]*domain.MeetupPage
	maxAges       map[string]time.Duration
	gets          int
	invalidations int
	err           error
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{pages: map[string]*domain.MeetupPage{}, maxAges: map[string]time.Duration{}}
}

func (c *fakeListCache) Get(ctx context.Context, key string) (*domain.MeetupPage, bool, error) {
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	p, ok := c.pages[key]
	return p, ok, nil
}

func (c *fakeListCache) Set(ctx context.Context, key string, page *domain.MeetupPage, maxAge time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.pages[key] = page
	c.maxAges[key] = maxAge
	return nil
}

func (c *fakeListCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	c.pages = map[string]*domain.MeetupPage{}
	return c.err
}
