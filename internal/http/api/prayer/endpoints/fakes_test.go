package endpoints

import (
	"context"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

type fixedClock struct {
	now     time.Time
	mu      sync.Mutex
	pending int
}

type noopStopper struct{ c *fixedClock }

func (s noopStopper) Stop() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.pending--
	return true
}

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func (c *fixedClock) Now() time.Time { return c.now }
func (c *fixedClock) AfterFunc(d time.Duration, f func()) prayer.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending++
	return noopStopper{c}
}
func (c *fixedClock) NewTicker(d time.Duration) prayer.Ticker { return idleTicker{} }

type staticLookup struct {
	slots []model.PrayerSlot
	zone  string
	err   error
}

func (l staticLookup) FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error) {
	if l.err != nil {
		return model.Timetable{}, l.err
	}
	return model.Timetable{Timezone: l.zone, Slots: l.slots}, nil
}

type nopNotifier struct{}

func (nopNotifier) Show(title, body string) {}

type fakeTimers struct {
	mu      sync.Mutex
	timers  map[string]*prayer.Timer
	dropped []string
}

func (f *fakeTimers) Get(ctx context.Context, userID string) (*prayer.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.timers[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return t, nil
}

func (f *fakeTimers) Drop(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, userID)
}

type memStore struct {
	mu    sync.Mutex
	prefs map[string]model.Preferences
	log   []model.PrayerLogEntry
}

var _ db.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{prefs: map[string]model.Preferences{}}
}

func (s *memStore) GetPreferences(ctx context.Context, userID string) (model.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return model.Preferences{}, db.ErrNotFound
	}
	return p, nil
}

func (s *memStore) UpsertPreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Permission == "" {
		p.Permission = model.PermissionDefault
	}
	p.UpdatedAt = time.Date(2025, 9, 26, 18, 0, 0, 0, time.UTC)
	s.prefs[p.UserID] = p
	return p, nil
}

func (s *memStore) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return db.ErrNotFound
	}
	p.NotificationsEnabled = enabled
	s.prefs[userID] = p
	return nil
}

func (s *memStore) SetPermission(ctx context.Context, userID string, perm model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return db.ErrNotFound
	}
	p.Permission = perm
	s.prefs[userID] = p
	return nil
}

func (s *memStore) RecordPrayer(ctx context.Context, e model.PrayerLogEntry) (model.PrayerLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = len(s.log) + 1
	s.log = append(s.log, e)
	return e, nil
}

func (s *memStore) ListPrayerLog(ctx context.Context, userID string, from, to time.Time) ([]model.PrayerLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PrayerLogEntry
	for _, e := range s.log {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func slots() []model.PrayerSlot {
	return []model.PrayerSlot{
		{Name: model.Fajr, Time: model.MustClockTime("05:30")},
		{Name: model.Dhuhr, Time: model.MustClockTime("12:15")},
		{Name: model.Asr, Time: model.MustClockTime("15:45")},
		{Name: model.Maghrib, Time: model.MustClockTime("18:45")},
		{Name: model.Isha, Time: model.MustClockTime("20:15")},
	}
}
