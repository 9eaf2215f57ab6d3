package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = expiration
	return nil
}

type countingLookup struct {
	calls int
	table model.Timetable
	err   error
}

func (l *countingLookup) FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error) {
	l.calls++
	if l.err != nil {
		return model.Timetable{}, l.err
	}
	return l.table, nil
}

var (
	nyc   = model.Location{City: "New York", Country: "USA", Method: 2}
	today = time.Date(2025, time.September, 26, 8, 0, 0, 0, time.UTC)
	slots = []model.PrayerSlot{
		{Name: model.Fajr, Time: model.MustClockTime("05:30")},
		{Name: model.Dhuhr, Time: model.MustClockTime("12:15")},
		{Name: model.Asr, Time: model.MustClockTime("15:45")},
		{Name: model.Maghrib, Time: model.MustClockTime("18:45")},
		{Name: model.Isha, Time: model.MustClockTime("20:15")},
	}
	table = model.Timetable{Timezone: "America/New_York", Slots: slots}
)

func TestTimingsKey(t *testing.T) {
	assert.Equal(t, "prayer:times:city:new york,usa:m2:2025-09-26", TimingsKey(nyc, today))
}

func TestCachedLookup_FetchesOncePerDay(t *testing.T) {
	cache := newMemCache()
	inner := &countingLookup{table: table}
	c := NewCachedLookup(inner, cache)

	got, err := c.FetchPrayerTimes(context.Background(), nyc, today)
	require.NoError(t, err)
	assert.Equal(t, table, got)

	got, err = c.FetchPrayerTimes(context.Background(), nyc, today.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, table, got)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, TimingsTTL, cache.ttls[TimingsKey(nyc, today)])

	_, err = c.FetchPrayerTimes(context.Background(), nyc, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedLookup_FailuresAreNotCached(t *testing.T) {
	cache := newMemCache()
	inner := &countingLookup{err: errors.New("timeout")}
	c := NewCachedLookup(inner, cache)

	_, err := c.FetchPrayerTimes(context.Background(), nyc, today)
	require.Error(t, err)
	assert.Empty(t, cache.data)

	inner.err, inner.table = nil, table
	_, err = c.FetchPrayerTimes(context.Background(), nyc, today)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedLookup_BypassesBrokenCache(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	inner := &countingLookup{table: table}

	got, err := NewCachedLookup(inner, cache).FetchPrayerTimes(context.Background(), nyc, today)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestCachedLookup_IgnoresCorruptEntry(t *testing.T) {
	cache := newMemCache()
	cache.data[TimingsKey(nyc, today)] = []byte(`{not json`)
	inner := &countingLookup{table: table}

	got, err := NewCachedLookup(inner, cache).FetchPrayerTimes(context.Background(), nyc, today)
	require.NoError(t, err)
	assert.Equal(t, table, got)
	assert.Equal(t, 1, inner.calls)
	assert.JSONEq(t, `{"timezone":"America/New_York","slots":[{"name":"Fajr","time":"05:30"},{"name":"Dhuhr","time":"12:15"},
		{"name":"Asr","time":"15:45"},{"name":"Maghrib","time":"18:45"},{"name":"Isha","time":"20:15"}]}`,
		string(cache.data[TimingsKey(nyc, today)]))
}
