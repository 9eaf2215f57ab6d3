package prayer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, ft)
	return ft
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTicker{clock: c, ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, ft)
	return ft
}

// Set moves the clock and runs every timer that became due, in order.
func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	var due []*fakeTimer
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired && !ft.at.After(now) {
			ft.fired = true
			due = append(due, ft)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, ft := range due {
		ft.f()
	}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Tick delivers one tick to every live ticker.
func (c *fakeClock) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tk := range c.tickers {
		if tk.stopped {
			continue
		}
		select {
		case tk.ch <- c.now:
		default:
		}
	}
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired {
			out = append(out, ft)
		}
	}
	return out
}

func (c *fakeClock) liveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tk := range c.tickers {
		if !tk.stopped {
			n++
		}
	}
	return n
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	if ft.stopped || ft.fired {
		return false
	}
	ft.stopped = true
	return true
}

type fakeTicker struct {
	clock   *fakeClock
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

type fakeLookup struct {
	mu    sync.Mutex
	slots []model.PrayerSlot
	zone  string
	err   error
	days  []time.Time
	gate  chan struct{}
}

func (l *fakeLookup) FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error) {
	l.mu.Lock()
	l.days = append(l.days, day)
	gate := l.gate
	l.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Timetable{}, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return model.Timetable{}, l.err
	}
	return model.Timetable{Timezone: l.zone, Slots: l.slots}, nil
}

func (l *fakeLookup) requested() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Time(nil), l.days...)
}

func (l *fakeLookup) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.days)
}

func (l *fakeLookup) set(slots []model.PrayerSlot, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots, l.err = slots, err
}

type shown struct {
	title string
	body  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	shown  []shown
	answer model.Permission
}

func (n *fakeNotifier) Show(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shown{title, body})
}

func (n *fakeNotifier) all() []shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]shown(nil), n.shown...)
}

type askingNotifier struct {
	fakeNotifier
}

func (n *askingNotifier) RequestPermission(ctx context.Context) (model.Permission, error) {
	return n.answer, nil
}

func testSlots() []model.PrayerSlot {
	return []model.PrayerSlot{
		{Name: model.Fajr, Time: model.MustClockTime("05:30")},
		{Name: model.Dhuhr, Time: model.MustClockTime("12:15")},
		{Name: model.Asr, Time: model.MustClockTime("15:45")},
		{Name: model.Maghrib, Time: model.MustClockTime("18:45")},
		{Name: model.Isha, Time: model.MustClockTime("20:15")},
	}
}

func at(hhmm string) time.Time {
	c := model.MustClockTime(hhmm)
	return time.Date(2025, time.September, 26, c.Hour, c.Minute, 0, 0, time.UTC)
}

var testLocation = model.Location{City: "New York", Country: "USA", Method: 2, Timezone: "UTC"}
