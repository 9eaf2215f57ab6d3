package prayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const (
	DefaultLead = time.Minute
	DefaultTick = time.Second

	NotificationTitle = "Prayer Reminder"
)

// ErrNoTimes is returned when the lookup succeeds but yields nothing usable.
var ErrNoTimes = errors.New("no prayer times for today")

// Lookup fetches the day's prayer times for a location.
type Lookup interface {
	FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error)
}

// Notifier displays a reminder. Delivery is fire-and-forget.
type Notifier interface {
	Show(title, body string)
}

// PermissionRequester is implemented by notifiers that can prompt the host.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (model.Permission, error)
}

type LoadState string

const (
	StateLoading     LoadState = "loading"
	StateReady       LoadState = "ready"
	StateUnavailable LoadState = "unavailable"
)

// View is the rendered state after the most recent derivation.
type View struct {
	Date                 string           `json:"date"`
	Timezone             string           `json:"timezone"`
	Now                  time.Time        `json:"now"`
	State                LoadState        `json:"state"`
	Error                string           `json:"error,omitempty"`
	Slots                []SlotView       `json:"slots"`
	Next                 *SlotView        `json:"next,omitempty"`
	Countdown            string           `json:"countdown,omitempty"`
	Armed                *Arming          `json:"armed,omitempty"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
	Permission           model.Permission `json:"permission"`
}

type Options struct {
	Lead                 time.Duration
	Tick                 time.Duration
	Quiet                *model.QuietHours
	NotificationsEnabled bool
	Permission           model.Permission
	Logger               *zerolog.Logger
}

type armedReminder struct {
	Arming
	id   uuid.UUID
	day  string
	stop Stopper
}

// Timer keeps today's prayer statuses, the countdown to the next prayer, and
// at most one armed reminder for that prayer.
type Timer struct {
	clock    Clock
	lookup   Lookup
	notifier Notifier
	loc      model.Location
	lead     time.Duration
	tick     time.Duration
	quiet    *model.QuietHours
	log      zerolog.Logger

	// tz starts as the location's zone, or the process zone when the
	// location has none; the latter is replaced by the lookup's zone.
	tz        atomic.Pointer[time.Location]
	zoneFixed bool

	mu         sync.Mutex
	state      LoadState
	lastErr    string
	day        string
	slots      []model.PrayerSlot
	gen        uint64
	enabled    bool
	permission model.Permission
	armed      *armedReminder
	notified   map[model.PrayerName]bool
	view       View
	subs       map[int]chan View
	nextSub    int
	closed     bool
}

func NewTimer(clock Clock, lookup Lookup, notifier Notifier, loc model.Location, opts Options) *Timer {
	if clock == nil {
		clock = SystemClock
	}
	if opts.Lead <= 0 {
		opts.Lead = DefaultLead
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	perm := opts.Permission
	if perm == "" {
		perm = model.PermissionDefault
	}
	if notifier == nil {
		perm = model.PermissionUnsupported
	}
	t := &Timer{
		clock:      clock,
		lookup:     lookup,
		notifier:   notifier,
		loc:        loc,
		lead:       opts.Lead,
		tick:       opts.Tick,
		quiet:      opts.Quiet,
		log:        logger,
		state:      StateLoading,
		enabled:    opts.NotificationsEnabled,
		permission: perm,
		notified:   make(map[model.PrayerName]bool),
		subs:       make(map[int]chan View),
	}
	t.tz.Store(loc.TimeLocation())
	if loc.Timezone != "" {
		_, err := time.LoadLocation(loc.Timezone)
		t.zoneFixed = err == nil
	}
	t.view = View{
		State:                StateLoading,
		Timezone:             t.Location().String(),
		Slots:                []SlotView{},
		NotificationsEnabled: t.enabled,
		Permission:           perm,
	}
	return t
}

// Run fetches today's times and re-derives on every tick until ctx is done.
// On return the ticker and any armed reminder have been released.
func (t *Timer) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.tick)
	defer func() {
		ticker.Stop()
		t.shutdown()
	}()

	t.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			t.Tick(ctx)
		}
	}
}

// Tick samples the clock once and re-derives. When the local date no longer
// matches the loaded list, the list is dropped and fetched again.
func (t *Timer) Tick(ctx context.Context) {
	now := t.now()
	t.mu.Lock()
	if dayKey(now) != t.day {
		t.mu.Unlock()
		_ = t.fetch(ctx, now)
		return
	}
	t.evaluateLocked(now)
	t.mu.Unlock()
}

// Refresh re-fetches today's times regardless of what is loaded.
func (t *Timer) Refresh(ctx context.Context) error {
	return t.fetch(ctx, t.now())
}

func (t *Timer) fetch(ctx context.Context, now time.Time) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.gen++
	gen := t.gen
	if day := dayKey(now); day != t.day {
		t.day = day
		t.notified = make(map[model.PrayerName]bool)
	}
	t.state = StateLoading
	t.lastErr = ""
	t.slots = nil
	t.evaluateLocked(now)
	t.mu.Unlock()

	tt, err := t.lookup.FetchPrayerTimes(ctx, t.loc, now)
	if err == nil && len(tt.Slots) == 0 {
		err = ErrNoTimes
	}

	t.mu.Lock()
	if gen != t.gen || t.closed {
		t.mu.Unlock()
		return nil
	}
	if err == nil && t.adoptZoneLocked(tt) {
		// the request went out for the date in the old zone
		if cur := t.now(); dayKey(cur) != t.day {
			t.mu.Unlock()
			return t.fetch(ctx, cur)
		}
	}
	defer t.mu.Unlock()
	if err != nil {
		t.state = StateUnavailable
		t.lastErr = err.Error()
		t.log.Warn().Err(err).Str("date", t.day).Msg("prayer times unavailable")
	} else {
		t.state = StateReady
		t.slots = tt.Slots
		t.log.Info().Str("date", t.day).Int("slots", len(tt.Slots)).Msg("prayer times loaded")
	}
	t.evaluateLocked(t.now())
	return err
}

// adoptZoneLocked switches to the timetable's zone when the location names
// none. It reports whether the zone changed.
func (t *Timer) adoptZoneLocked(tt model.Timetable) bool {
	if t.zoneFixed {
		return false
	}
	tz, ok := tt.Zone()
	if !ok || tz.String() == t.Location().String() {
		return false
	}
	t.tz.Store(tz)
	t.log.Info().Str("timezone", tz.String()).Msg("using timezone from prayer times lookup")
	return true
}

func (t *Timer) SetNotificationsEnabled(enabled bool) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.evaluateLocked(now)
}

func (t *Timer) SetPermission(p model.Permission) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notifier == nil {
		p = model.PermissionUnsupported
	}
	t.permission = p
	t.evaluateLocked(now)
}

// RequestPermission asks the notification facility for permission and
// returns the resulting state. Facilities that cannot prompt report
// unsupported. A default answer means the facility has not decided yet and
// leaves the current state alone.
func (t *Timer) RequestPermission(ctx context.Context) (model.Permission, error) {
	req, ok := t.notifier.(PermissionRequester)
	if !ok {
		t.SetPermission(model.PermissionUnsupported)
		return model.PermissionUnsupported, nil
	}
	p, err := req.RequestPermission(ctx)
	if err != nil {
		return "", fmt.Errorf("request notification permission: %w", err)
	}
	if p == model.PermissionDefault {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.permission, nil
	}
	t.SetPermission(p)
	return p, nil
}

// Location is the zone prayer times are currently read in.
func (t *Timer) Location() *time.Location {
	return t.tz.Load()
}

// Idle reports whether nobody is watching the timer and it has no reminder
// to deliver, so stopping it loses nothing.
func (t *Timer) Idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.subs) > 0 || t.armed != nil {
		return false
	}
	return !t.enabled || t.permission != model.PermissionGranted
}

func (t *Timer) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// Subscribe returns a channel that always holds the latest view. The channel
// is closed by the returned cancel func or when the timer shuts down.
func (t *Timer) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	ch <- t.view
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

func (t *Timer) evaluateLocked(now time.Time) {
	v := View{
		Date:                 t.day,
		Timezone:             t.Location().String(),
		Now:                  now,
		State:                t.state,
		Error:                t.lastErr,
		Slots:                []SlotView{},
		NotificationsEnabled: t.enabled,
		Permission:           t.permission,
	}
	if t.state != StateReady || t.closed {
		t.cancelArmedLocked("times not loaded")
		t.publishLocked(v)
		return
	}

	d := Derive(t.slots, now)
	v.Slots = d.Slots
	v.Next = d.Next
	if d.Next != nil {
		v.Countdown = FormatCountdown(d.Countdown)
	}
	t.reconcileLocked(d, now)
	if t.armed != nil {
		a := t.armed.Arming
		v.Armed = &a
	}
	t.publishLocked(v)
}

// reconcileLocked makes the armed reminder match the plan for d.Next. An
// unchanged plan keeps the existing handle.
func (t *Timer) reconcileLocked(d Derived, now time.Time) {
	plan, ok := PlanNotification(d, PlanInput{
		Now:        now,
		Lead:       t.lead,
		Enabled:    t.enabled,
		Permission: t.permission,
		Quiet:      t.quiet,
	})
	if ok && t.notified[plan.Prayer] {
		ok = false
	}
	if ok {
		if a := t.armed; a != nil && a.Prayer == plan.Prayer && a.FireAt.Equal(plan.FireAt) {
			return
		}
		t.cancelArmedLocked("next prayer changed")
		t.armLocked(plan, now)
		return
	}
	if t.armed == nil {
		return
	}
	// The handle for the current next prayer reached its fire instant and
	// its callback is pending.
	if a := t.armed; d.Next != nil && t.enabled && t.permission == model.PermissionGranted &&
		a.Prayer == d.Next.Name && a.PrayerAt.Equal(d.Next.Instant) && !a.FireAt.After(now) {
		return
	}
	t.cancelArmedLocked("reminder no longer due")
}

func (t *Timer) armLocked(plan Arming, now time.Time) {
	a := &armedReminder{Arming: plan, id: uuid.New(), day: t.day}
	id := a.id
	a.stop = t.clock.AfterFunc(plan.FireAt.Sub(now), func() { t.fire(id) })
	t.armed = a
	t.log.Debug().
		Str("prayer", string(plan.Prayer)).
		Time("fire_at", plan.FireAt).
		Msg("reminder armed")
}

func (t *Timer) cancelArmedLocked(reason string) {
	if t.armed == nil {
		return
	}
	t.armed.stop.Stop()
	t.log.Debug().
		Str("prayer", string(t.armed.Prayer)).
		Str("reason", reason).
		Msg("reminder cancelled")
	t.armed = nil
}

func (t *Timer) fire(id uuid.UUID) {
	t.mu.Lock()
	a := t.armed
	if a == nil || a.id != id || t.closed {
		t.mu.Unlock()
		return
	}
	t.armed = nil
	if a.day == t.day {
		t.notified[a.Prayer] = true
	}
	lead := t.lead
	t.mu.Unlock()

	t.notifier.Show(NotificationTitle, NotificationBody(a.Prayer, lead))
	t.log.Info().Str("prayer", string(a.Prayer)).Msg("reminder sent")
}

func (t *Timer) publishLocked(v View) {
	t.view = v
	for _, ch := range t.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (t *Timer) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelArmedLocked("shutdown")
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

func (t *Timer) now() time.Time {
	return t.clock.Now().In(t.Location())
}

func dayKey(tm time.Time) string {
	return tm.Format("2006-01-02")
}

// NotificationBody names the upcoming prayer.
func NotificationBody(p model.PrayerName, lead time.Duration) string {
	switch m := int(lead / time.Minute); {
	case m == 1:
		return fmt.Sprintf("%s begins in 1 minute", p)
	case m > 1:
		return fmt.Sprintf("%s begins in %d minutes", p, m)
	default:
		return fmt.Sprintf("%s is about to begin", p)
	}
}
