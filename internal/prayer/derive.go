package prayer

import (
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// SlotView is one rendered row.
type SlotView struct {
	Name    model.PrayerName `json:"name"`
	Time    string           `json:"time"`
	Instant time.Time        `json:"instant"`
	Status  model.SlotStatus `json:"status"`
}

// Derived is the result of one derivation pass.
type Derived struct {
	Slots     []SlotView
	Next      *SlotView
	Countdown time.Duration
}

// Derive assigns a status to every slot for "today" as seen from now.
// A slot whose instant equals now has already started and is completed.
func Derive(slots []model.PrayerSlot, now time.Time) Derived {
	out := Derived{Slots: make([]SlotView, len(slots))}
	next := -1
	for i, s := range slots {
		at := s.Time.On(now)
		out.Slots[i] = SlotView{Name: s.Name, Time: s.Time.String(), Instant: at, Status: model.StatusCompleted}
		if !at.After(now) {
			continue
		}
		out.Slots[i].Status = model.StatusUpcoming
		if next < 0 || at.Before(out.Slots[next].Instant) {
			next = i
		}
	}
	if next >= 0 {
		out.Slots[next].Status = model.StatusNext
		n := out.Slots[next]
		out.Next = &n
		out.Countdown = n.Instant.Sub(now)
	}
	return out
}

// FormatCountdown renders d as "<h>h <m>m", truncated to whole minutes.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}

// Arming describes the one-shot reminder for the next prayer.
type Arming struct {
	Prayer   model.PrayerName `json:"prayer"`
	PrayerAt time.Time        `json:"prayer_at"`
	FireAt   time.Time        `json:"fire_at"`
}

// PlanInput is everything PlanNotification needs besides the derivation.
type PlanInput struct {
	Now        time.Time
	Lead       time.Duration
	Enabled    bool
	Permission model.Permission
	Quiet      *model.QuietHours
}

// PlanNotification decides whether a reminder should be armed for d.Next.
// A prayer whose fire instant is already at or before now is never armed;
// reminders are not sent retroactively.
func PlanNotification(d Derived, in PlanInput) (Arming, bool) {
	if d.Next == nil || !in.Enabled || in.Permission != model.PermissionGranted {
		return Arming{}, false
	}
	fireAt := d.Next.Instant.Add(-in.Lead)
	if !fireAt.After(in.Now) {
		return Arming{}, false
	}
	if in.Quiet != nil && in.Quiet.Contains(fireAt) {
		return Arming{}, false
	}
	return Arming{Prayer: d.Next.Name, PrayerAt: d.Next.Instant, FireAt: fireAt}, true
}
