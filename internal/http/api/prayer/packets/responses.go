package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

type PrayerRow struct {
	Name   model.PrayerName `json:"name"`
	Time   string           `json:"time"`
	Status model.SlotStatus `json:"status"`
}

type ArmedResponse struct {
	Prayer model.PrayerName `json:"prayer"`
	FireAt string           `json:"fire_at"`
}

// ScheduleResponse is today's schedule as rendered for clients.
type ScheduleResponse struct {
	Date                 string           `json:"date"`
	Timezone             string           `json:"timezone"`
	State                prayer.LoadState `json:"state"`
	Error                string           `json:"error,omitempty"`
	Prayers              []PrayerRow      `json:"prayers"`
	Next                 *PrayerRow       `json:"next,omitempty"`
	Countdown            string           `json:"countdown,omitempty"`
	Armed                *ArmedResponse   `json:"armed,omitempty"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
	Permission           model.Permission `json:"permission"`
}

func NewScheduleResponse(v prayer.View) ScheduleResponse {
	out := ScheduleResponse{
		Date:                 v.Date,
		Timezone:             v.Timezone,
		State:                v.State,
		Error:                v.Error,
		Prayers:              make([]PrayerRow, 0, len(v.Slots)),
		Countdown:            v.Countdown,
		NotificationsEnabled: v.NotificationsEnabled,
		Permission:           v.Permission,
	}
	if v.State == prayer.StateUnavailable {
		out.Error = "prayer times unavailable"
	}
	for _, s := range v.Slots {
		out.Prayers = append(out.Prayers, PrayerRow{Name: s.Name, Time: s.Time, Status: s.Status})
	}
	if v.Next != nil {
		out.Next = &PrayerRow{Name: v.Next.Name, Time: v.Next.Time, Status: v.Next.Status}
	}
	if v.Armed != nil {
		out.Armed = &ArmedResponse{Prayer: v.Armed.Prayer, FireAt: v.Armed.FireAt.Format(time.RFC3339)}
	}
	return out
}

type PreferencesResponse struct {
	Location             model.Location   `json:"location"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
	Permission           model.Permission `json:"permission"`
	QuietStart           *string          `json:"quiet_start,omitempty"`
	QuietEnd             *string          `json:"quiet_end,omitempty"`
	UpdatedAt            string           `json:"updated_at"`
}

func NewPreferencesResponse(p model.Preferences) PreferencesResponse {
	return PreferencesResponse{
		Location:             p.Location,
		NotificationsEnabled: p.NotificationsEnabled,
		Permission:           p.Permission,
		QuietStart:           p.QuietStart,
		QuietEnd:             p.QuietEnd,
		UpdatedAt:            p.UpdatedAt.Format(time.RFC3339),
	}
}

type PermissionResponse struct {
	Permission model.Permission `json:"permission"`
}

type PrayerLogResponse struct {
	ID         int              `json:"id"`
	Prayer     model.PrayerName `json:"prayer"`
	Date       string           `json:"date"`
	Status     model.LogStatus  `json:"status"`
	ActualTime *string          `json:"actual_time,omitempty"`
}

func NewPrayerLogResponse(e model.PrayerLogEntry) PrayerLogResponse {
	out := PrayerLogResponse{
		ID:     e.ID,
		Prayer: e.Prayer,
		Date:   e.Date.Format("2006-01-02"),
		Status: e.Status,
	}
	if e.ActualTime != nil {
		s := e.ActualTime.Format(time.RFC3339)
		out.ActualTime = &s
	}
	return out
}
