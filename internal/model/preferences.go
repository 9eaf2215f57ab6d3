package model

import "time"

// Preferences is the per-user settings row the timer reads as resolved input.
type Preferences struct {
	UserID               string     `db:"user_id"               json:"user_id"`
	Location                        `json:"location"`
	NotificationsEnabled bool       `db:"notifications_enabled" json:"notifications_enabled"`
	Permission           Permission `db:"permission"            json:"permission"`
	QuietStart           *string    `db:"quiet_start"           json:"quiet_start,omitempty"`
	QuietEnd             *string    `db:"quiet_end"             json:"quiet_end,omitempty"`
	UpdatedAt            time.Time  `db:"updated_at"            json:"updated_at"`
}

// QuietHours is a daily window in which reminders are not armed. The window
// may wrap midnight (22:00 to 05:00).
type QuietHours struct {
	Start ClockTime
	End   ClockTime
}

// Contains reports whether t's clock time falls inside [Start, End).
func (q QuietHours) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	s := q.Start.Hour*60 + q.Start.Minute
	e := q.End.Hour*60 + q.End.Minute
	switch {
	case s == e:
		return false
	case s < e:
		return m >= s && m < e
	default:
		return m >= s || m < e
	}
}

// Quiet returns the configured quiet hours, or nil when unset or unparsable.
func (p Preferences) Quiet() *QuietHours {
	if p.QuietStart == nil || p.QuietEnd == nil {
		return nil
	}
	s, err := ParseClockTime(*p.QuietStart)
	if err != nil {
		return nil
	}
	e, err := ParseClockTime(*p.QuietEnd)
	if err != nil {
		return nil
	}
	return &QuietHours{Start: s, End: e}
}

type LogStatus string

const (
	LogCompleted LogStatus = "completed"
	LogMissed    LogStatus = "missed"
)

// PrayerLogEntry records whether a prayer on a given day was performed.
type PrayerLogEntry struct {
	ID         int        `db:"id"          json:"id"`
	UserID     string     `db:"user_id"     json:"user_id"`
	Date       time.Time  `db:"prayer_date" json:"date"`
	Prayer     PrayerName `db:"prayer"      json:"prayer"`
	Status     LogStatus  `db:"status"      json:"status"`
	ActualTime *time.Time `db:"actual_time" json:"actual_time,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
}
