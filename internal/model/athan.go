package model

import (
	"fmt"
	"strings"
	"time"
)

type PrayerName string

const (
	Fajr    PrayerName = "Fajr"
	Dhuhr   PrayerName = "Dhuhr"
	Asr     PrayerName = "Asr"
	Maghrib PrayerName = "Maghrib"
	Isha    PrayerName = "Isha"
)

// DailyPrayers is the fixed order of the five obligatory prayers.
var DailyPrayers = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ParsePrayerName matches case-insensitively ("MAGHRIB", "maghrib").
func ParsePrayerName(s string) (PrayerName, error) {
	for _, p := range DailyPrayers {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q", s)
}

// ClockTime is a time of day with no date or zone attached.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime reads "HH:MM". Anything after the first space is dropped,
// so the lookup API's "05:12 (EDT)" form is accepted.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return c, nil
}

func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock time on day's calendar date, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// PrayerSlot is one obligatory prayer for the current day.
type PrayerSlot struct {
	Name PrayerName `json:"name"`
	Time ClockTime  `json:"-"`
}

// Timetable is one day's prayers for a location. Timezone is the IANA zone
// the clock times are published in, empty when the source does not say.
type Timetable struct {
	Timezone string
	Slots    []PrayerSlot
}

// Zone loads Timezone. ok is false when it is empty or unknown.
func (t Timetable) Zone() (*time.Location, bool) {
	if t.Timezone == "" {
		return nil, false
	}
	tz, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, false
	}
	return tz, true
}

// SlotStatus is recomputed on every tick and never stored.
type SlotStatus string

const (
	StatusCompleted SlotStatus = "completed"
	StatusNext      SlotStatus = "next"
	StatusUpcoming  SlotStatus = "upcoming"
)

// Permission mirrors the host notification facility's permission state.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionDefault, PermissionGranted, PermissionDenied, PermissionUnsupported:
		return p, nil
	case "":
		return PermissionDefault, nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Location selects which prayer times are fetched. Coordinates take
// precedence over city/country when both are set.
type Location struct {
	City      string   `db:"city"      json:"city"`
	Country   string   `db:"country"   json:"country"`
	Latitude  *float64 `db:"latitude"  json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
	Method    int      `db:"method"    json:"method"`
	Timezone  string   `db:"timezone"  json:"timezone"`
}

func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Key identifies the location in cache keys.
func (l Location) Key() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("geo:%.4f,%.4f:m%d", *l.Latitude, *l.Longitude, l.Method)
	}
	return fmt.Sprintf("city:%s,%s:m%d",
		strings.ToLower(strings.TrimSpace(l.City)),
		strings.ToLower(strings.TrimSpace(l.Country)),
		l.Method)
}

func (l Location) Valid() bool {
	return l.HasCoordinates() || (strings.TrimSpace(l.City) != "" && strings.TrimSpace(l.Country) != "")
}

// TimeLocation resolves Timezone, falling back to the process zone.
func (l Location) TimeLocation() *time.Location {
	if l.Timezone == "" {
		return time.Local
	}
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.Local
	}
	return tz
}
