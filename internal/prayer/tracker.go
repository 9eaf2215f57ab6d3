package prayer

import (
	"math"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// DayRecord is one row of the consistency grid.
type DayRecord struct {
	Date    string                      `json:"date"`
	Weekday string                      `json:"weekday"`
	Prayers map[model.PrayerName]string `json:"prayers"`
}

type MissedPrayer struct {
	Prayer model.PrayerName `json:"prayer"`
	Date   string           `json:"date"`
}

type Summary struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Days        []DayRecord    `json:"days"`
	Completed   int            `json:"completed"`
	Consistency int            `json:"consistency"`
	Missed      []MissedPrayer `json:"missed"`
}

// Summarize builds the consistency grid for the `days` days ending on today.
// Consistency is completed prayers over all prayers in the window, as a
// rounded percentage. Only entries explicitly logged as missed count toward
// the qada list; unlogged prayers stay "upcoming".
func Summarize(entries []model.PrayerLogEntry, days int, today time.Time) Summary {
	if days <= 0 {
		days = 7
	}
	byDay := make(map[string]map[model.PrayerName]model.LogStatus)
	for _, e := range entries {
		k := dayKey(e.Date)
		if byDay[k] == nil {
			byDay[k] = make(map[model.PrayerName]model.LogStatus)
		}
		byDay[k][e.Prayer] = e.Status
	}

	first := today.AddDate(0, 0, -(days - 1))
	s := Summary{From: dayKey(first), To: dayKey(today), Missed: []MissedPrayer{}}
	for i := 0; i < days; i++ {
		d := first.AddDate(0, 0, i)
		k := dayKey(d)
		rec := DayRecord{
			Date:    k,
			Weekday: d.Weekday().String()[:3],
			Prayers: make(map[model.PrayerName]string, len(model.DailyPrayers)),
		}
		for _, p := range model.DailyPrayers {
			st := "upcoming"
			switch byDay[k][p] {
			case model.LogCompleted:
				st = string(model.LogCompleted)
				s.Completed++
			case model.LogMissed:
				st = string(model.LogMissed)
				s.Missed = append(s.Missed, MissedPrayer{Prayer: p, Date: k})
			}
			rec.Prayers[p] = st
		}
		s.Days = append(s.Days, rec)
	}
	total := days * len(model.DailyPrayers)
	s.Consistency = int(math.Round(float64(s.Completed) / float64(total) * 100))
	return s
}
