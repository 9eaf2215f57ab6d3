package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// RecordPrayer stores the status of one prayer on one day, replacing any
// earlier entry for the same prayer.
func (s *pgStore) RecordPrayer(ctx context.Context, e model.PrayerLogEntry) (model.PrayerLogEntry, error) {
	var out model.PrayerLogEntry
	const q = `
	INSERT INTO prayer_log (user_id, prayer_date, prayer, status, actual_time)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, prayer_date, prayer) DO UPDATE SET
		status = EXCLUDED.status,
		actual_time = EXCLUDED.actual_time
	RETURNING id, user_id, prayer_date, prayer, status, actual_time, created_at;`
	err := s.db.GetContext(ctx, &out, q,
		e.UserID, e.Date.Format("2006-01-02"), e.Prayer, e.Status, e.ActualTime)
	if err != nil {
		log.Error().Err(err).Str("user_id", e.UserID).Msg("RecordPrayer failed")
		return model.PrayerLogEntry{}, fmt.Errorf("record prayer: %w", err)
	}
	return out, nil
}

// ListPrayerLog returns entries with from <= prayer_date <= to, oldest first.
func (s *pgStore) ListPrayerLog(ctx context.Context, userID string, from, to time.Time) ([]model.PrayerLogEntry, error) {
	out := []model.PrayerLogEntry{}
	const q = `
	SELECT id, user_id, prayer_date, prayer, status, actual_time, created_at
	  FROM prayer_log
	 WHERE user_id = $1 AND prayer_date BETWEEN $2 AND $3
	 ORDER BY prayer_date, id;`
	if err := s.db.SelectContext(ctx, &out, q, userID, from.Format("2006-01-02"), to.Format("2006-01-02")); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("ListPrayerLog failed")
		return nil, fmt.Errorf("list prayer log: %w", err)
	}
	return out, nil
}
