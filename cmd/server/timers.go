package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

// TimerFactory builds a user's timer from their stored preferences.
func TimerFactory(cfg *config.Config, store db.Store, lookup prayer.Lookup, notifiers *Notifiers) prayer.Factory {
	return func(ctx context.Context, userID string) (*prayer.Timer, error) {
		prefs, err := store.GetPreferences(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load preferences for %s: %w", userID, err)
		}
		loc := prefs.Location
		if loc.Method <= 0 {
			loc.Method = cfg.PrayerMethod
		}
		logger := log.With().Str("user_id", userID).Logger()

		return prayer.NewTimer(prayer.SystemClock, lookup, notifiers.For(userID), loc, prayer.Options{
			Lead:                 cfg.NotifyLead,
			Tick:                 cfg.TickInterval,
			Quiet:                prefs.Quiet(),
			NotificationsEnabled: prefs.NotificationsEnabled,
			Permission:           prefs.Permission,
			Logger:               &logger,
		}), nil
	}
}
