package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const preferenceColumns = `user_id, city, country, latitude, longitude, method, timezone,
	notifications_enabled, permission, quiet_start, quiet_end, updated_at`

func (s *pgStore) GetPreferences(ctx context.Context, userID string) (model.Preferences, error) {
	var p model.Preferences
	q := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1;`
	if err := s.db.GetContext(ctx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Preferences{}, ErrNotFound
		}
		log.Error().Err(err).Str("user_id", userID).Msg("GetPreferences failed")
		return model.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (s *pgStore) UpsertPreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	if p.Permission == "" {
		p.Permission = model.PermissionDefault
	}
	var out model.Preferences
	q := `
	INSERT INTO notification_preferences
		(user_id, city, country, latitude, longitude, method, timezone,
		 notifications_enabled, permission, quiet_start, quiet_end, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	ON CONFLICT (user_id) DO UPDATE SET
		city = EXCLUDED.city,
		country = EXCLUDED.country,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		method = EXCLUDED.method,
		timezone = EXCLUDED.timezone,
		notifications_enabled = EXCLUDED.notifications_enabled,
		permission = EXCLUDED.permission,
		quiet_start = EXCLUDED.quiet_start,
		quiet_end = EXCLUDED.quiet_end,
		updated_at = now()
	RETURNING ` + preferenceColumns + `;`
	err := s.db.GetContext(ctx, &out, q,
		p.UserID, p.City, p.Country, p.Latitude, p.Longitude, p.Method, p.Timezone,
		p.NotificationsEnabled, p.Permission, p.QuietStart, p.QuietEnd)
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID).Msg("UpsertPreferences failed")
		return model.Preferences{}, fmt.Errorf("upsert preferences: %w", err)
	}
	return out, nil
}

func (s *pgStore) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.updateOne(ctx, "SetNotificationsEnabled", userID,
		`UPDATE notification_preferences SET notifications_enabled = $2, updated_at = now() WHERE user_id = $1;`,
		enabled)
}

func (s *pgStore) SetPermission(ctx context.Context, userID string, p model.Permission) error {
	return s.updateOne(ctx, "SetPermission", userID,
		`UPDATE notification_preferences SET permission = $2, updated_at = now() WHERE user_id = $1;`,
		p)
}

func (s *pgStore) updateOne(ctx context.Context, op, userID, q string, arg any) error {
	res, err := s.db.ExecContext(ctx, q, userID, arg)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msgf("%s failed", op)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
