// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// ErrNotFound is returned when a user has no stored row.
var ErrNotFound = errors.New("not found")

type Store interface {
	// preference functions
	GetPreferences(ctx context.Context, userID string) (model.Preferences, error)
	UpsertPreferences(ctx context.Context, p model.Preferences) (model.Preferences, error)
	SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error
	SetPermission(ctx context.Context, userID string, p model.Permission) error

	// prayer log functions
	RecordPrayer(ctx context.Context, e model.PrayerLogEntry) (model.PrayerLogEntry, error)
	ListPrayerLog(ctx context.Context, userID string, from, to time.Time) ([]model.PrayerLogEntry, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

// NewStore wraps db, or the package DB when db is nil.
func NewStore(db *sqlx.DB) Store {
	if db == nil {
		db = DB
	}
	return &pgStore{db: db}
}
