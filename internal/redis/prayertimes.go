package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

// TimingsTTL is longer than a day; keys carry the date so entries never collide.
const TimingsTTL = 36 * time.Hour

type cachedSlot struct {
	Name model.PrayerName `json:"name"`
	Time string           `json:"time"`
}

type cachedTimetable struct {
	Timezone string       `json:"timezone,omitempty"`
	Slots    []cachedSlot `json:"slots"`
}

// CachedLookup keeps one day's timings per location in redis. Only successful
// lookups are stored; cache failures fall through to the wrapped lookup.
type CachedLookup struct {
	next  prayer.Lookup
	cache Cache
	ttl   time.Duration
}

var _ prayer.Lookup = (*CachedLookup)(nil)

func NewCachedLookup(next prayer.Lookup, cache Cache) *CachedLookup {
	return &CachedLookup{next: next, cache: cache, ttl: TimingsTTL}
}

func TimingsKey(loc model.Location, day time.Time) string {
	return fmt.Sprintf("prayer:times:%s:%s", loc.Key(), day.Format("2006-01-02"))
}

func (c *CachedLookup) FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error) {
	key := TimingsKey(loc, day)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		tt, derr := decodeTimetable(raw)
		if derr == nil {
			return tt, nil
		}
		log.Warn().Err(derr).Str("key", key).Msg("discarding unreadable cached timings")
	case !errors.Is(err, ErrMiss):
		log.Warn().Err(err).Str("key", key).Msg("redis get failed, bypassing cache")
	}

	tt, err := c.next.FetchPrayerTimes(ctx, loc, day)
	if err != nil {
		return model.Timetable{}, err
	}
	if raw, err := encodeTimetable(tt); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to add timings to redis")
		}
	}
	return tt, nil
}

func encodeTimetable(tt model.Timetable) ([]byte, error) {
	out := cachedTimetable{Timezone: tt.Timezone, Slots: make([]cachedSlot, len(tt.Slots))}
	for i, s := range tt.Slots {
		out.Slots[i] = cachedSlot{Name: s.Name, Time: s.Time.String()}
	}
	return json.Marshal(out)
}

func decodeTimetable(raw []byte) (model.Timetable, error) {
	var in cachedTimetable
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.Timetable{}, err
	}
	if len(in.Slots) == 0 {
		return model.Timetable{}, errors.New("empty timings")
	}
	tt := model.Timetable{Timezone: in.Timezone, Slots: make([]model.PrayerSlot, len(in.Slots))}
	for i, s := range in.Slots {
		ct, err := model.ParseClockTime(s.Time)
		if err != nil {
			return model.Timetable{}, err
		}
		tt.Slots[i] = model.PrayerSlot{Name: s.Name, Time: ct}
	}
	return tt, nil
}
