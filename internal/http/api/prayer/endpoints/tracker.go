package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/prayer/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

const maxTrackerDays = 31

// today returns the current date in the zone the user's timer reads prayer
// times in, UTC for users without preferences.
func (p *PrayerController) today(ctx *gin.Context, userID string) time.Time {
	tz := time.UTC
	if t, err := p.timers.Get(ctx.Request.Context(), userID); err == nil {
		tz = t.Location()
	}
	y, m, d := p.now().In(tz).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, tz)
}

// POST /api/prayer/log
func (p *PrayerController) logPrayer(ctx *gin.Context, userID string) (any, *api.Error) {
	var req packets.LogPrayerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	name, err := model.ParsePrayerName(req.Prayer)
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	today := p.today(ctx, userID)
	day := today
	if req.Date != "" {
		day, err = time.ParseInLocation("2006-01-02", req.Date, today.Location())
		if err != nil {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
		}
		if day.After(today) {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: "cannot log a future day"}
		}
	}

	entry := model.PrayerLogEntry{
		UserID: userID,
		Date:   day,
		Prayer: name,
		Status: model.LogStatus(req.Status),
	}
	if req.ActualTime != nil {
		at, err := time.Parse(time.RFC3339, *req.ActualTime)
		if err != nil {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: "actual_time must be RFC3339"}
		}
		entry.ActualTime = &at
	}

	saved, err := p.store.RecordPrayer(ctx.Request.Context(), entry)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not record prayer"}
	}
	return packets.NewPrayerLogResponse(saved), nil
}

// GET /api/prayer/tracker?days=7
func (p *PrayerController) tracker(ctx *gin.Context, userID string) (any, *api.Error) {
	days := 7
	if raw := ctx.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrackerDays {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: "days must be between 1 and 31"}
		}
		days = n
	}

	today := p.today(ctx, userID)
	from := today.AddDate(0, 0, -(days - 1))
	entries, err := p.store.ListPrayerLog(ctx.Request.Context(), userID, from, today)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not load prayer log"}
	}
	return prayer.Summarize(entries, days, today), nil
}
