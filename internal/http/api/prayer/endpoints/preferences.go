package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/prayer/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

var errPreferencesNotSet = &api.Error{Code: http.StatusNotFound, Message: "preferences not set"}

// GET /api/prayer/preferences
func (p *PrayerController) getPreferences(ctx *gin.Context, userID string) (any, *api.Error) {
	prefs, err := p.store.GetPreferences(ctx.Request.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errPreferencesNotSet
	}
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not load preferences"}
	}
	return packets.NewPreferencesResponse(prefs), nil
}

// PUT /api/prayer/preferences
// Saves location and quiet hours and restarts the user's timer with them.
func (p *PrayerController) updatePreferences(ctx *gin.Context, userID string) (any, *api.Error) {
	var req packets.UpdatePreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	loc := model.Location{
		City:      strings.TrimSpace(req.City),
		Country:   strings.TrimSpace(req.Country),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Method:    req.Method,
		Timezone:  strings.TrimSpace(req.Timezone),
	}
	if !loc.Valid() {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "city and country, or latitude and longitude, are required"}
	}
	if loc.Timezone != "" {
		if _, err := time.LoadLocation(loc.Timezone); err != nil {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: "unknown timezone"}
		}
	}
	if (req.QuietStart == nil) != (req.QuietEnd == nil) {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "quiet_start and quiet_end must be set together"}
	}
	for _, s := range []*string{req.QuietStart, req.QuietEnd} {
		if s == nil {
			continue
		}
		if _, err := model.ParseClockTime(*s); err != nil {
			return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
		}
	}

	current, err := p.store.GetPreferences(ctx.Request.Context(), userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not load preferences"}
	}
	current.UserID = userID
	current.Location = loc
	current.QuietStart, current.QuietEnd = req.QuietStart, req.QuietEnd

	saved, err := p.store.UpsertPreferences(ctx.Request.Context(), current)
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not save preferences"}
	}
	p.timers.Drop(userID)
	log.Info().Str("user_id", userID).Str("location", loc.Key()).Msg("preferences updated")

	return packets.NewPreferencesResponse(saved), nil
}

// PUT /api/prayer/notifications
func (p *PrayerController) setNotifications(ctx *gin.Context, userID string) (any, *api.Error) {
	var req packets.SetNotificationsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	err := p.store.SetNotificationsEnabled(ctx.Request.Context(), userID, *req.Enabled)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errPreferencesNotSet
	}
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not save setting"}
	}

	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	t.SetNotificationsEnabled(*req.Enabled)
	return packets.NewScheduleResponse(t.View()), nil
}

// PUT /api/prayer/permission
// Devices report the host's permission state here.
func (p *PrayerController) setPermission(ctx *gin.Context, userID string) (any, *api.Error) {
	var req packets.SetPermissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	perm, err := model.ParsePermission(req.Permission)
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: err.Error()}
	}

	err = p.store.SetPermission(ctx.Request.Context(), userID, perm)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errPreferencesNotSet
	}
	if err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not save permission"}
	}

	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	t.SetPermission(perm)
	return packets.NewScheduleResponse(t.View()), nil
}

// POST /api/prayer/permission/request
func (p *PrayerController) requestPermission(ctx *gin.Context, userID string) (any, *api.Error) {
	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	perm, err := t.RequestPermission(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("permission request failed")
		return nil, &api.Error{Code: http.StatusBadGateway, Message: "could not reach notification devices"}
	}
	if perm != model.PermissionDefault {
		if err := p.store.SetPermission(ctx.Request.Context(), userID, perm); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to store permission")
		}
	}
	return packets.PermissionResponse{Permission: perm}, nil
}
