package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/prayer/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

// Timers hands out the running timer for a user.
type Timers interface {
	Get(ctx context.Context, userID string) (*prayer.Timer, error)
	Drop(userID string)
}

type PrayerController struct {
	store  db.Store
	timers Timers
	lead   time.Duration
	now    func() time.Time
}

func NewPrayerController(store db.Store, timers Timers, lead time.Duration) *PrayerController {
	if lead <= 0 {
		lead = prayer.DefaultLead
	}
	return &PrayerController{store: store, timers: timers, lead: lead, now: time.Now}
}

// Module mounts the prayer routes on an authenticated group.
func Module(store db.Store, timers Timers, lead time.Duration) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		RegisterPrayerRoutes(c.Group, NewPrayerController(store, timers, lead))
	})
}

func RegisterPrayerRoutes(r gin.IRoutes, ctl *PrayerController) {
	r.GET("/schedule", api.ResolveEndpointWithAuth(ctl.getSchedule))
	r.POST("/schedule/refresh", api.ResolveEndpointWithAuth(ctl.refreshSchedule))
	r.GET("/stream", api.ResolveEndpointWithAuth(ctl.streamSchedule))
	r.GET("/calendar.ics", api.ResolveEndpointWithAuth(ctl.calendar))

	r.GET("/preferences", api.ResolveEndpointWithAuth(ctl.getPreferences))
	r.PUT("/preferences", api.ResolveEndpointWithAuth(ctl.updatePreferences))
	r.PUT("/notifications", api.ResolveEndpointWithAuth(ctl.setNotifications))
	r.PUT("/permission", api.ResolveEndpointWithAuth(ctl.setPermission))
	r.POST("/permission/request", api.ResolveEndpointWithAuth(ctl.requestPermission))

	r.POST("/log", api.ResolveEndpointWithAuth(ctl.logPrayer))
	r.GET("/tracker", api.ResolveEndpointWithAuth(ctl.tracker))
}

func (p *PrayerController) timer(ctx *gin.Context, userID string) (*prayer.Timer, *api.Error) {
	t, err := p.timers.Get(ctx.Request.Context(), userID)
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, db.ErrNotFound):
		return nil, &api.Error{Code: http.StatusNotFound, Message: "preferences not set"}
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("failed to start prayer timer")
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not load schedule"}
	}
}

// GET /api/prayer/schedule
func (p *PrayerController) getSchedule(ctx *gin.Context, userID string) (any, *api.Error) {
	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return packets.NewScheduleResponse(t.View()), nil
}

// POST /api/prayer/schedule/refresh
func (p *PrayerController) refreshSchedule(ctx *gin.Context, userID string) (any, *api.Error) {
	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	// a failed lookup is reported through the view's state
	if err := t.Refresh(ctx.Request.Context()); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("manual refresh failed")
	}
	return packets.NewScheduleResponse(t.View()), nil
}
