package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

const productID = "-//Nixie Tech//athan//EN"

// GET /api/prayer/calendar.ics
// Today's prayers as events, each with a display alarm lead before it.
func (p *PrayerController) calendar(ctx *gin.Context, userID string) (any, *api.Error) {
	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	v := t.View()
	if v.State != prayer.StateReady {
		return nil, &api.Error{Code: http.StatusServiceUnavailable, Message: "prayer times unavailable"}
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(p.buildCalendar(userID, v)); err != nil {
		return nil, &api.Error{Code: http.StatusInternalServerError, Message: "could not encode calendar"}
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=prayers-%s.ics", v.Date))
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
	return nil, nil
}

func (p *PrayerController) buildCalendar(userID string, v prayer.View) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	stamp := p.now().UTC()
	for _, s := range v.Slots {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s-%s@athan", userID, v.Date, strings.ToLower(string(s.Name))))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, s.Instant.UTC())
		event.Props.SetText(ical.PropSummary, string(s.Name))

		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = triggerValue(p.lead)
		alarm.Props.Set(trigger)
		alarm.Props.SetText(ical.PropDescription, prayer.NotificationBody(s.Name, p.lead))
		event.Children = append(event.Children, alarm)

		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

// triggerValue renders a negative iCalendar duration, e.g. -PT1M.
func triggerValue(lead time.Duration) string {
	m := int(lead.Round(time.Minute) / time.Minute)
	if m <= 0 {
		return "PT0M"
	}
	return fmt.Sprintf("-PT%dM", m)
}
