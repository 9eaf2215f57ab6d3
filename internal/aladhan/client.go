// Package aladhan fetches daily prayer times from the Aladhan timings API.
package aladhan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const (
	DefaultBaseURL = "https://api.aladhan.com/v1"
	// ISNA, the method the dashboard integration has always used.
	DefaultMethod = 2
)

// ErrUnavailable wraps every lookup failure.
var ErrUnavailable = errors.New("prayer times unavailable")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// FetchPrayerTimes returns the five prayers for day at loc, in daily order,
// with the zone the API resolved for the location. One request, no retry.
func (c *Client) FetchPrayerTimes(ctx context.Context, loc model.Location, day time.Time) (model.Timetable, error) {
	if !loc.Valid() {
		return model.Timetable{}, fmt.Errorf("%w: location needs a city and country or coordinates", ErrUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.timingsURL(loc, day), nil)
	if err != nil {
		return model.Timetable{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return model.Timetable{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Timetable{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Timetable{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Code != http.StatusOK {
		return model.Timetable{}, fmt.Errorf("%w: api code %d (%s)", ErrUnavailable, body.Code, body.Status)
	}

	slots := make([]model.PrayerSlot, 0, len(model.DailyPrayers))
	for _, p := range model.DailyPrayers {
		raw, ok := body.Data.Timings[string(p)]
		if !ok {
			return model.Timetable{}, fmt.Errorf("%w: missing %s timing", ErrUnavailable, p)
		}
		ct, err := model.ParseClockTime(raw)
		if err != nil {
			return model.Timetable{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, p, err)
		}
		slots = append(slots, model.PrayerSlot{Name: p, Time: ct})
	}
	return model.Timetable{Timezone: body.Data.Meta.Timezone, Slots: slots}, nil
}

func (c *Client) timingsURL(loc model.Location, day time.Time) string {
	method := loc.Method
	if method <= 0 {
		method = DefaultMethod
	}
	q := url.Values{}
	q.Set("method", strconv.Itoa(method))
	date := day.Format("02-01-2006")

	if loc.HasCoordinates() {
		q.Set("latitude", strconv.FormatFloat(*loc.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(*loc.Longitude, 'f', -1, 64))
		if loc.Timezone != "" {
			q.Set("timezonestring", loc.Timezone)
		}
		return fmt.Sprintf("%s/timings/%s?%s", c.BaseURL, date, q.Encode())
	}
	q.Set("city", loc.City)
	q.Set("country", loc.Country)
	return fmt.Sprintf("%s/timingsByCity/%s?%s", c.BaseURL, date, q.Encode())
}
