package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.FromEnv(func(k string) string {
		return map[string]string{
			"DATABASE_URL": "postgres://localhost/athan",
			"JWT_SECRET":   "0123456789abcdef0123",
		}[k]
	})
	if err != nil {
		t.Fatal(err)
	}
	registry := prayer.NewRegistry(func(ctx context.Context, userID string) (*prayer.Timer, error) {
		return nil, db.ErrNotFound
	})
	t.Cleanup(registry.Close)

	r := gin.New()
	RegisterRoutes(r, cfg, db.NewStore(nil), registry)
	return r
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPrayerRoutesRequireToken(t *testing.T) {
	r := testRouter(t)
	for _, path := range []string{"/api/prayer/schedule", "/api/prayer/tracker", "/api/prayer/calendar.ics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/prayer/schedule", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
