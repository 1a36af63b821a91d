package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/taskdesk/internal/server"
	"github.com/iota-uz/taskdesk/internal/stubapi"
	"github.com/iota-uz/taskdesk/pkg/configuration"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDefault_MetricsToggle(t *testing.T) {
	cfg := &configuration.Configuration{}
	cfg.Prometheus.Path = "/debug/prometheus"

	b := stubapi.New(stubapi.Options{})
	stubapi.Seed(b)

	off := server.Default(&server.DefaultOptions{Logger: quietLogger(), Configuration: cfg, Backend: b})
	rec := get(t, off.Handler(), "/debug/prometheus")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")

	cfg.Prometheus.Enabled = true
	on := server.Default(&server.DefaultOptions{Logger: quietLogger(), Configuration: cfg, Backend: b})
	rec = get(t, on.Handler(), "/debug/prometheus")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = get(t, on.Handler(), "/v1/position/"+b.OrgID().String())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDefault_RateLimit(t *testing.T) {
	cfg := &configuration.Configuration{}
	cfg.RateLimit = configuration.RateLimitOptions{Enabled: true, GlobalRPS: 1, Storage: "memory"}

	b := stubapi.New(stubapi.Options{})
	h := server.Default(&server.DefaultOptions{Logger: quietLogger(), Configuration: cfg, Backend: b}).Handler()

	path := "/v1/position/" + b.OrgID().String()
	assert.Equal(t, http.StatusOK, get(t, h, path).Code)
	rec := get(t, h, path)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")
}

func TestDefault_RedisStoreFallsBackToMemory(t *testing.T) {
	cfg := &configuration.Configuration{}
	cfg.RateLimit = configuration.RateLimitOptions{Enabled: true, GlobalRPS: 10, Storage: "redis", RedisURL: "redis://127.0.0.1:1/0"}

	b := stubapi.New(stubapi.Options{})
	h := server.Default(&server.DefaultOptions{Logger: quietLogger(), Configuration: cfg, Backend: b}).Handler()
	assert.Equal(t, http.StatusOK, get(t, h, "/v1/position/"+b.OrgID().String()).Code)
}

func TestDefault_CORSPreflight(t *testing.T) {
	cfg := &configuration.Configuration{StubCORSOrigins: []string{"http://localhost:3000"}}

	b := stubapi.New(stubapi.Options{Token: "secret"})
	h := server.Default(&server.DefaultOptions{Logger: quietLogger(), Configuration: cfg, Backend: b}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/position/"+b.OrgID().String(), nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
