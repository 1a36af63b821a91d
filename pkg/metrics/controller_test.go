package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/taskdesk/pkg/metrics"
)

func TestController_ServesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	calls := prometheus.NewCounter(prometheus.CounterOpts{Name: "taskdesk_test_calls_total", Help: "Calls."})
	reg.MustRegister(calls)
	calls.Add(3)

	c := metrics.NewController("", metrics.WithGatherer(reg))
	assert.Equal(t, metrics.DefaultPath, c.Key())

	r := mux.NewRouter()
	c.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, metrics.DefaultPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "taskdesk_test_calls_total 3")
	assert.NotContains(t, string(body), "go_goroutines")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, metrics.DefaultPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
