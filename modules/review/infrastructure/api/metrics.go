package api

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdesk",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of backend calls broken down by operation and result.",
	}, []string{"operation", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskdesk",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution of backend calls.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"operation", "result"})
)

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "client"
	}
	switch {
	case apiErr.Status == 0:
		return "transport"
	case apiErr.Status >= http.StatusInternalServerError:
		return "5xx"
	case apiErr.Status >= http.StatusBadRequest:
		return "4xx"
	default:
		return "rejected"
	}
}
