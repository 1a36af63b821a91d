package server

import (
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/taskdesk/internal/stubapi"
	"github.com/iota-uz/taskdesk/pkg/configuration"
	"github.com/iota-uz/taskdesk/pkg/metrics"
	"github.com/iota-uz/taskdesk/pkg/middleware"
	"github.com/iota-uz/taskdesk/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Backend       *stubapi.Backend
}

// Default builds the stub backend server. Metrics, CORS and rate limiting are
// switched on by configuration.
func Default(options *DefaultOptions) *server.HTTPServer {
	conf := options.Configuration
	var extra []server.Controller
	if conf.Prometheus.Enabled {
		extra = append(extra, metrics.NewController(conf.Prometheus.Path))
	}
	srv := stubapi.NewServer(options.Backend, options.Logger, extra...)

	if len(conf.StubCORSOrigins) > 0 {
		srv.Middlewares = append(srv.Middlewares, middleware.Cors(conf.StubCORSOrigins...))
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		srv.Middlewares = append(srv.Middlewares, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.GlobalRPS,
			Store:             store,
		}))
	}
	return srv
}
