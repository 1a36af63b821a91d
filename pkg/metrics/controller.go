// Package metrics serves prometheus collectors over HTTP.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iota-uz/taskdesk/pkg/server"
)

const DefaultPath = "/debug/prometheus"

type Option func(*Controller)

// WithGatherer serves g instead of the default registry, which holds the
// taskdesk_api_* collectors.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Controller) { c.gatherer = g }
}

// Controller exposes a gatherer in the text exposition format. Collection
// errors are logged into the response and the remaining metrics still served.
type Controller struct {
	path     string
	gatherer prometheus.Gatherer
}

var _ server.Controller = (*Controller)(nil)

func NewController(path string, opts ...Option) *Controller {
	if path == "" {
		path = DefaultPath
	}
	c := &Controller{path: path, gatherer: prometheus.DefaultGatherer}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Key() string {
	return c.path
}

func (c *Controller) Register(r *mux.Router) {
	h := promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
	r.Handle(c.path, h).Methods(http.MethodGet, http.MethodHead)
}
