// Package metrics exposes Prometheus counters for page navigations and
// account operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recipeapp/recipe-app/view"
)

// Auth operation results
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Collector implements view.Recorder and counts auth attempts
type Collector struct {
	navigations  *prometheus.CounterVec
	viewDuration *prometheus.HistogramVec
	authAttempts *prometheus.CounterVec
	gatherer     prometheus.Gatherer
}

// NewCollector creates the metrics and registers them with reg
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeapp_navigations_total",
			Help: "Page navigations by route and final state.",
		}, []string{"route", "state"}),
		viewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipeapp_view_settle_seconds",
			Help:    "Time from navigation start until the final view was shown.",
			Buckets: []float64{.01, .05, .1, .2, .5, 1, 2, 5, 10},
		}, []string{"route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeapp_auth_attempts_total",
			Help: "Register, login and logout calls by result.",
		}, []string{"op", "result"}),
		gatherer: reg,
	}
	reg.MustRegister(c.navigations, c.viewDuration, c.authAttempts)
	return c
}

func (c *Collector) RecordNavigation(route string, state view.State, elapsed time.Duration) {
	c.navigations.WithLabelValues(route, state.String()).Inc()
	if state.Settled() {
		c.viewDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	}
}

// RecordAuth counts one register, login or logout call
func (c *Collector) RecordAuth(op string, ok bool, err error) {
	result := ResultSuccess
	switch {
	case err != nil:
		result = ResultError
	case !ok:
		result = ResultRejected
	}
	c.authAttempts.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
