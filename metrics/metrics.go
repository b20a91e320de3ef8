// Package metrics collects and exposes Prometheus metrics for the
// authentication pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements secrets.MetricsRecorder on Prometheus counters.
type Collector struct {
	loginAttempts *prometheus.CounterVec
	registrations prometheus.Counter
	logouts       prometheus.Counter
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secrets_login_attempts_total",
			Help: "Login attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "secrets_registrations_total",
			Help: "Successful local registrations.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "secrets_logouts_total",
			Help: "Logout requests.",
		}),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.registrations,
		c.logouts,
	)

	return c
}

// RecordLogin counts one login attempt. Outcome is one of success,
// rejected or error.
func (c *Collector) RecordLogin(strategy, outcome string) {
	c.loginAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordRegistration counts one successful registration.
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogout counts one logout request.
func (c *Collector) RecordLogout() {
	c.logouts.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
