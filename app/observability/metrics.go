package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sport_booking"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthEventsTotal   *prometheus.CounterVec
	RateLimitedTotal  *prometheus.CounterVec
	ResetTokensPruned prometheus.Counter

	// Integration metrics
	MailDeliveriesTotal *prometheus.CounterVec
	YClientsAuthTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Authentication flow outcomes",
			},
			[]string{"event", "outcome"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
		ResetTokensPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "password_reset_tokens_pruned_total",
				Help:      "Expired or used password reset tokens removed by the cleanup job",
			},
		),
		MailDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mail_deliveries_total",
				Help:      "Outgoing email attempts",
			},
			[]string{"template", "outcome"},
		),
		YClientsAuthTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "yclients_auth_requests_total",
				Help:      "YClients user token exchanges",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.RateLimitedTotal,
		m.ResetTokensPruned,
		m.MailDeliveriesTotal,
		m.YClientsAuthTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) RecordMailDelivery(template, outcome string) {
	m.MailDeliveriesTotal.WithLabelValues(template, outcome).Inc()
}

func (m *Metrics) RecordAuthEvent(event, outcome string) {
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) RecordYClientsAuth(outcome string) {
	m.YClientsAuthTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRateLimited(path string) {
	m.RateLimitedTotal.WithLabelValues(path).Inc()
}

func (m *Metrics) RecordResetTokensPruned(n int64) {
	m.ResetTokensPruned.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
