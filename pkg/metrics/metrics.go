// Package metrics holds the prometheus collectors shared by the entitlement
// and quota packages. All recording methods are safe on a nil *Metrics so
// components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flashly"

// Verification outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_input"
	OutcomeFailure     = "failure"
	OutcomeCircuitOpen = "circuit_open"
)

// Tier resolution sources.
const (
	SourceNoSubscription = "no_subscription"
	SourceVerified       = "verified"
	SourceRevoked        = "revoked"
)

// Quota decisions.
const (
	DecisionGranted  = "granted"
	DecisionPartial  = "partial"
	DecisionExceeded = "exceeded"
)

type Metrics struct {
	verifications        *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	tierResolutions      *prometheus.CounterVec
	quotaDecisions       *prometheus.CounterVec
	storeRetries         prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Panics if a collector is already registered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "play",
				Name:      "verifications_total",
				Help:      "Google Play subscription verifications by outcome.",
			},
			[]string{"outcome"},
		),
		verificationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "play",
				Name:      "verification_duration_seconds",
				Help:      "Latency of Google Play subscription lookups.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		tierResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tier",
				Name:      "resolutions_total",
				Help:      "Tier resolutions by resulting tier and source.",
			},
			[]string{"tier", "source"},
		),
		quotaDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quota",
				Name:      "decisions_total",
				Help:      "Quota checks by resource and decision.",
			},
			[]string{"resource", "decision"},
		),
		storeRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "entitlement",
				Name:      "upsert_retries_total",
				Help:      "Upserts retried after a unique constraint race.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route pattern and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.verifications,
		m.verificationDuration,
		m.tierResolutions,
		m.quotaDecisions,
		m.storeRetries,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveVerification(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
	m.verificationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTierResolution(tier int, source string) {
	if m == nil {
		return
	}
	label := "free"
	if tier > 0 {
		label = "premium"
	}
	m.tierResolutions.WithLabelValues(label, source).Inc()
}

func (m *Metrics) ObserveQuotaDecision(resource, decision string) {
	if m == nil {
		return
	}
	m.quotaDecisions.WithLabelValues(resource, decision).Inc()
}

func (m *Metrics) ObserveUpsertRetry() {
	if m == nil {
		return
	}
	m.storeRetries.Inc()
}

// ObserveHTTPRequest records one served request. route is the router
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
