// Package metrics holds the Prometheus collectors for the catalogue service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "abc"

// Classification outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeDegraded = "degraded"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected" // circuit breaker open
)

// Metrics is the set of collectors registered on one registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Classifications    *prometheus.CounterVec
	ClassifyDuration   prometheus.Histogram
	PollAttempts       prometheus.Histogram
	BreakerState       prometheus.Gauge
	BooksCreated       prometheus.Counter
	CategoryOverrides  *prometheus.CounterVec
	SearchQueries      prometheus.Counter
	DescriptionLookups *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classification requests by outcome.",
		}, []string{"outcome"}),

		ClassifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Wall time of submit plus poll against the classification service.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),

		PollAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_poll_attempts",
			Help:      "Poll attempts used per classification job.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),

		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classifier_circuit_state",
			Help:      "Classifier circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),

		BooksCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_created_total",
			Help:      "Books persisted.",
		}),

		CategoryOverrides: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_overrides_total",
			Help:      "User category updates, split by whether the value is in the label set.",
		}, []string{"valid"}),

		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Full-text search queries served.",
		}),

		DescriptionLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "description_lookups_total",
			Help:      "Description lookups by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveClassification records one classification outcome and, for network
// round trips, how long it took and how many polls it used.
func (m *Metrics) ObserveClassification(outcome string, elapsed time.Duration, attempts int) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.ClassifyDuration.Observe(elapsed.Seconds())
		m.PollAttempts.Observe(float64(attempts))
	}
}

// SetBreakerState records the classifier circuit state.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// BookCreated counts a persisted book.
func (m *Metrics) BookCreated() {
	if m == nil {
		return
	}
	m.BooksCreated.Inc()
}

// CategoryOverridden counts a user category update.
func (m *Metrics) CategoryOverridden(valid bool) {
	if m == nil {
		return
	}
	label := "false"
	if valid {
		label = "true"
	}
	m.CategoryOverrides.WithLabelValues(label).Inc()
}

// SearchServed counts a full-text query.
func (m *Metrics) SearchServed() {
	if m == nil {
		return
	}
	m.SearchQueries.Inc()
}

// DescriptionLookedUp counts a description lookup ("found", "not_found", "error").
func (m *Metrics) DescriptionLookedUp(result string) {
	if m == nil {
		return
	}
	m.DescriptionLookups.WithLabelValues(result).Inc()
}
