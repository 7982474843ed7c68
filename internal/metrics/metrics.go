// Package metrics exposes Prometheus collectors for the cache-aside path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shortlink"

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"

	OpSet    = "set"
	OpDelete = "delete"

	PathSync  = "sync"
	PathAsync = "async"
)

type Metrics struct {
	cacheLookups       *prometheus.CounterVec
	cacheErrors        *prometheus.CounterVec
	counterIncFailures *prometheus.CounterVec
	codeCollisions     prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache writes that failed and were ignored.",
		}, []string{"op"}),
		counterIncFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "urls",
			Name:      "access_count_failures_total",
			Help:      "Access counter increments that failed, by path.",
		}, []string{"path"}),
		codeCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "urls",
			Name:      "short_code_collisions_total",
			Help:      "Generated short codes that were already taken.",
		}),
	}
}

func (m *Metrics) CacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheError(op string) {
	m.cacheErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) AccessCountFailure(path string) {
	m.counterIncFailures.WithLabelValues(path).Inc()
}

func (m *Metrics) CodeCollision() {
	m.codeCollisions.Inc()
}
