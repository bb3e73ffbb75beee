// Package metrics provides the Prometheus collectors shared by the API and
// web servers. Collectors are registered on a caller-supplied registry so both
// servers can run in one process.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogboard"

// Metrics groups the domain collectors.
type Metrics struct {
	QueryFetches    *prometheus.CounterVec
	QueryCacheHits  *prometheus.CounterVec
	QuerySharedHits *prometheus.CounterVec
	QueryEntries    prometheus.Gauge
	BlogsCreated    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueryFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "fetches_total",
				Help:      "Fetches started by the query cache by key kind and result",
			},
			[]string{"kind", "result"},
		),
		QueryCacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "cache_hits_total",
				Help:      "Observations served from fresh cached data without a fetch",
			},
			[]string{"kind"},
		),
		QuerySharedHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "shared_fetches_total",
				Help:      "Reads that attached to an in-flight fetch instead of starting one",
			},
			[]string{"kind"},
		),
		QueryEntries: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "entries",
				Help:      "Number of keys currently held by the query cache",
			},
		),
		BlogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blogs",
				Name:      "created_total",
				Help:      "Blog creation attempts by result",
			},
			[]string{"result"},
		),
	}
}

// KeyKind reduces a cache key to a low-cardinality label: "blog:42" -> "blog".
func KeyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
