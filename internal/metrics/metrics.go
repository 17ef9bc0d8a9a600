// Package metrics registers the service's Prometheus instruments.
//
// Registers:
//
//	#cryptotools_upstream_requests_total{source, outcome}
//	#cryptotools_fallback_total{dataset, tier}
//	#cryptotools_cache_total{key, outcome}
//	#go_* and process_* system metrics
//
// The collectors are exposed through Handler, mounted on the main HTTP
// router at /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once             sync.Once
	upstreamRequests *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
)

func Init() {
	once.Do(func() {
		upstreamRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptotools_upstream_requests_total",
				Help: "Number of upstream API requests by source and outcome",
			},
			[]string{"source", "outcome"},
		)

		fallbacks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptotools_fallback_total",
				Help: "Number of reads served from a fallback tier",
			},
			[]string{"dataset", "tier"},
		)

		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptotools_cache_total",
				Help: "Number of TTL cache lookups by key and outcome",
			},
			[]string{"key", "outcome"},
		)

		_ = prometheus.Register(upstreamRequests)
		_ = prometheus.Register(fallbacks)
		_ = prometheus.Register(cacheLookups)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler returns the HTTP handler serving the registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstream records one upstream request outcome for a source.
func ObserveUpstream(source string, err error) {
	if upstreamRequests == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamRequests.WithLabelValues(source, outcome).Inc()
}

// RecordFallback counts a read served from the named fallback tier
// (snapshot or default) instead of a live fetch.
func RecordFallback(dataset, tier string) {
	if fallbacks != nil {
		fallbacks.WithLabelValues(dataset, tier).Inc()
	}
}

// RecordCache counts a TTL cache lookup.
func RecordCache(key string, hit bool) {
	if cacheLookups == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(key, outcome).Inc()
}
