package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "text2location_search_requests_total",
		Help: "Total number of address search requests",
	}, []string{"endpoint"})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "text2location_search_duration_ms",
		Help:    "Address search duration in milliseconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500},
	})
	SearchEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "text2location_search_empty_total",
		Help: "Total number of searches without any match",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "text2location_cache_hits_total",
		Help: "Total result cache hits",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "text2location_cache_misses_total",
		Help: "Total result cache misses",
	})
	IndexedDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "text2location_indexed_documents",
		Help: "Documents visible in the published index snapshot",
	})
	ResolutionAnomaliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "text2location_resolution_anomalies_total",
		Help: "Region hierarchy anomalies found while resolving",
	}, []string{"kind"})
	ReloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "text2location_reloads_total",
		Help: "Total index commit-and-reload operations",
	})
)

func init() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDurationMs,
		SearchEmptyTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		IndexedDocuments,
		ResolutionAnomaliesTotal,
		ReloadsTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
