package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raster_tiler_requests_total",
		Help: "Total number of requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "raster_tiler_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	EmptyResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raster_tiler_empty_results_total",
		Help: "Total number of queries answered with no content",
	}, []string{"route"})
	BadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raster_tiler_bad_requests_total",
		Help: "Total number of rejected requests",
	}, []string{"route"})
	NodesVisited = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raster_tiler_aggregate_nodes_visited",
		Help:    "Tree nodes decoded per aggregate query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	TilesReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raster_tiler_tiles_returned",
		Help:    "Tiles returned per tile listing",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(BadRequestsTotal)
	prometheus.MustRegister(NodesVisited)
	prometheus.MustRegister(TilesReturned)
}

// MetricsHandler exposes the registered metrics for scraping.
func MetricsHandler() http.Handler { return promhttp.Handler() }
