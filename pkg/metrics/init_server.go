package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initServerMetrics registers the metrics of the serve process: its HTTP
// endpoints and the Go runtime behind them.
func (r *Registry) initServerMetrics() {
	factory := promauto.With(r.registry)

	// Routes are the fixed serve mux paths, so the path label stays bounded.
	r.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anatomy_http_requests_total",
			Help: "Requests served on the graphql, metrics and health endpoints",
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "anatomy_http_request_duration_seconds",
			Help: "Time to serve a request, including any template build it waited on",
			// cached networks answer in well under a millisecond; cold builds take longer
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_http_requests_in_flight",
			Help: "Requests currently holding a handler",
		},
	)
	r.HTTPResponseSizeBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anatomy_http_response_size_bytes",
			Help:    "Body bytes written per response; large values point at wide neighbourhood or region queries",
			Buckets: prometheus.ExponentialBuckets(256, 4, 7),
		},
		[]string{"method", "path"},
	)

	r.UptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_uptime_seconds",
			Help: "Seconds since the anatomy server started",
		},
	)
	r.GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_goroutines",
			Help: "Live goroutines, including build and warm-up workers",
		},
	)
	r.MemoryAllocBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_memory_alloc_bytes",
			Help: "Heap bytes in use, dominated by cached network arenas",
		},
	)
	r.MemorySysBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_memory_sys_bytes",
			Help: "Bytes obtained from the OS by the Go runtime",
		},
	)
}
