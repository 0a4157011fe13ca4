package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Eviction reasons
const (
	EvictLRU         = "lru"
	EvictExpired     = "expired"
	EvictInvalidated = "invalidated"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordHTTPResponseSize records the number of body bytes written
func (r *Registry) RecordHTTPResponseSize(method, path string, size int) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(size))
}

// RecordTemplateBuild records one fetch-and-build of a template network
func (r *Registry) RecordTemplateBuild(networkType, status string, duration time.Duration) {
	r.TemplateBuildsTotal.WithLabelValues(networkType, status).Inc()
	r.TemplateBuildDuration.WithLabelValues(networkType).Observe(duration.Seconds())
}

// RecordQuery records a query execution
func (r *Registry) RecordQuery(operation, status string, duration time.Duration) {
	r.QueriesTotal.WithLabelValues(operation, status).Inc()
	r.QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if duration > time.Second {
		r.SlowQueries.WithLabelValues(operation).Inc()
	}
}

// UpdateSystemMetrics samples uptime and Go runtime statistics
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
