package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTemplateMetrics() {
	r.TemplateBuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "anatomy_template_builds_total",
			Help: "Total number of template network builds",
		},
		[]string{"network", "status"},
	)

	r.TemplateBuildDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anatomy_template_build_duration_seconds",
			Help:    "Time to fetch and build a template network in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"network"},
	)

	r.TemplateNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "anatomy_template_nodes",
			Help: "Number of nodes in each cached template network",
		},
		[]string{"template", "network"},
	)

	r.TemplateCacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "anatomy_template_cache_hits_total",
			Help: "Template lookups served from the cache",
		},
	)

	r.TemplateCacheMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "anatomy_template_cache_misses_total",
			Help: "Template lookups that started a build",
		},
	)

	r.TemplateCacheSharedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "anatomy_template_cache_shared_total",
			Help: "Template lookups whose build was shared with concurrent callers",
		},
	)

	r.TemplateCacheEvictions = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "anatomy_template_cache_evictions_total",
			Help: "Template cache evictions by reason",
		},
		[]string{"reason"},
	)

	r.TemplateCacheEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_template_cache_entries",
			Help: "Number of template networks currently cached",
		},
	)

	r.TemplateLeasesActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "anatomy_template_leases_active",
			Help: "Number of outstanding template leases",
		},
	)

	r.TemplateWarmFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "anatomy_template_warm_failures_total",
			Help: "Templates that failed to build during warm-up",
		},
	)
}
