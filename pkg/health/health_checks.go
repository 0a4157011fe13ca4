package health

import (
	"context"
	"runtime"

	"github.com/dd0wney/cluso-anatomy/pkg/templates"
)

// SimpleCheck creates a check that always reports healthy
func SimpleCheck(name string) CheckFunc {
	return func(ctx context.Context) Check {
		return Check{
			Name:   name,
			Status: StatusHealthy,
		}
	}
}

// SourceCheck reports whether the template source is reachable
func SourceCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name: "source",
		}

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Reachable"
		}

		return check
	}
}

// CacheCheck reports template cache occupancy. The cache is degraded when
// every slot is pinned by a lease, since new templates can then only be
// admitted over capacity.
func CacheCheck(stats func() templates.Stats) CheckFunc {
	return func(ctx context.Context) Check {
		s := stats()
		check := Check{
			Name: "template_cache",
			Details: map[string]any{
				"entries":     s.Entries,
				"max_entries": s.MaxEntries,
				"pinned":      s.Pinned,
				"leases":      s.Leases,
				"builds":      s.Builds,
				"errors":      s.Errors,
				"evictions":   s.Evictions,
			},
		}

		if s.MaxEntries > 0 && s.Entries >= s.MaxEntries && s.Pinned >= s.Entries {
			check.Status = StatusDegraded
			check.Message = "All entries leased"
		} else {
			check.Status = StatusHealthy
			check.Message = "Cache healthy"
		}

		return check
	}
}

// WarmCheck reports whether start-up warming has finished
func WarmCheck(state func() (done bool, failed int)) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "warm",
			Details: make(map[string]any),
		}

		done, failed := state()
		check.Details["done"] = done
		check.Details["failed"] = failed

		switch {
		case !done:
			check.Status = StatusUnhealthy
			check.Message = "Warming templates"
		case failed > 0:
			check.Status = StatusDegraded
			check.Message = "Some templates failed to build"
		default:
			check.Status = StatusHealthy
			check.Message = "Templates warm"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys)*100 > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}

// RuntimeMemory reads heap usage from the Go runtime
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
