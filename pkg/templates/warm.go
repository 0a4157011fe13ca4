package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	"github.com/dd0wney/cluso-anatomy/pkg/metrics"
	"github.com/dd0wney/cluso-anatomy/pkg/parallel"
)

// Warm builds every key on a pool of workers so later requests hit the
// cache. Leases taken during warm-up are released before it returns. The
// returned error joins every per-key failure.
func (c *Cache) Warm(ctx context.Context, keys []anatomyspec.Key, workers int) error {
	op := logging.StartTimer(c.logger, "cache warmed", logging.Count(len(keys)))

	errs, err := parallel.ForEach(ctx, workers, keys, func(ctx context.Context, key anatomyspec.Key) error {
		lease, err := c.GetOrBuild(ctx, key)
		if err != nil {
			return err
		}
		lease.Release()
		return nil
	}, parallel.WithLogger(c.logger))
	if err != nil {
		return err
	}

	var failed []error
	for i, e := range errs {
		if e != nil {
			failed = append(failed, fmt.Errorf("%s: %w", keys[i], e))
			c.observe(func(m *metrics.Registry) { m.TemplateWarmFailuresTotal.Inc() })
		}
	}
	if len(failed) > 0 {
		joined := errors.Join(failed...)
		op.EndError(joined)
		return joined
	}
	op.EndInfo()
	return nil
}
