// Package templates shares one finalized network per template across every
// organism that uses it. Networks are built on first request, at most once
// at a time per template, and handed out under reference-counted leases.
package templates

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	"github.com/dd0wney/cluso-anatomy/pkg/metrics"
)

// Cache is an LRU cache of finalized networks keyed by template.
//
// Cache is safe for concurrent use. Population is the only synchronized
// path; the networks themselves are read without locks.
type Cache struct {
	mu      sync.RWMutex
	entries map[anatomyspec.Key]*entry
	lru     *list.List
	failed  map[anatomyspec.Key]*failedBuild
	flight  singleflight.Group

	builder Builder
	opts    Options
	logger  logging.Logger
	metrics *metrics.Registry

	leases    atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	shared    atomic.Int64
	builds    atomic.Int64
	errors    atomic.Int64
	evictions atomic.Int64
}

// New returns an empty cache that builds missing networks with builder.
func New(builder Builder, opts ...Option) *Cache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Cache{
		entries: make(map[anatomyspec.Key]*entry),
		lru:     list.New(),
		failed:  make(map[anatomyspec.Key]*failedBuild),
		builder: builder,
		opts:    options,
		logger:  logging.OrDefault(options.Logger).With(logging.Component("template_cache")),
		metrics: options.Metrics,
	}
}

// Get returns a lease on a cached network without building. Expired and
// invalidated entries are not returned.
func (c *Cache) Get(key anatomyspec.Key) (*Lease, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if !ok {
		return nil, false
	}
	c.hits.Add(1)
	c.observe(func(m *metrics.Registry) { m.TemplateCacheHitsTotal.Inc() })
	return c.leaseLocked(e), true
}

// GetOrBuild returns a lease on the network for key, building it if needed.
//
// Concurrent requests for the same key share a single build. The build runs
// detached from any one caller's context, so a caller that gives up does not
// fail the others; it just stops waiting. A failed build is remembered for
// ErrorTTL and reported as *BuildFailedError until then.
func (c *Cache) GetOrBuild(ctx context.Context, key anatomyspec.Key) (*Lease, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if lease, ok := c.Get(key); ok {
		return lease, nil
	}
	if fb := c.cachedError(key); fb != nil {
		return nil, &BuildFailedError{Key: key, Err: fb.err, FailedAt: fb.failedAt, RetryAt: fb.retryAt}
	}

	c.misses.Add(1)
	c.observe(func(m *metrics.Registry) { m.TemplateCacheMissesTotal.Inc() })

	buildCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key.String(), func() (any, error) {
		return c.buildAndCache(buildCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
			c.observe(func(m *metrics.Registry) { m.TemplateCacheSharedTotal.Inc() })
		}
		if res.Err != nil {
			return nil, res.Err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.leaseLocked(res.Val.(*entry)), nil
	}
}

// buildAndCache runs inside the flight group, so at most one call per key
// executes at a time.
func (c *Cache) buildAndCache(ctx context.Context, key anatomyspec.Key) (*entry, error) {
	c.mu.Lock()
	if e, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	op := logging.StartTimer(c.logger, "template built",
		logging.Template(key.Template), logging.NetworkType(key.Network))

	built, err := c.builder.Build(ctx, key)
	elapsed := op.Elapsed()
	if err != nil {
		op.EndError(err)
		c.errors.Add(1)
		c.observe(func(m *metrics.Registry) {
			m.RecordTemplateBuild(key.Network, metrics.StatusError, elapsed)
		})
		c.cacheError(key, err)
		return nil, err
	}
	op.EndInfo(logging.Count(built.Network.Len()))
	c.builds.Add(1)
	c.observe(func(m *metrics.Registry) {
		m.RecordTemplateBuild(key.Network, metrics.StatusSuccess, elapsed)
		m.TemplateNodes.WithLabelValues(key.Template, key.Network).Set(float64(built.Network.Len()))
	})

	e := &entry{
		key:     key,
		network: built.Network,
		digest:  built.Digest,
		builtAt: c.opts.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A stale predecessor stays alive for its leaseholders but leaves the index.
	if old, ok := c.entries[key]; ok {
		c.lru.Remove(old.lruElement)
		delete(c.entries, key)
	}
	c.evictIfNeeded()
	e.lruElement = c.lru.PushFront(key)
	c.entries[key] = e
	delete(c.failed, key)
	c.observeEntries()

	return e, nil
}

// lookupLocked returns a live entry and marks it recently used. Expired
// entries are dropped, or marked stale while leased. Caller holds c.mu.
func (c *Cache) lookupLocked(key anatomyspec.Key) (*entry, bool) {
	e, ok := c.entries[key]
	if !ok || e.stale.Load() {
		return nil, false
	}
	if c.expired(e) {
		c.dropLocked(e, metrics.EvictExpired)
		return nil, false
	}
	c.lru.MoveToFront(e.lruElement)
	return e, true
}

func (c *Cache) leaseLocked(e *entry) *Lease {
	e.refCount.Add(1)
	c.leases.Add(1)
	c.observe(func(m *metrics.Registry) { m.TemplateLeasesActive.Inc() })

	lease := &Lease{id: uuid.New(), entry: e, cache: c}
	c.logger.Debug("lease acquired",
		logging.CacheKey(e.key.String()), logging.String("lease", lease.ID()))
	return lease
}

func (c *Cache) release(l *Lease) {
	e := l.entry
	e.refCount.Add(-1)
	c.leases.Add(-1)
	c.observe(func(m *metrics.Registry) { m.TemplateLeasesActive.Dec() })

	if e.stale.Load() && !e.inUse() {
		c.mu.Lock()
		c.removeIfCurrentLocked(e, "")
		c.mu.Unlock()
	}
}

// Invalidate removes the entry for key so the next request rebuilds it.
// It returns ErrEntryInUse while leases are outstanding; use
// ForceInvalidate to retire a leased entry once its leases are released.
func (c *Cache) Invalidate(key anatomyspec.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.failed, key)
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if e.inUse() {
		return ErrEntryInUse
	}
	c.removeIfCurrentLocked(e, metrics.EvictInvalidated)
	return nil
}

// ForceInvalidate hides the entry for key from new requests. It is removed
// when its last lease is released.
func (c *Cache) ForceInvalidate(key anatomyspec.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.failed, key)
	if e, ok := c.entries[key]; ok {
		c.dropLocked(e, metrics.EvictInvalidated)
	}
}

// Clear removes every entry and remembered failure. Leased entries are
// marked stale and removed on release.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.failed)
	for _, e := range c.entries {
		c.dropLocked(e, metrics.EvictInvalidated)
	}
}

// Keys returns the keys of live entries, sorted.
func (c *Cache) Keys() []anatomyspec.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]anatomyspec.Key, 0, len(c.entries))
	for k, e := range c.entries {
		if !e.stale.Load() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pinned := 0
	for _, e := range c.entries {
		if e.inUse() {
			pinned++
		}
	}

	return Stats{
		Entries:    len(c.entries),
		Pinned:     pinned,
		Leases:     int(c.leases.Load()),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Shared:     c.shared.Load(),
		Builds:     c.builds.Load(),
		Errors:     c.errors.Load(),
		Evictions:  c.evictions.Load(),
		MaxEntries: c.opts.MaxEntries,
		MaxAge:     c.opts.MaxAge,
	}
}

func (c *Cache) expired(e *entry) bool {
	if c.opts.MaxAge <= 0 {
		return false
	}
	return c.opts.now().Sub(e.builtAt) > c.opts.MaxAge
}

// dropLocked removes e now, or marks it stale while leased. Stale is set
// before the refcount is read so a concurrent last release either sees it
// or leaves the removal to this call.
func (c *Cache) dropLocked(e *entry, reason string) {
	e.stale.Store(true)
	if e.inUse() {
		return
	}
	c.removeIfCurrentLocked(e, reason)
}

// removeIfCurrentLocked deletes e unless a newer entry has replaced it.
// An empty reason records no eviction.
func (c *Cache) removeIfCurrentLocked(e *entry, reason string) {
	if c.entries[e.key] != e {
		return
	}
	c.lru.Remove(e.lruElement)
	delete(c.entries, e.key)
	c.observeEntries()

	if reason != "" {
		c.evictions.Add(1)
		c.observe(func(m *metrics.Registry) { m.TemplateCacheEvictions.WithLabelValues(reason).Inc() })
	}
	c.logger.Debug("template evicted", logging.CacheKey(e.key.String()), logging.String("reason", reason))
}

// evictIfNeeded makes room for one more entry. Stale entries are replaced
// rather than counted, and leased entries are skipped. Caller holds c.mu.
func (c *Cache) evictIfNeeded() {
	for len(c.entries) >= c.opts.MaxEntries {
		if !c.evictLRUEntry() {
			c.logger.Warn("template cache over capacity, all entries leased",
				logging.Count(len(c.entries)))
			return
		}
	}
}

func (c *Cache) evictLRUEntry() bool {
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		e := c.entries[el.Value.(anatomyspec.Key)]
		if e != nil && !e.inUse() {
			c.removeIfCurrentLocked(e, metrics.EvictLRU)
			return true
		}
	}
	return false
}

func (c *Cache) cachedError(key anatomyspec.Key) *failedBuild {
	c.mu.Lock()
	defer c.mu.Unlock()

	fb, ok := c.failed[key]
	if !ok {
		return nil
	}
	if c.opts.now().After(fb.retryAt) {
		delete(c.failed, key)
		return nil
	}
	return fb
}

func (c *Cache) cacheError(key anatomyspec.Key, err error) {
	if c.opts.ErrorTTL <= 0 {
		return
	}
	now := c.opts.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.failed[key] = &failedBuild{err: err, failedAt: now, retryAt: now.Add(c.opts.ErrorTTL)}
}

func (c *Cache) observe(fn func(*metrics.Registry)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}

func (c *Cache) observeEntries() {
	c.observe(func(m *metrics.Registry) { m.TemplateCacheEntries.Set(float64(len(c.entries))) })
}
