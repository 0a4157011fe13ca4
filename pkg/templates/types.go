package templates

import (
	"container/list"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
	"github.com/dd0wney/cluso-anatomy/pkg/metrics"
	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// Default configuration values.
const (
	// DefaultMaxEntries is the default maximum number of cached networks.
	DefaultMaxEntries = 32

	// DefaultErrorTTL is how long a failed build is remembered. Zero
	// retries every request.
	DefaultErrorTTL = time.Duration(0)
)

var (
	// ErrEntryInUse is returned by Invalidate while leases are outstanding.
	ErrEntryInUse = errors.New("template entry in use")

	// ErrLeaseReleased is returned when a released lease is used.
	ErrLeaseReleased = errors.New("template lease released")
)

// BuildFailedError is returned while a recent build failure is remembered.
type BuildFailedError struct {
	Key      anatomyspec.Key
	Err      error
	FailedAt time.Time
	RetryAt  time.Time
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("template %s failed at %s, retry after %s: %v",
		e.Key, e.FailedAt.Format(time.RFC3339), e.RetryAt.Format(time.RFC3339), e.Err)
}

func (e *BuildFailedError) Unwrap() error {
	return e.Err
}

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds the number of cached networks. Entries holding
	// leases are never evicted, so the bound can be exceeded temporarily.
	MaxEntries int

	// MaxAge expires entries this long after they were built. Zero keeps
	// entries until evicted.
	MaxAge time.Duration

	// ErrorTTL remembers build failures so repeated requests do not
	// rebuild a broken template. Zero disables it.
	ErrorTTL time.Duration

	Logger  logging.Logger
	Metrics *metrics.Registry

	now func() time.Time
}

// DefaultOptions returns the options used by New before any Option runs.
func DefaultOptions() Options {
	return Options{
		MaxEntries: DefaultMaxEntries,
		ErrorTTL:   DefaultErrorTTL,
		now:        time.Now,
	}
}

// Option configures a Cache.
type Option func(*Options)

// WithMaxEntries sets the entry limit. Values below one are ignored.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithMaxAge sets the entry TTL.
func WithMaxAge(d time.Duration) Option {
	return func(o *Options) { o.MaxAge = d }
}

// WithErrorTTL sets how long build failures are remembered.
func WithErrorTTL(d time.Duration) Option {
	return func(o *Options) { o.ErrorTTL = d }
}

// WithLogger sets the cache logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithMetrics records cache activity in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Options) { o.Metrics = reg }
}

// entry is one cached network.
type entry struct {
	key     anatomyspec.Key
	network *network.Network
	digest  string
	builtAt time.Time

	refCount atomic.Int32
	stale    atomic.Bool

	lruElement *list.Element
}

func (e *entry) inUse() bool {
	return e.refCount.Load() > 0
}

// Lease is a reference to a cached network. The entry cannot be evicted or
// invalidated until every lease on it is released.
type Lease struct {
	id       uuid.UUID
	entry    *entry
	cache    *Cache
	released atomic.Bool
}

// ID identifies the lease holder in logs.
func (l *Lease) ID() string {
	return l.id.String()
}

// Key returns the template key.
func (l *Lease) Key() anatomyspec.Key {
	return l.entry.key
}

// Network returns the shared network. It stays valid after Release, but the
// cache no longer guarantees it is the current build.
func (l *Lease) Network() *network.Network {
	return l.entry.network
}

// Digest returns the digest of the document the network was built from.
func (l *Lease) Digest() string {
	return l.entry.digest
}

// BuiltAt returns when the network was built.
func (l *Lease) BuiltAt() time.Time {
	return l.entry.builtAt
}

// Release returns the lease. Calling it more than once has no effect.
func (l *Lease) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	l.cache.release(l)
}

// Released reports whether Release has been called.
func (l *Lease) Released() bool {
	return l.released.Load()
}

// Stats contains statistics about the cache.
type Stats struct {
	Entries   int
	Pinned    int // entries holding at least one lease
	Leases    int
	Hits      int64
	Misses    int64
	Shared    int64
	Builds    int64
	Errors    int64
	Evictions int64

	MaxEntries int
	MaxAge     time.Duration
}

type failedBuild struct {
	err      error
	failedAt time.Time
	retryAt  time.Time
}
