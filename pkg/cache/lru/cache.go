// Package lru is a bounded, time-limited in-memory result cache.
//
// Entries are evicted least-recently-used first once MaxSize is reached and
// are treated as absent once older than the TTL, whichever happens first.
// All methods are safe for concurrent use; none of them perform I/O.
package lru

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/rs/zerolog"

	"github.com/pario-ai/memogate/pkg/clock"
	"github.com/pario-ai/memogate/pkg/models"
)

// ErrInvalidConfig is returned by New for a non-positive size or TTL.
var ErrInvalidConfig = errors.New("invalid cache config")

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Cache memoizes values of type V keyed by a question/answer fingerprint.
type Cache[V any] struct {
	mu      sync.Mutex
	entries *simplelru.LRU
	maxSize int
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64

	clock    clock.Clock
	log      zerolog.Logger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock    clock.Clock
	log      zerolog.Logger
	interval time.Duration
}

// WithClock sets the time source used for insertion times and expiry.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for hit/miss/eviction detail.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCleanupInterval starts a janitor that purges expired entries every d.
// A zero interval leaves expiry entirely lazy.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// New creates a Cache holding at most maxSize entries, each for at most ttl.
func New[V any](maxSize int, ttl time.Duration, opts ...Option) (*Cache[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size %d", ErrInvalidConfig, maxSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl %v", ErrInvalidConfig, ttl)
	}

	o := options{clock: clock.System{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	entries, err := simplelru.NewLRU(maxSize, nil)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	c := &Cache[V]{
		entries:  entries,
		maxSize:  maxSize,
		ttl:      ttl,
		clock:    o.clock,
		log:      o.log,
		interval: o.interval,
		stop:     make(chan struct{}),
	}
	c.startJanitor()

	c.log.Info().Int("max_size", maxSize).Dur("ttl", ttl).Msg("cache initialized")
	return c, nil
}

// Get returns the value stored for the pair if present and not expired.
// A hit moves the entry to the most-recently-used position.
func (c *Cache[V]) Get(question, answer string) (V, bool) {
	return c.GetKey(Fingerprint(question, answer))
}

// GetKey is Get for a precomputed fingerprint.
func (c *Cache[V]) GetKey(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	raw, ok := c.entries.Peek(key)
	if !ok {
		c.misses++
		c.log.Debug().Str("key", shortKey(key)).Msg("cache miss")
		return zero, false
	}

	e := raw.(*entry[V])
	if c.expired(e, c.clock.Now()) {
		c.entries.Remove(key)
		c.misses++
		c.log.Debug().Str("key", shortKey(key)).Msg("cache expired")
		return zero, false
	}

	// Get (not Peek) to refresh recency.
	c.entries.Get(key)
	c.hits++
	c.log.Debug().Str("key", shortKey(key)).Float64("hit_rate", c.hitRate()).Msg("cache hit")
	return e.value, true
}

// Set stores value for the pair with the current time as its insertion time.
// Storing a new key at capacity evicts the least-recently-used entry;
// overwriting an existing key refreshes its recency and never evicts.
func (c *Cache[V]) Set(question, answer string, value V) {
	c.SetKey(Fingerprint(question, answer), value)
}

// SetKey is Set for a precomputed fingerprint.
func (c *Cache[V]) SetKey(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries.Add(key, &entry[V]{value: value, insertedAt: c.clock.Now()}) {
		c.evictions++
		c.log.Debug().Str("key", shortKey(key)).Msg("evicted lru entry")
	}
	c.log.Debug().
		Str("key", shortKey(key)).
		Int("size", c.entries.Len()).
		Int("max_size", c.maxSize).
		Msg("cached result")
}

// Clear removes every entry. Counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
	c.log.Info().Msg("cache cleared")
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats purges expired entries and reports the live size and counters.
func (c *Cache[V]) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired(c.clock.Now())
	return models.CacheStats{
		Size:       c.entries.Len(),
		MaxSize:    c.maxSize,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		HitRate:    c.hitRate(),
		TTLSeconds: int64(c.ttl / time.Second),
	}
}

// Close stops the janitor. The cache remains usable afterwards.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

func (c *Cache[V]) hitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// purgeExpired removes expired entries. Caller holds mu.
func (c *Cache[V]) purgeExpired(now time.Time) int {
	removed := 0
	for _, k := range c.entries.Keys() {
		raw, ok := c.entries.Peek(k)
		if !ok {
			continue
		}
		if c.expired(raw.(*entry[V]), now) {
			c.entries.Remove(k)
			removed++
		}
	}
	return removed
}
