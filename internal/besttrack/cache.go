package besttrack

import (
	"context"
	"sync"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
)

// Finder is the read side of the archive.
type Finder interface {
	Find(ctx context.Context, f Filter) (Result, error)
	Nature(ctx context.Context, s Storm) (domain.Category, error)
}

// Source is a Finder that can report when its data was last replaced.
// *Archive satisfies it.
type Source interface {
	Finder
	Generation(ctx context.Context) (int64, error)
}

// CachedArchive wraps an archive with in-memory LRUs of Find and Nature
// results. Every lookup first reads the archive's import generation; entries
// cached under an older generation are dropped, so an import by another
// process is seen on the next request.
type CachedArchive struct {
	inner   Source
	results *lruCache[Result]
	natures *lruCache[domain.Category]
	metrics *observability.Metrics
}

// NewCachedArchive creates a cache decorator around an archive.
func NewCachedArchive(inner Source, maxEntries int, metrics *observability.Metrics) *CachedArchive {
	return &CachedArchive{
		inner:   inner,
		results: newLRUCache[Result](maxEntries),
		natures: newLRUCache[domain.Category](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedArchive) Find(ctx context.Context, f Filter) (Result, error) {
	if err := f.Validate(); err != nil {
		c.metrics.BestTrackQueries.WithLabelValues("invalid").Inc()
		return Result{}, err
	}
	gen, err := c.inner.Generation(ctx)
	if err != nil {
		c.metrics.BestTrackQueries.WithLabelValues("error").Inc()
		return Result{}, err
	}

	key := f.Key()
	if r, ok := c.results.get(gen, key); ok {
		c.metrics.BestTrackCache.WithLabelValues("hit").Inc()
		c.metrics.BestTrackQueries.WithLabelValues(outcome(r)).Inc()
		return r, nil
	}
	c.metrics.BestTrackCache.WithLabelValues("miss").Inc()

	r, err := c.inner.Find(ctx, f)
	if err != nil {
		c.metrics.BestTrackQueries.WithLabelValues("error").Inc()
		return r, err
	}
	c.metrics.BestTrackQueries.WithLabelValues(outcome(r)).Inc()
	// Misses are not cached so a later import can satisfy them.
	if r.Found() {
		c.results.put(gen, key, r)
	}
	return r, nil
}

func (c *CachedArchive) Nature(ctx context.Context, s Storm) (domain.Category, error) {
	gen, err := c.inner.Generation(ctx)
	if err != nil {
		return "", err
	}
	key := s.BestTrackID + "|" + s.Name
	if n, ok := c.natures.get(gen, key); ok {
		return n, nil
	}
	n, err := c.inner.Nature(ctx, s)
	if err != nil {
		return n, err
	}
	c.natures.put(gen, key, n)
	return n, nil
}

// Purge drops every cached result. An in-process Importer calls it directly.
func (c *CachedArchive) Purge() {
	c.results.reset(-1)
	c.natures.reset(-1)
}

func outcome(r Result) string {
	switch {
	case r.Storm != nil:
		return "found"
	case r.Ambiguous():
		return "ambiguous"
	default:
		return "not_found"
	}
}

// lruCache is a bounded, thread-safe LRU keyed by lookup and tagged with the
// archive generation its entries were read from. Entries form a ring around a
// sentinel node: sentinel.next is the most recently used entry and
// sentinel.prev the least.
type lruCache[V any] struct {
	mu       sync.Mutex
	capacity int
	gen      int64
	index    map[string]*node[V]
	ring     node[V]
}

type node[V any] struct {
	key        string
	value      V
	prev, next *node[V]
}

func newLRUCache[V any](capacity int) *lruCache[V] {
	c := &lruCache[V]{capacity: max(capacity, 1)}
	c.reset(0)
	return c
}

// resetLocked empties the cache and adopts gen. c.mu must be held.
func (c *lruCache[V]) resetLocked(gen int64) {
	c.gen = gen
	c.index = make(map[string]*node[V], c.capacity)
	c.ring.next = &c.ring
	c.ring.prev = &c.ring
}

func (c *lruCache[V]) reset(gen int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(gen)
}

// sync drops everything, under c.mu, if gen differs from the generation the entries were
// read under.
func (c *lruCache[V]) sync(gen int64) {
	if gen != c.gen {
		c.resetLocked(gen)
	}
}

func (c *lruCache[V]) get(gen int64, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sync(gen)

	n, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.unlink(n)
	c.pushFront(n)
	return n.value, true
}

func (c *lruCache[V]) put(gen int64, key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sync(gen)

	n, ok := c.index[key]
	if ok {
		n.value = value
		c.unlink(n)
	} else {
		n = &node[V]{key: key, value: value}
		c.index[key] = n
	}
	c.pushFront(n)

	for len(c.index) > c.capacity {
		oldest := c.ring.prev
		c.unlink(oldest)
		delete(c.index, oldest.key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *lruCache[V]) pushFront(n *node[V]) {
	n.prev = &c.ring
	n.next = c.ring.next
	c.ring.next.prev = n
	c.ring.next = n
}

func (c *lruCache[V]) unlink(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}
