package sizing

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedLookup memoizes another Lookup with a compute-once policy: under
// concurrent load each reference is resolved through the inner lookup at
// most once, with all concurrent callers sharing the in-flight result.
// Both successes and failures are cached, so a reference the registry
// cannot serve is not hammered on every analysis. Outcomes caused by the
// caller's context (cancellation, deadline) are not cached.
//
// A CachedLookup is the only piece of sizing state intended to be shared
// across analyses; it is safe for concurrent use.
type CachedLookup struct {
	inner Lookup

	mu       sync.Mutex
	results  *lru.Cache[string, cachedResult]
	inflight map[string]*inflightCall
}

type cachedResult struct {
	size Size
	err  error
}

type inflightCall struct {
	done chan struct{}
	size Size
	err  error
}

// DefaultCacheSize bounds the number of memoized references.
const DefaultCacheSize = 512

// NewCachedLookup wraps inner with an LRU memoization layer of the given
// capacity (DefaultCacheSize when entries <= 0).
func NewCachedLookup(inner Lookup, entries int) *CachedLookup {
	if entries <= 0 {
		entries = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes, which is excluded above.
	cache, _ := lru.New[string, cachedResult](entries)
	return &CachedLookup{
		inner:    inner,
		results:  cache,
		inflight: make(map[string]*inflightCall),
	}
}

// ImageSize implements Lookup.
func (c *CachedLookup) ImageSize(ctx context.Context, ref string) (Size, error) {
	key := cacheKey(ref)

	c.mu.Lock()
	if cached, ok := c.results.Get(key); ok {
		c.mu.Unlock()
		return cached.size, cached.err
	}
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.size, call.err
		case <-ctx.Done():
			return Size{}, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.size, call.err = c.inner.ImageSize(ctx, ref)

	c.mu.Lock()
	if cacheable(call.err) {
		c.results.Add(key, cachedResult{size: call.size, err: call.err})
	}
	delete(c.inflight, key)
	c.mu.Unlock()

	close(call.done)
	return call.size, call.err
}

// Len returns the number of memoized references.
func (c *CachedLookup) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results.Len()
}

// cacheable reports whether a lookup outcome should be memoized. Errors
// driven by the caller's context are transient; caching them would leave a
// stale negative entry behind for every later caller.
func cacheable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// cacheKey normalizes a reference so "node:12" and
// "docker.io/library/node:12" share an entry.
func cacheKey(ref string) string {
	if familiar, err := FamiliarRef(ref); err == nil {
		return familiar
	}
	return ref
}
