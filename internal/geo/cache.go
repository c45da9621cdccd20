package geo

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	place   Place
	expires time.Time
}

// CachingGeocoder wraps another Geocoder with a TTL-based in-memory cache.
// Typed addresses repeat heavily across event creation, so the hit rate is
// high and the upstream rate limits stay unbothered.
type CachingGeocoder struct {
	base Geocoder
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingGeocoder returns a Geocoder that caches resolutions for the provided TTL.
func NewCachingGeocoder(base Geocoder, ttl time.Duration) *CachingGeocoder {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingGeocoder{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Resolve returns a cached place when available, otherwise it delegates to
// the underlying geocoder and stores the result.
func (c *CachingGeocoder) Resolve(ctx context.Context, address string) (Place, error) {
	if c == nil || c.base == nil {
		return Place{}, ErrGeocoderUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[address]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.place, nil
	}

	place, err := c.base.Resolve(ctx, address)
	if err != nil {
		return Place{}, err
	}

	c.mu.Lock()
	c.items[address] = cacheEntry{place: place, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return place, nil
}
