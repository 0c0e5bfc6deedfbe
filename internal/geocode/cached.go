package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix    = "keyswap:geocode:"
	fetchTimeout = 30 * time.Second
)

// Cached wraps a Geocoder with a Cache. Concurrent lookups for the same key
// share one upstream call. Cache failures are logged and bypassed; misses
// (ErrNotFound) are not cached.
type Cached struct {
	next  Geocoder
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCached returns a caching Geocoder. ttl <= 0 keeps entries for a day.
func NewCached(next Geocoder, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{next: next, cache: cache, ttl: ttl}
}

// Geocode resolves address, serving repeat lookups from the cache.
func (c *Cached) Geocode(ctx context.Context, address string) (*Result, error) {
	key := keyPrefix + "fwd:" + normalizeKey(address)
	return lookup(ctx, c, key, func(ctx context.Context) (*Result, error) {
		return c.next.Geocode(ctx, address)
	})
}

// ReverseGeocode names the place at lng, lat. Coordinates are keyed to
// five decimal places, so nearby points share an entry.
func (c *Cached) ReverseGeocode(ctx context.Context, lng, lat float64) (string, error) {
	// ~1m precision
	key := fmt.Sprintf("%srev:%.5f,%.5f", keyPrefix, lng, lat)
	return lookup(ctx, c, key, func(ctx context.Context) (string, error) {
		return c.next.ReverseGeocode(ctx, lng, lat)
	})
}

// SearchPlaces returns place suggestions for query. A proximity bias is
// part of the cache key.
func (c *Cached) SearchPlaces(ctx context.Context, query string, proximity *Point) ([]Result, error) {
	key := keyPrefix + "places:" + normalizeKey(query)
	if proximity != nil {
		key += fmt.Sprintf("@%.3f,%.3f", proximity.Longitude, proximity.Latitude)
	}
	return lookup(ctx, c, key, func(ctx context.Context) ([]Result, error) {
		return c.next.SearchPlaces(ctx, query, proximity)
	})
}

// lookup serves key from the cache or runs fetch once for all concurrent
// callers. The shared fetch is detached from any one caller's context and
// bounded by fetchTimeout; each caller still returns early when its own
// context ends.
func lookup[T any](ctx context.Context, c *Cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	var cached T
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.Warn("geocode cache read failed", "key", key, "error", err)
	}
	if found {
		return cached, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		res, err := fetch(fctx)
		if err != nil {
			return res, err
		}
		if err := c.cache.Set(fctx, key, res, c.ttl); err != nil {
			slog.Warn("geocode cache write failed", "key", key, "error", err)
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Shared {
			slog.Debug("geocode lookup coalesced", "key", key)
		}
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
