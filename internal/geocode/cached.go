package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldvisit-backend/internal/metrics"
)

// ByteCache is the subset of the Redis cache used for geocoding results.
type ByteCache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool)
	SetCached(ctx context.Context, key string, data []byte, ttl time.Duration)
}

// CachedGeocoder memoizes successful lookups. Reverse lookups are keyed on
// coordinates rounded to five decimals (about one meter). Errors are never cached.
type CachedGeocoder struct {
	next  Geocoder
	cache ByteCache
	ttl   time.Duration
}

func NewCachedGeocoder(next Geocoder, cache ByteCache, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl}
}

func reverseKey(lat, lng float64) string {
	return fmt.Sprintf("geo:rev:%.5f:%.5f", lat, lng)
}

func forwardKey(address string) string {
	return "geo:fwd:" + strings.ToLower(strings.TrimSpace(address))
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	key := reverseKey(lat, lng)
	if data, ok := c.cache.GetCached(ctx, key); ok {
		metrics.GeocodeRequests.WithLabelValues("reverse", "cache_hit").Inc()
		return string(data), nil
	}

	address, err := c.next.ReverseGeocode(ctx, lat, lng)
	metrics.GeocodeRequests.WithLabelValues("reverse", outcome(err)).Inc()
	if err != nil {
		return "", err
	}
	c.cache.SetCached(ctx, key, []byte(address), c.ttl)
	return address, nil
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, address string) (*Location, error) {
	key := forwardKey(address)
	if data, ok := c.cache.GetCached(ctx, key); ok {
		var loc Location
		if err := json.Unmarshal(data, &loc); err == nil {
			metrics.GeocodeRequests.WithLabelValues("forward", "cache_hit").Inc()
			return &loc, nil
		}
	}

	loc, err := c.next.ForwardGeocode(ctx, address)
	metrics.GeocodeRequests.WithLabelValues("forward", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(loc); err == nil {
		c.cache.SetCached(ctx, key, data, c.ttl)
	}
	return loc, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoResult):
		return "no_result"
	default:
		return "error"
	}
}
