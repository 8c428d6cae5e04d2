// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wneessen/mtrmap/internal/geo"
)

const (
	// coordPrecision is the precision used to quantize coordinates (0.0001 degrees ≈ 11 m)
	coordPrecision = 1e-4

	// cleanupInterval is the interval in which expired entries are purged from the store
	cleanupInterval = 10 * time.Minute
)

// CachedGeocoder wraps a Client and caches successful lookups. Reverse lookups are keyed by
// quantized coordinates, forward lookups by the normalized query text. Results with a non-OK
// status are never cached.
type CachedGeocoder struct {
	coder   Client
	ttlHit  time.Duration
	ttlMiss time.Duration
	store   *gocache.Cache
}

// NewCachedGeocoder returns a CachedGeocoder for the given Client. ttlHit applies to results that
// carry data, ttlMiss to successful lookups without any data.
func NewCachedGeocoder(coder Client, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
		store:   gocache.New(ttlHit, cleanupInterval),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

func (c *CachedGeocoder) Reverse(ctx context.Context, point geo.Point) (ReverseResult, error) {
	key := reverseKey(c.coder.Name(), point)
	if entry, ok := c.store.Get(key); ok {
		if result, ok := entry.(ReverseResult); ok {
			result.CacheHit = true
			result.Point = point
			return result, nil
		}
	}

	result, err := c.coder.Reverse(ctx, point)
	if err != nil || !result.Status.OK() {
		return result, err
	}

	ttl := c.ttlHit
	if result.Address == "" && len(result.Subdivisions) == 0 {
		ttl = c.ttlMiss
	}
	c.store.Set(key, result, ttl)

	return result, nil
}

func (c *CachedGeocoder) Forward(ctx context.Context, text string) (ForwardResult, error) {
	key := forwardKey(c.coder.Name(), text)
	if entry, ok := c.store.Get(key); ok {
		if result, ok := entry.(ForwardResult); ok {
			result.CacheHit = true
			return result, nil
		}
	}

	result, err := c.coder.Forward(ctx, text)
	if err != nil || !result.Status.OK() {
		return result, err
	}

	ttl := c.ttlHit
	if len(result.Results) == 0 {
		ttl = c.ttlMiss
	}
	c.store.Set(key, result, ttl)

	return result, nil
}

// Flush removes all cached entries.
func (c *CachedGeocoder) Flush() {
	c.store.Flush()
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func reverseKey(provider string, point geo.Point) string {
	return fmt.Sprintf("%s|reverse|%d|%d", provider, quantizeCoord(point.Lat), quantizeCoord(point.Lng))
}

func forwardKey(provider, text string) string {
	return fmt.Sprintf("%s|forward|%s", provider, strings.ToLower(strings.TrimSpace(text)))
}
