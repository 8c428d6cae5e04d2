// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wneessen/mtrmap/internal/geo"
)

// RateLimitedGeocoder throttles the requests that reach the wrapped Client. Callers block until
// the limiter grants a token or the context is done.
type RateLimitedGeocoder struct {
	coder   Client
	limiter *rate.Limiter
}

// NewRateLimitedGeocoder returns a RateLimitedGeocoder that allows perSecond requests with a
// burst of burst requests. A perSecond of zero or less disables the limit.
func NewRateLimitedGeocoder(coder Client, perSecond float64, burst int) *RateLimitedGeocoder {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimitedGeocoder{
		coder:   coder,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// NewRateLimitedGeocoderWithLimiter allows injecting a custom limiter.
func NewRateLimitedGeocoderWithLimiter(coder Client, limiter *rate.Limiter) *RateLimitedGeocoder {
	return &RateLimitedGeocoder{coder: coder, limiter: limiter}
}

func (r *RateLimitedGeocoder) Name() string {
	return r.coder.Name()
}

func (r *RateLimitedGeocoder) Reverse(ctx context.Context, point geo.Point) (ReverseResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ReverseResult{Status: StatusLimitReached}, fmt.Errorf("rate limit exceeded: %w", err)
	}
	return r.coder.Reverse(ctx, point)
}

func (r *RateLimitedGeocoder) Forward(ctx context.Context, text string) (ForwardResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ForwardResult{Status: StatusLimitReached, Query: text}, fmt.Errorf("rate limit exceeded: %w", err)
	}
	return r.coder.Forward(ctx, text)
}
