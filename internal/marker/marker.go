// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package marker

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/metrics"
)

const (
	// metersPerSecond is the distance the map flies per second of transition.
	metersPerSecond = 2500
	minTransition   = 0.5
	maxTransition   = 3.0
)

// Resolver resolves the address of a point. *address.Resolver satisfies it.
type Resolver interface {
	ResolveFrom(ctx context.Context, point geo.Point) (address.Record, error)
}

type Options struct {
	// Center is the configured map center. The first relocation flies from here.
	Center    geo.Point
	Draggable bool
	Sticky    bool
	Animate   bool
	IconURL   string
	Metrics   *metrics.Metrics
}

// Controller owns the marker of the map and keeps it in sync with the resolved address.
type Controller struct {
	engine   engine.Engine
	resolver Resolver
	log      *logger.Logger
	opts     Options

	mu           sync.Mutex
	current      *geo.Point
	visual       engine.Visual
	lastDuration time.Duration

	wg sync.WaitGroup
}

func New(eng engine.Engine, resolver Resolver, log *logger.Logger, opts Options) *Controller {
	return &Controller{
		engine:   eng,
		resolver: resolver,
		log:      log,
		opts:     opts,
	}
}

// TransitionSeconds returns the fly-to duration in seconds for the given distance in meters.
func TransitionSeconds(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	secs := math.Round(distance/metersPerSecond*10) / 10
	return min(max(secs, minTransition), maxTransition)
}

// TransitionDuration is TransitionSeconds as a time.Duration.
func TransitionDuration(distance float64) time.Duration {
	return time.Duration(math.Round(TransitionSeconds(distance)*1000)) * time.Millisecond
}

// Bind registers the map event handlers. Clicks relocate the marker unless sticky mode is
// enabled, in which case the marker follows the map center.
func (c *Controller) Bind(ctx context.Context) {
	if c.opts.Sticky {
		c.engine.OnMove(func(center geo.Point) {
			c.pin(center)
		})
		c.engine.OnDragEnd(func(center geo.Point) {
			c.settle(ctx, center)
		})
		return
	}
	c.engine.OnClick(func(point geo.Point) {
		c.Relocate(ctx, &point)
	})
}

// Relocate moves the marker to point and resolves its address in the background. A nil or
// invalid point is ignored.
func (c *Controller) Relocate(ctx context.Context, point *geo.Point) {
	if point == nil {
		return
	}
	if !point.Valid() {
		c.log.Warn("ignoring relocation to invalid point", slog.String("point", point.String()))
		return
	}
	target := *point

	c.mu.Lock()
	from := c.opts.Center
	if c.current != nil {
		from = *c.current
	}
	duration := TransitionDuration(c.engine.Distance(from, target))

	if c.visual != nil {
		c.engine.RemoveMarker(c.visual)
		c.visual = nil
	}
	c.visual = c.engine.AddMarker(target, engine.MarkerOptions{
		Draggable: c.opts.Draggable && !c.opts.Sticky,
		Popup:     target.Label,
		IconURL:   c.opts.IconURL,
		OnDragEnd: func(dragged geo.Point) {
			dragged.Label = target.Label
			c.Relocate(ctx, &dragged)
		},
	})
	c.current = &target
	c.lastDuration = duration
	c.mu.Unlock()

	// Engines may fire move events synchronously from FlyTo, so it must run unlocked.
	c.engine.FlyTo(target, duration, c.opts.Animate)

	c.opts.Metrics.ObserveRelocation()
	c.log.Debug("marker relocated", slog.String("point", target.String()),
		slog.Duration("transition", duration))
	c.resolve(ctx, target)
}

// Current returns the current marker position.
func (c *Controller) Current() (geo.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return geo.Point{}, false
	}
	return *c.current, true
}

// LastDuration returns the transition duration of the last relocation.
func (c *Controller) LastDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDuration
}

// Visual returns the marker visual currently on the map.
func (c *Controller) Visual() engine.Visual {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visual
}

// Wait blocks until all background address resolutions have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// pin moves the visual to the map center without resolving the address.
func (c *Controller) pin(center geo.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visual == nil {
		c.visual = c.engine.AddMarker(center, engine.MarkerOptions{IconURL: c.opts.IconURL})
		return
	}
	c.engine.MoveMarker(c.visual, center)
}

// settle makes the map center the current position once the user stopped dragging the map.
func (c *Controller) settle(ctx context.Context, center geo.Point) {
	c.pin(center)
	c.mu.Lock()
	c.current = &center
	c.mu.Unlock()
	c.resolve(ctx, center)
}

func (c *Controller) resolve(ctx context.Context, point geo.Point) {
	if c.resolver == nil {
		return
	}
	c.wg.Go(func() {
		_, err := c.resolver.ResolveFrom(ctx, point)
		if err != nil && !errors.Is(err, address.ErrStale) {
			c.log.Debug("address resolution failed", slog.String("point", point.String()), logger.Err(err))
		}
	})
}
