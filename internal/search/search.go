// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/mtrmap/internal/debounce"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/metrics"
)

// DefaultDebounce is the quiet interval after the last keystroke before a query is sent.
const DefaultDebounce = 700 * time.Millisecond

// ErrNoSuchResult is returned when a result index is out of range.
var ErrNoSuchResult = errors.New("no such search result")

// State is the state of the search controller.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateQuerying
	StateResultsShown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateQuerying:
		return "querying"
	case StateResultsShown:
		return "results"
	default:
		return "unknown"
	}
}

// Relocator moves the map marker. *marker.Controller satisfies it.
type Relocator interface {
	Relocate(ctx context.Context, point *geo.Point)
}

// View renders the search input and its result list. Its methods are called while the
// controller holds its lock and must not call back into the controller.
type View interface {
	SetInput(text string)
	ShowResults(results []geocode.SearchResult)
	ClearResults()
}

type Options struct {
	Debounce  time.Duration
	Clock     clockwork.Clock
	View      View
	OnResults func(geocode.ForwardResult)
	Metrics   *metrics.Metrics
}

type pendingQuery struct {
	token uint64
	text  string
}

type input struct {
	ctx  context.Context
	text string
	// generation is the selection generation the input was typed in.
	generation uint64
}

// Controller turns typed text into forward geocoding queries and the selection of a result
// into a marker relocation. Only the response of the latest query is ever shown.
type Controller struct {
	coder     geocode.Client
	relocator Relocator
	view      View
	onResults func(geocode.ForwardResult)
	metrics   *metrics.Metrics
	log       *logger.Logger
	debouncer *debounce.Debouncer[input]

	mu         sync.Mutex
	state      State
	token      uint64
	generation uint64
	pending    pendingQuery
	results []geocode.SearchResult
}

func New(coder geocode.Client, relocator Relocator, log *logger.Logger, opts Options) *Controller {
	interval := opts.Debounce
	if interval <= 0 {
		interval = DefaultDebounce
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Controller{
		coder:     coder,
		relocator: relocator,
		view:      opts.View,
		onResults: opts.OnResults,
		metrics:   opts.Metrics,
		log:       log,
	}
	c.debouncer = debounce.New(interval, c.query, debounce.WithClock(clock))
	return c
}

// Input handles a change of the search input. The query is sent once no further input
// arrived for the debounce interval.
func (c *Controller) Input(ctx context.Context, text string) {
	c.mu.Lock()
	c.state = StateDebouncing
	generation := c.generation
	c.mu.Unlock()
	c.debouncer.Call(input{ctx: ctx, text: text, generation: generation})
}

// Select relocates the marker to the result with the given index, clears the results and
// writes the result description into the input.
func (c *Controller) Select(ctx context.Context, index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.results) {
		c.mu.Unlock()
		return ErrNoSuchResult
	}
	result := c.results[index]
	c.debouncer.Stop()
	c.token++
	c.generation++
	c.clear()
	if c.view != nil {
		c.view.SetInput(result.Description)
	}
	c.mu.Unlock()

	center := result.Center
	c.relocator.Relocate(ctx, &center)
	return nil
}

// HasResults reports whether results are currently shown.
func (c *Controller) HasResults() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results) > 0
}

// Results returns a copy of the results currently shown.
func (c *Controller) Results() []geocode.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// LastQuery returns the text of the latest query sent to the geocoder.
func (c *Controller) LastQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.text
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels a pending query. Queries already sent finish and are discarded.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.mu.Lock()
	c.token++
	c.generation++
	c.mu.Unlock()
}

func (c *Controller) query(in input) {
	text := strings.TrimSpace(in.text)

	c.mu.Lock()
	// Input typed before a selection or Close must not reopen the results.
	if in.generation != c.generation {
		c.mu.Unlock()
		c.log.Debug("dropping search input superseded by a selection", slog.String("query", text))
		return
	}
	c.token++
	if text == "" {
		c.clear()
		c.mu.Unlock()
		return
	}
	query := pendingQuery{token: c.token, text: text}
	c.pending = query
	c.state = StateQuerying
	c.mu.Unlock()

	result, err := c.coder.Forward(in.ctx, query.text)

	c.mu.Lock()
	if query.token != c.token {
		c.mu.Unlock()
		c.log.Debug("discarding stale search response", slog.String("query", query.text),
			slog.Uint64("token", query.token))
		c.metrics.ObserveStale(metrics.ComponentSearch)
		return
	}
	if err != nil || !result.Status.OK() || len(result.Results) == 0 {
		if err != nil {
			c.log.Warn("search query failed", slog.String("query", query.text),
				slog.String("status", string(result.Status)), logger.Err(err))
		}
		c.clear()
		c.mu.Unlock()
		return
	}
	c.results = withConsistentBounds(result.Results)
	c.state = StateResultsShown
	if c.view != nil {
		c.view.ShowResults(slices.Clone(c.results))
	}
	c.mu.Unlock()

	if c.onResults != nil {
		c.onResults(result)
	}
}

// clear drops the results and returns to idle. The caller must hold c.mu.
func (c *Controller) clear() {
	c.results = nil
	c.state = StateIdle
	if c.view != nil {
		c.view.ClearResults()
	}
}

// withConsistentBounds drops result bounds that do not contain the result center.
func withConsistentBounds(results []geocode.SearchResult) []geocode.SearchResult {
	results = slices.Clone(results)
	for i, result := range results {
		if result.Bounds != nil && !result.Bounds.Contains(result.Center) {
			results[i].Bounds = nil
		}
	}
	return results
}
