// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package headless implements an in-memory map engine. It renders nothing and records every
// interaction, which makes it usable from the CLI and from tests.
package headless

import (
	"sync"
	"time"

	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/geo"
)

// Flight is a recorded FlyTo call.
type Flight struct {
	Point    geo.Point
	Duration time.Duration
	Animate  bool
}

// Marker is a marker visual on the headless engine.
type Marker struct {
	mu      sync.Mutex
	point   geo.Point
	opts    engine.MarkerOptions
	removed bool
}

func (m *Marker) Point() geo.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.point
}

func (m *Marker) Options() engine.MarkerOptions {
	return m.opts
}

func (m *Marker) Removed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed
}

type Engine struct {
	mu          sync.Mutex
	center      geo.Point
	zoom        int
	zoomControl bool
	markers     []*Marker
	maxMarkers  int
	flights     []Flight
	controls    map[engine.Position][]engine.Control
	onClick     []func(geo.Point)
	onMove      []func(geo.Point)
	onDragEnd   []func(geo.Point)
}

func New(center geo.Point, zoom int) *Engine {
	return &Engine{
		center:   center,
		zoom:     zoom,
		controls: make(map[engine.Position][]engine.Control),
	}
}

func (e *Engine) Center() geo.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.center
}

func (e *Engine) Zoom() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

func (e *Engine) SetView(center geo.Point, zoom int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.center = center
	e.zoom = zoom
}

func (e *Engine) OnClick(fn func(geo.Point)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClick = append(e.onClick, fn)
}

func (e *Engine) OnMove(fn func(geo.Point)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMove = append(e.onMove, fn)
}

func (e *Engine) OnDragEnd(fn func(geo.Point)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDragEnd = append(e.onDragEnd, fn)
}

func (e *Engine) AddMarker(point geo.Point, opts engine.MarkerOptions) engine.Visual {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := &Marker{point: point, opts: opts}
	e.markers = append(e.markers, m)
	e.maxMarkers = max(e.maxMarkers, len(e.markers))
	return m
}

func (e *Engine) RemoveMarker(v engine.Visual) {
	m, ok := v.(*Marker)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.markers {
		if cur == m {
			e.markers = append(e.markers[:i], e.markers[i+1:]...)
			break
		}
	}
	m.mu.Lock()
	m.removed = true
	m.mu.Unlock()
}

func (e *Engine) MoveMarker(v engine.Visual, point geo.Point) {
	m, ok := v.(*Marker)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.point = point
}

// FlyTo records the flight and moves the view center to point. Move handlers are not invoked,
// just like a programmatic pan does not count as a user move.
func (e *Engine) FlyTo(point geo.Point, duration time.Duration, animate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.center = point
	e.flights = append(e.flights, Flight{Point: point, Duration: duration, Animate: animate})
}

func (e *Engine) Distance(a, b geo.Point) float64 {
	return a.DistanceTo(b)
}

func (e *Engine) AddControl(c engine.Control, pos engine.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controls[pos] = append(e.controls[pos], c)
}

func (e *Engine) SetZoomControl(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zoomControl = enabled
}

// Click simulates a user click at point.
func (e *Engine) Click(point geo.Point) {
	for _, fn := range e.handlers(&e.onClick) {
		fn(point)
	}
}

// Pan simulates the user dragging the map to a new center. Every step fires the move handlers
// and the final step fires the drag-end handlers.
func (e *Engine) Pan(steps ...geo.Point) {
	if len(steps) == 0 {
		return
	}
	for _, step := range steps {
		e.mu.Lock()
		e.center = step
		e.mu.Unlock()
		for _, fn := range e.handlers(&e.onMove) {
			fn(step)
		}
	}
	last := steps[len(steps)-1]
	for _, fn := range e.handlers(&e.onDragEnd) {
		fn(last)
	}
}

// DragMarker simulates the user dragging a marker visual to point.
func (e *Engine) DragMarker(v engine.Visual, point geo.Point) {
	m, ok := v.(*Marker)
	if !ok || m.Removed() || !m.opts.Draggable {
		return
	}
	e.MoveMarker(m, point)
	if m.opts.OnDragEnd != nil {
		m.opts.OnDragEnd(point)
	}
}

// Markers returns the marker visuals currently on the map.
func (e *Engine) Markers() []*Marker {
	e.mu.Lock()
	defer e.mu.Unlock()
	markers := make([]*Marker, len(e.markers))
	copy(markers, e.markers)
	return markers
}

// MaxMarkers returns the highest number of marker visuals that were on the map at once.
func (e *Engine) MaxMarkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxMarkers
}

func (e *Engine) Flights() []Flight {
	e.mu.Lock()
	defer e.mu.Unlock()
	flights := make([]Flight, len(e.flights))
	copy(flights, e.flights)
	return flights
}

func (e *Engine) Controls(pos engine.Position) []engine.Control {
	e.mu.Lock()
	defer e.mu.Unlock()
	controls := make([]engine.Control, len(e.controls[pos]))
	copy(controls, e.controls[pos])
	return controls
}

func (e *Engine) ZoomControl() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoomControl
}

// handlers returns a snapshot of the handler list so that handlers can run without the lock.
func (e *Engine) handlers(list *[]func(geo.Point)) []func(geo.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fns := make([]func(geo.Point), len(*list))
	copy(fns, *list)
	return fns
}
