// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package engine describes the capabilities the map widget needs from a map rendering engine.
package engine

import (
	"time"

	"github.com/wneessen/mtrmap/internal/geo"
)

// Position is the corner of the map a control is placed in.
type Position string

const (
	PositionTopLeft     Position = "topleft"
	PositionTopRight    Position = "topright"
	PositionBottomLeft  Position = "bottomleft"
	PositionBottomRight Position = "bottomright"
)

// Visual is an opaque handle for a marker that has been placed on the map.
type Visual interface {
	Point() geo.Point
}

// MarkerOptions controls how a marker visual is created.
type MarkerOptions struct {
	Draggable bool
	Popup     string
	IconURL   string
	OnDragEnd func(geo.Point)
}

// Control is a UI element that can be attached to a corner of the map.
type Control interface {
	Name() string
}

// Engine is the map rendering engine. Handlers registered with the On* methods may be called
// from any goroutine.
type Engine interface {
	Center() geo.Point
	Zoom() int
	SetView(center geo.Point, zoom int)
	OnClick(fn func(geo.Point))
	OnMove(fn func(center geo.Point))
	OnDragEnd(fn func(center geo.Point))
	AddMarker(point geo.Point, opts MarkerOptions) Visual
	RemoveMarker(v Visual)
	MoveMarker(v Visual, point geo.Point)
	FlyTo(point geo.Point, duration time.Duration, animate bool)
	Distance(a, b geo.Point) float64
	AddControl(c Control, pos Position)
	SetZoomControl(enabled bool)
}
