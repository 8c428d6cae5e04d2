// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// coordEpsilon is the tolerance under which two coordinates are considered identical
const coordEpsilon = 1e-9

// Point represents a geographic point picked on the map. Label is the optional popup text
// that is attached to the marker visual.
type Point struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// Bounds represents the bounding box of a search result.
type Bounds struct {
	NorthEast Point `json:"north_east"`
	SouthWest Point `json:"south_west"`
}

// NewPoint returns a new Point for the given coordinates.
func NewPoint(lat, lng float64) Point {
	return Point{Lat: lat, Lng: lng}
}

// WithLabel returns a copy of the Point with the given popup label.
func (p Point) WithLabel(label string) Point {
	p.Label = label
	return p
}

// Valid checks if the point is within the EPSG:4326 coordinate ranges
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// Equal reports whether both points share the same coordinates. Labels are ignored.
func (p Point) Equal(other Point) bool {
	return math.Abs(p.Lat-other.Lat) < coordEpsilon && math.Abs(p.Lng-other.Lng) < coordEpsilon
}

// Orb returns the point in orb's lon/lat order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// DistanceTo returns the great-circle distance in meters between two points using the
// haversine formula.
func (p Point) DistanceTo(other Point) float64 {
	if p.Equal(other) {
		return 0
	}
	return orbgeo.DistanceHaversine(p.Orb(), other.Orb())
}

// String satisfies the fmt.Stringer interface.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Orb returns the bounds as orb.Bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.SouthWest.Lng, b.SouthWest.Lat},
		Max: orb.Point{b.NorthEast.Lng, b.NorthEast.Lat},
	}
}

// Contains reports whether the point is located inside the bounds.
func (b Bounds) Contains(p Point) bool {
	return b.Orb().Contains(p.Orb())
}

// Center returns the center of the bounds.
func (b Bounds) Center() Point {
	c := b.Orb().Center()
	return Point{Lat: c.Lat(), Lng: c.Lon()}
}
