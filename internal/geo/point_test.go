// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
	"testing"
)

func TestPoint_Valid(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		valid bool
	}{
		{"tehran", NewPoint(35.7, 51.38), true},
		{"north pole", NewPoint(90, 0), true},
		{"date line", NewPoint(0, -180), true},
		{"latitude too large", NewPoint(90.1, 0), false},
		{"longitude too small", NewPoint(0, -180.5), false},
		{"NaN latitude", NewPoint(math.NaN(), 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.point.Valid() != tc.valid {
				t.Errorf("expected validity of %s to be %t", tc.point, tc.valid)
			}
		})
	}
}

func TestPoint_DistanceTo(t *testing.T) {
	t.Run("distance to the same point is zero", func(t *testing.T) {
		p := NewPoint(35.7, 51.38)
		if d := p.DistanceTo(p.WithLabel("home")); d != 0 {
			t.Errorf("expected zero distance, got %f", d)
		}
	})
	t.Run("distance between tehran and karaj", func(t *testing.T) {
		tehran := NewPoint(35.6892, 51.3890)
		karaj := NewPoint(35.8400, 50.9391)
		d := tehran.DistanceTo(karaj)
		if d < 43000 || d > 46000 {
			t.Errorf("expected distance of roughly 44km, got %f", d)
		}
	})
	t.Run("distance is symmetric", func(t *testing.T) {
		a, b := NewPoint(35.65, 51.4), NewPoint(35.7, 51.38)
		if math.Abs(a.DistanceTo(b)-b.DistanceTo(a)) > 1e-6 {
			t.Error("expected distance to be symmetric")
		}
	})
}

func TestBounds(t *testing.T) {
	b := Bounds{NorthEast: NewPoint(36, 52), SouthWest: NewPoint(35, 51)}
	t.Run("point inside the bounds", func(t *testing.T) {
		if !b.Contains(NewPoint(35.5, 51.5)) {
			t.Error("expected point to be inside the bounds")
		}
	})
	t.Run("point outside the bounds", func(t *testing.T) {
		if b.Contains(NewPoint(37, 51.5)) {
			t.Error("expected point to be outside the bounds")
		}
	})
	t.Run("center of the bounds", func(t *testing.T) {
		c := b.Center()
		if !c.Equal(NewPoint(35.5, 51.5)) {
			t.Errorf("expected center to be 35.5,51.5, got %s", c)
		}
	})
}
