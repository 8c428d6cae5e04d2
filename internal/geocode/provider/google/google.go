// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/logger"
)

const name = "google"

// APIClient is the subset of the Google Maps client that the provider needs.
type APIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type Google struct {
	client APIClient
	lang   language.Tag
	log    *logger.Logger
}

// componentLevels maps Google address component types to subdivision levels. The first
// component matching a level wins.
var componentLevels = []struct {
	kind  string
	level geocode.Level
}{
	{"administrative_area_level_1", geocode.LevelRegion},
	{"administrative_area_level_2", geocode.LevelCounty},
	{"administrative_area_level_3", geocode.LevelDistrict},
	{"sublocality", geocode.LevelDistrict},
	{"locality", geocode.LevelCity},
	{"postal_town", geocode.LevelCity},
}

// statusErrors maps the status strings the maps client embeds in its errors.
var statusErrors = map[string]geocode.Status{
	"REQUEST_DENIED":   geocode.StatusUnauthorized,
	"OVER_QUERY_LIMIT": geocode.StatusLimitReached,
	"OVER_DAILY_LIMIT": geocode.StatusLimitReached,
	"INVALID_REQUEST":  geocode.StatusInvalidParameters,
	"UNKNOWN_ERROR":    geocode.StatusServiceUnavailable,
}

// NewClient returns a Google Maps API client for the given API key.
func NewClient(apikey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apikey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return client, nil
}

func New(client APIClient, lang language.Tag, log *logger.Logger) *Google {
	return &Google{client: client, lang: lang, log: log}
}

func (g *Google) Name() string {
	return name
}

func (g *Google) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	g.log.DebugContext(ctx, "reverse geocoding using Google Maps", slog.String("point", point.String()))
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: point.Lat, Lng: point.Lng},
		Language: g.lang.String(),
	}
	results, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return geocode.ReverseResult{Status: statusOf(err), Point: point},
			fmt.Errorf("failed to reverse geocode coordinates: %w", err)
	}
	if len(results) == 0 {
		return geocode.ReverseResult{Status: geocode.StatusOK, Point: point}, nil
	}

	best := results[0]
	return geocode.ReverseResult{
		Status:       geocode.StatusOK,
		Point:        point,
		Address:      freeText(best),
		Subdivisions: subdivisions(best.AddressComponents),
	}, nil
}

func (g *Google) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	g.log.DebugContext(ctx, "geocoding using Google Maps", slog.String("address", text))
	req := &maps.GeocodingRequest{
		Address:  text,
		Language: g.lang.String(),
	}
	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return geocode.ForwardResult{Status: statusOf(err), Query: text},
			fmt.Errorf("failed to geocode address: %w", err)
	}

	forward := geocode.ForwardResult{
		Status:  geocode.StatusOK,
		Query:   text,
		Results: make([]geocode.SearchResult, 0, len(results)),
	}
	for _, res := range results {
		loc := res.Geometry.Location
		result := geocode.SearchResult{
			Description: res.FormattedAddress,
			Center:      geo.NewPoint(loc.Lat, loc.Lng),
		}
		if len(res.AddressComponents) > 0 {
			result.Title = res.AddressComponents[0].LongName
		}
		if len(res.Types) > 0 {
			result.Category = res.Types[0]
		}
		if bounds := res.Geometry.Bounds; bounds != (maps.LatLngBounds{}) {
			result.Bounds = &geo.Bounds{
				NorthEast: geo.NewPoint(bounds.NorthEast.Lat, bounds.NorthEast.Lng),
				SouthWest: geo.NewPoint(bounds.SouthWest.Lat, bounds.SouthWest.Lng),
			}
		}
		forward.Results = append(forward.Results, result)
	}
	return forward, nil
}

func subdivisions(components []maps.AddressComponent) map[geocode.Level]geocode.Subdivision {
	subs := make(map[geocode.Level]geocode.Subdivision)
	for _, cl := range componentLevels {
		if _, ok := subs[cl.level]; ok {
			continue
		}
		for _, comp := range components {
			if slices.Contains(comp.Types, cl.kind) {
				subs[cl.level] = geocode.Subdivision{Title: comp.LongName, Code: comp.ShortName, Type: cl.kind}
				break
			}
		}
	}
	return subs
}

// freeText builds the street level part of the address from route and street number, and
// falls back to the formatted address.
func freeText(result maps.GeocodingResult) string {
	var route, number string
	for _, comp := range result.AddressComponents {
		switch {
		case slices.Contains(comp.Types, "route"):
			route = comp.LongName
		case slices.Contains(comp.Types, "street_number"):
			number = comp.LongName
		}
	}
	if route == "" {
		return result.FormattedAddress
	}
	return strings.TrimSpace(route + " " + number)
}

func statusOf(err error) geocode.Status {
	msg := err.Error()
	for key, status := range statusErrors {
		if strings.Contains(msg, key) {
			return status
		}
	}
	return geocode.StatusError
}
