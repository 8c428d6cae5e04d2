// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/http"
)

const (
	APIReverseEndpoint = "https://api.geocode.earth/v1/reverse"
	APISearchEndpoint  = "https://api.geocode.earth/v1/search"
	APITimeout         = time.Second * 10
	SearchLimit        = 10
	name               = "geocode-earth"
)

type GeocodeEarth struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	BBox       []float64  `json:"bbox"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

// Geometry is a GeoJSON point in lon/lat order.
type Geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	DisplayName   string `json:"label"`
	Name          string `json:"name"`
	Layer         string `json:"layer"`
	Region        string `json:"region"`
	RegionCode    string `json:"region_a"`
	County        string `json:"county"`
	LocalAdmin    string `json:"localadmin"`
	Locality      string `json:"locality"`
	Borough       string `json:"borough"`
	Neighbourhood string `json:"neighbourhood"`
	Street        string `json:"street"`
	HouseNumber   string `json:"housenumber"`
	Postcode      string `json:"postalcode"`
	Country       string `json:"country"`
}

func New(client *http.Client, lang language.Tag, apikey string) *GeocodeEarth {
	return &GeocodeEarth{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", fmt.Sprintf("%f", point.Lat))
	query.Set("point.lon", fmt.Sprintf("%f", point.Lng))
	query.Set("size", "1")
	query.Set("lang", g.lang.String())

	code, err := g.http.GetWithTimeout(ctx, APIReverseEndpoint, &response, query, nil, APITimeout)
	status := geocode.StatusFromHTTP(code)
	if err != nil {
		return geocode.ReverseResult{Status: status, Point: point},
			fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if !status.OK() {
		return geocode.ReverseResult{Status: status, Point: point}, nil
	}
	if len(response.Features) < 1 {
		return geocode.ReverseResult{Status: geocode.StatusOK, Point: point}, nil
	}

	feature := response.Features[0]
	props := feature.Properties
	subdivisions := make(map[geocode.Level]geocode.Subdivision)
	if props.Region != "" {
		subdivisions[geocode.LevelRegion] = geocode.Subdivision{Title: props.Region, Code: props.RegionCode}
	}
	setLevel(subdivisions, geocode.LevelCounty, props.County)
	setLevel(subdivisions, geocode.LevelDistrict, props.Borough, props.LocalAdmin)
	setLevel(subdivisions, geocode.LevelCity, props.Locality)

	freeText := strings.TrimSpace(props.Street + " " + props.HouseNumber)
	if props.Neighbourhood != "" && freeText != "" {
		freeText = props.Neighbourhood + ", " + freeText
	}
	if freeText == "" {
		freeText = props.DisplayName
	}

	resolved := point
	if center, ok := feature.Geometry.point(); ok {
		resolved = center
	}
	return geocode.ReverseResult{
		Status:       geocode.StatusOK,
		Point:        resolved,
		Address:      freeText,
		Subdivisions: subdivisions,
	}, nil
}

func (g *GeocodeEarth) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("text", text)
	query.Set("size", strconv.Itoa(SearchLimit))
	query.Set("lang", g.lang.String())

	code, err := g.http.GetWithTimeout(ctx, APISearchEndpoint, &response, query, nil, APITimeout)
	status := geocode.StatusFromHTTP(code)
	if err != nil {
		return geocode.ForwardResult{Status: status, Query: text},
			fmt.Errorf("failed to retrieve search results from geocode.earth API: %w", err)
	}

	forward := geocode.ForwardResult{
		Status:  status,
		Query:   text,
		Results: make([]geocode.SearchResult, 0, len(response.Features)),
	}
	if !status.OK() {
		return forward, nil
	}
	for _, feature := range response.Features {
		bounds := parseBBox(feature.BBox)
		center, ok := feature.Geometry.point()
		switch {
		case ok:
		case bounds != nil:
			center = bounds.Center()
		default:
			continue
		}
		forward.Results = append(forward.Results, geocode.SearchResult{
			Description: feature.Properties.DisplayName,
			Title:       feature.Properties.Name,
			Category:    feature.Properties.Layer,
			Center:      center,
			Bounds:      bounds,
		})
	}

	return forward, nil
}

func (g Geometry) point() (geo.Point, bool) {
	if len(g.Coordinates) != 2 {
		return geo.Point{}, false
	}
	return geo.NewPoint(g.Coordinates[1], g.Coordinates[0]), true
}

// parseBBox parses a GeoJSON [minlon, minlat, maxlon, maxlat] bounding box
func parseBBox(box []float64) *geo.Bounds {
	if len(box) != 4 {
		return nil
	}
	return &geo.Bounds{
		NorthEast: geo.NewPoint(box[3], box[2]),
		SouthWest: geo.NewPoint(box[1], box[0]),
	}
}

func setLevel(subdivisions map[geocode.Level]geocode.Subdivision, level geocode.Level, candidates ...string) {
	for _, c := range candidates {
		if c != "" {
			subdivisions[level] = geocode.Subdivision{Title: c}
			return
		}
	}
}
