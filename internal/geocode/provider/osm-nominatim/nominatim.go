// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

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
	APISearchEndpoint  = "https://nominatim.openstreetmap.org/search"
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	SearchLimit        = 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag
}

type ReverseResult struct {
	Error       string  `json:"error"`
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type SearchResult struct {
	APILat      string   `json:"lat"`
	APILon      string   `json:"lon"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	CityDistrict  string `json:"city_district"`
	District      string `json:"district"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Hamlet        string `json:"hamlet"`
	County        string `json:"county"`
	State         string `json:"state"`
	Province      string `json:"province"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang: lang,
		http: client,
	}
}

func (n *Nominatim) Name() string {
	return name
}

func (n *Nominatim) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	var result ReverseResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("lat", fmt.Sprintf("%f", point.Lat))
	query.Set("lon", fmt.Sprintf("%f", point.Lng))
	query.Set("accept-language", n.lang.String())

	code, err := n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout)
	if err != nil {
		return geocode.ReverseResult{Status: geocode.StatusFromHTTP(code), Point: point},
			fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if result.Error != "" {
		status := geocode.StatusFromHTTP(code)
		if status.OK() {
			status = geocode.StatusError
		}
		return geocode.ReverseResult{Status: status, Point: point}, nil
	}

	addr := result.Address
	subdivisions := make(map[geocode.Level]geocode.Subdivision)
	setLevel(subdivisions, geocode.LevelRegion, addr.State, addr.Province)
	setLevel(subdivisions, geocode.LevelCounty, addr.County)
	setLevel(subdivisions, geocode.LevelDistrict, addr.CityDistrict, addr.District, addr.Suburb)
	setLevel(subdivisions, geocode.LevelCity, addr.City, addr.Town)
	setLevel(subdivisions, geocode.LevelVillage, addr.Village, addr.Hamlet)

	// The free text tail is the street level part of the address. If Nominatim has no street
	// level data, the display name is the best we have.
	freeText := joinNonEmpty(" ", addr.Road, addr.HouseNumber)
	freeText = joinNonEmpty(", ", addr.Neighbourhood, freeText)
	if freeText == "" {
		freeText = result.DisplayName
	}

	lat, err := strconv.ParseFloat(result.APILat, 64)
	if err != nil {
		return geocode.ReverseResult{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	lon, err := strconv.ParseFloat(result.APILon, 64)
	if err != nil {
		return geocode.ReverseResult{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}

	return geocode.ReverseResult{
		Status:       geocode.StatusOK,
		Point:        geo.NewPoint(lat, lon),
		Address:      freeText,
		Subdivisions: subdivisions,
	}, nil
}

func (n *Nominatim) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	var result []SearchResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", text)
	query.Set("limit", strconv.Itoa(SearchLimit))
	query.Set("accept-language", n.lang.String())

	code, err := n.http.GetWithTimeout(ctx, APISearchEndpoint, &result, query, nil, APITimeout)
	if err != nil {
		return geocode.ForwardResult{Status: geocode.StatusFromHTTP(code), Query: text},
			fmt.Errorf("failed to fetch address details from Nominatim API: %w", err)
	}

	forward := geocode.ForwardResult{
		Status:  geocode.StatusFromHTTP(code),
		Query:   text,
		Results: make([]geocode.SearchResult, 0, len(result)),
	}
	for _, res := range result {
		var center geo.Point
		center.Lat, err = strconv.ParseFloat(res.APILat, 64)
		if err != nil {
			return forward, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
		}
		center.Lng, err = strconv.ParseFloat(res.APILon, 64)
		if err != nil {
			return forward, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
		}
		forward.Results = append(forward.Results, geocode.SearchResult{
			Description: res.DisplayName,
			Title:       res.Name,
			Category:    res.Category,
			Center:      center,
			Bounds:      parseBoundingBox(res.BoundingBox),
		})
	}

	return forward, nil
}

// parseBoundingBox parses Nominatim's [minlat, maxlat, minlon, maxlon] bounding box
func parseBoundingBox(box []string) *geo.Bounds {
	if len(box) != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i, v := range box {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		vals[i] = f
	}
	return &geo.Bounds{
		NorthEast: geo.NewPoint(vals[1], vals[3]),
		SouthWest: geo.NewPoint(vals[0], vals[2]),
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

func joinNonEmpty(sep string, parts ...string) string {
	vals := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			vals = append(vals, p)
		}
	}
	return strings.Join(vals, sep)
}
