// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package parsimap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/http"
)

const (
	APIReverseEndpoint = "https://api.parsimap.ir/geocode/reverse"
	APIForwardEndpoint = "https://api.parsimap.ir/geocode/forward"
	APITimeout         = time.Second * 10
	name               = "parsimap"
)

// subdivisionLevels maps the subdivision keys of the API onto the canonical levels. Both
// spellings of the village key occur in the wild.
var subdivisionLevels = map[string]geocode.Level{
	"ostan":      geocode.LevelRegion,
	"shahrestan": geocode.LevelCounty,
	"bakhsh":     geocode.LevelDistrict,
	"shahr":      geocode.LevelCity,
	"rusta":      geocode.LevelVillage,
	"rosta":      geocode.LevelVillage,
}

type Parsimap struct {
	apikey string
	http   *http.Client
}

type ReverseResponse struct {
	Status             string                 `json:"status"`
	Address            string                 `json:"address"`
	ApproximateAddress string                 `json:"approximate_address"`
	LocalAddress       string                 `json:"local_address"`
	SubdivisionPrefix  string                 `json:"subdivision_prefix"`
	Subdivisions       map[string]Subdivision `json:"subdivisions"`
}

type Subdivision struct {
	Code  string `json:"code"`
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type ForwardResponse struct {
	Status     string   `json:"status"`
	SearchType string   `json:"search_type"`
	Results    []Result `json:"results"`
}

type Result struct {
	Description string      `json:"description"`
	GeoLocation GeoLocation `json:"geo_location"`
}

type GeoLocation struct {
	Category  string `json:"category"`
	Title     string `json:"title"`
	Center    LatLng `json:"center"`
	NorthEast LatLng `json:"north_east"`
	SouthWest LatLng `json:"south_west"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func New(client *http.Client, apikey string) *Parsimap {
	return &Parsimap{
		apikey: apikey,
		http:   client,
	}
}

func (p *Parsimap) Name() string {
	return name
}

func (p *Parsimap) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	var response ReverseResponse

	query := url.Values{}
	query.Set("key", p.apikey)
	query.Set("location", strconv.FormatFloat(point.Lng, 'f', -1, 64)+","+
		strconv.FormatFloat(point.Lat, 'f', -1, 64))
	query.Set("local_address", "false")
	query.Set("approx_address", "false")
	query.Set("subdivision", "true")
	query.Set("plate", "false")
	query.Set("request_id", "false")

	code, err := p.http.GetWithTimeout(ctx, APIReverseEndpoint, &response, query, nil, APITimeout)
	if err != nil {
		return geocode.ReverseResult{Status: statusOf(response.Status, code), Point: point},
			fmt.Errorf("failed to retrieve address details from Parsimap API: %w", err)
	}

	result := geocode.ReverseResult{
		Status:       statusOf(response.Status, code),
		Point:        point,
		Address:      response.Address,
		Subdivisions: make(map[geocode.Level]geocode.Subdivision, len(response.Subdivisions)),
	}
	for key, sub := range response.Subdivisions {
		level, ok := subdivisionLevels[key]
		if !ok || sub.Title == "" {
			continue
		}
		result.Subdivisions[level] = geocode.Subdivision{
			Title: sub.Title,
			Code:  sub.Code,
			ID:    sub.ID,
			Type:  sub.Type,
		}
	}

	return result, nil
}

func (p *Parsimap) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	var response ForwardResponse

	query := url.Values{}
	query.Set("key", p.apikey)
	query.Set("search_text", text)
	query.Set("only_in_district", "false")
	query.Set("subdivision", "false")
	query.Set("plate", "false")

	code, err := p.http.GetWithTimeout(ctx, APIForwardEndpoint, &response, query, nil, APITimeout)
	if err != nil {
		return geocode.ForwardResult{Status: statusOf(response.Status, code), Query: text},
			fmt.Errorf("failed to retrieve search results from Parsimap API: %w", err)
	}

	result := geocode.ForwardResult{
		Status:  statusOf(response.Status, code),
		Query:   text,
		Results: make([]geocode.SearchResult, 0, len(response.Results)),
	}
	for _, res := range response.Results {
		loc := res.GeoLocation
		item := geocode.SearchResult{
			Description: res.Description,
			Title:       loc.Title,
			Category:    loc.Category,
			Center:      geo.NewPoint(loc.Center.Lat, loc.Center.Lng),
		}
		if loc.NorthEast != (LatLng{}) || loc.SouthWest != (LatLng{}) {
			item.Bounds = &geo.Bounds{
				NorthEast: geo.NewPoint(loc.NorthEast.Lat, loc.NorthEast.Lng),
				SouthWest: geo.NewPoint(loc.SouthWest.Lat, loc.SouthWest.Lng),
			}
		}
		result.Results = append(result.Results, item)
	}

	return result, nil
}

// statusOf prefers the status reported in the response body and falls back to the HTTP code
func statusOf(status string, code int) geocode.Status {
	if status != "" {
		return geocode.Status(status)
	}
	if code == 0 {
		return geocode.StatusError
	}
	return geocode.StatusFromHTTP(code)
}
