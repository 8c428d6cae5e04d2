// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	SearchLimit = 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	Status       Status   `json:"status"`
	TotalResults int      `json:"total_results"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Bounds      *Bounds    `json:"bounds"`
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	Category      string `json:"_category"`
	Type          string `json:"_type"`
	NomalizedCity string `json:"_normalized_city"`
	City          string `json:"city"`
	CityDistrict  string `json:"city_district"`
	County        string `json:"county"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	Hamlet        string `json:"hamlet"`
	HouseNumber   string `json:"house_number"`
	Neighbourhood string `json:"neighbourhood"`
	Postcode      string `json:"postcode"`
	Road          string `json:"road"`
	State         string `json:"state"`
	StateCode     string `json:"state_code"`
	StateDistrict string `json:"state_district"`
	Suburb        string `json:"suburb"`
	Town          string `json:"town"`
	Village       string `json:"village"`
}

type Bounds struct {
	NorthEast Geometry `json:"northeast"`
	SouthWest Geometry `json:"southwest"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	query := o.query(fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	query.Set("limit", "1")

	response, status, err := o.fetch(ctx, query)
	if err != nil {
		return geocode.ReverseResult{Status: status, Point: point},
			fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if !status.OK() {
		return geocode.ReverseResult{Status: status, Point: point}, nil
	}
	if len(response.Results) != 1 {
		return geocode.ReverseResult{Status: geocode.StatusError, Point: point},
			fmt.Errorf("unambigous amount of results returned for coordinates: %d", len(response.Results))
	}

	result := response.Results[0]
	comp := result.Components
	subdivisions := make(map[geocode.Level]geocode.Subdivision)
	setLevel(subdivisions, geocode.LevelRegion, comp.State)
	setLevel(subdivisions, geocode.LevelCounty, comp.County, comp.StateDistrict)
	setLevel(subdivisions, geocode.LevelDistrict, comp.CityDistrict, comp.Suburb)
	setLevel(subdivisions, geocode.LevelCity, comp.City, comp.Town, comp.NomalizedCity)
	setLevel(subdivisions, geocode.LevelVillage, comp.Village, comp.Hamlet)
	if sub, ok := subdivisions[geocode.LevelRegion]; ok && comp.StateCode != "" {
		sub.Code = comp.StateCode
		subdivisions[geocode.LevelRegion] = sub
	}

	freeText := strings.TrimSpace(comp.Road + " " + comp.HouseNumber)
	if comp.Neighbourhood != "" && freeText != "" {
		freeText = comp.Neighbourhood + ", " + freeText
	}
	if freeText == "" {
		freeText = result.DisplayName
	}

	return geocode.ReverseResult{
		Status:       geocode.StatusOK,
		Point:        geo.NewPoint(result.Geometry.Lat, result.Geometry.Lon),
		Address:      freeText,
		Subdivisions: subdivisions,
	}, nil
}

func (o *OpenCage) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	query := o.query(text)
	query.Set("limit", strconv.Itoa(SearchLimit))

	response, status, err := o.fetch(ctx, query)
	if err != nil {
		return geocode.ForwardResult{Status: status, Query: text},
			fmt.Errorf("failed to retrieve search results from OpenCage API: %w", err)
	}

	forward := geocode.ForwardResult{
		Status:  status,
		Query:   text,
		Results: make([]geocode.SearchResult, 0, len(response.Results)),
	}
	if !status.OK() {
		return forward, nil
	}
	for _, res := range response.Results {
		result := geocode.SearchResult{
			Description: res.DisplayName,
			Category:    res.Components.Category,
			Center:      geo.NewPoint(res.Geometry.Lat, res.Geometry.Lon),
		}
		if res.Bounds != nil {
			result.Bounds = &geo.Bounds{
				NorthEast: geo.NewPoint(res.Bounds.NorthEast.Lat, res.Bounds.NorthEast.Lon),
				SouthWest: geo.NewPoint(res.Bounds.SouthWest.Lat, res.Bounds.SouthWest.Lon),
			}
		}
		forward.Results = append(forward.Results, result)
	}

	return forward, nil
}

func (o *OpenCage) query(q string) url.Values {
	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", q)
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())
	return query
}

// fetch performs the API request. OpenCage reports errors in the body as well as in the HTTP
// status, the body takes precedence.
func (o *OpenCage) fetch(ctx context.Context, query url.Values) (Response, geocode.Status, error) {
	var response Response
	code, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	if response.Status.Code != 0 {
		code = response.Status.Code
	}
	status := geocode.StatusFromHTTP(code)
	if err != nil && status.OK() {
		status = geocode.StatusError
	}
	return response, status, err
}

func setLevel(subdivisions map[geocode.Level]geocode.Subdivision, level geocode.Level, candidates ...string) {
	for _, c := range candidates {
		if c != "" {
			subdivisions[level] = geocode.Subdivision{Title: c}
			return
		}
	}
}
