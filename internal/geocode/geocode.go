// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"net/http"

	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/i18n"
)

// Status is the API status that a geocoding provider reported for a request.
type Status string

const (
	StatusOK                 Status = "OK"
	StatusUnauthorized       Status = "UNAUTHORIZED"
	StatusAuthExpired        Status = "AUTHEXPIRED"
	StatusLimitReached       Status = "LIMIT_REACHED"
	StatusError              Status = "ERROR"
	StatusInvalidParameters  Status = "INVALID_PARAMETERS"
	StatusServiceUnavailable Status = "SERVICE_UNAVAILABLE"
)

var statusMessages = map[Status]localize.MsgID{
	StatusOK:                 "The request was successful",
	StatusUnauthorized:       "The API token is invalid",
	StatusAuthExpired:        "The API token has expired",
	StatusLimitReached:       "The request limit has been reached",
	StatusError:              "An error occurred",
	StatusInvalidParameters:  "The request parameters are invalid",
	StatusServiceUnavailable: "The service is unavailable",
}

// OK reports whether the status signals a successful request.
func (s Status) OK() bool {
	return s == StatusOK
}

// Message resolves the human-readable message for the status in the language of the given
// localizer. Unknown statuses resolve to an empty message.
func (s Status) Message(loc i18n.Localizer) string {
	msg, ok := statusMessages[s]
	if !ok {
		return ""
	}
	if loc == nil {
		return msg
	}
	return loc.Get(msg)
}

// StatusFromHTTP maps a HTTP response code to the closest API status. It is used when a provider
// does not report a status of its own.
func StatusFromHTTP(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusOK
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return StatusUnauthorized
	case code == http.StatusTooManyRequests, code == http.StatusPaymentRequired:
		return StatusLimitReached
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return StatusInvalidParameters
	case code == http.StatusServiceUnavailable, code == http.StatusBadGateway,
		code == http.StatusGatewayTimeout:
		return StatusServiceUnavailable
	default:
		return StatusError
	}
}

// Level is an administrative subdivision level.
type Level string

const (
	LevelRegion   Level = "region"
	LevelCounty   Level = "county"
	LevelDistrict Level = "district"
	LevelCity     Level = "city"
	LevelVillage  Level = "village"
)

// Levels holds all subdivision levels, coarsest first.
var Levels = []Level{LevelRegion, LevelCounty, LevelDistrict, LevelCity, LevelVillage}

var levelLabels = map[Level]localize.MsgID{
	LevelRegion:   "Province",
	LevelCounty:   "County",
	LevelDistrict: "District",
	LevelCity:     "City",
	LevelVillage:  "Village",
}

// Label returns the translatable label message id of the level.
func (l Level) Label() localize.MsgID {
	return levelLabels[l]
}

// Subdivision is a single administrative subdivision of a reverse geocoded address. Code, ID
// and Type are provider specific and passed through untouched.
type Subdivision struct {
	Title string `json:"title"`
	Code  string `json:"code,omitempty"`
	ID    int64  `json:"id,omitempty"`
	Type  string `json:"type,omitempty"`
}

// ReverseResult is the outcome of resolving a point into an address.
type ReverseResult struct {
	Status       Status
	Point        geo.Point
	Address      string
	Subdivisions map[Level]Subdivision
	CacheHit     bool
}

// SearchResult is a single candidate of a forward geocoding query.
type SearchResult struct {
	Description string      `json:"description"`
	Title       string      `json:"title,omitempty"`
	Category    string      `json:"category,omitempty"`
	Center      geo.Point   `json:"center"`
	Bounds      *geo.Bounds `json:"bounds,omitempty"`
}

// ForwardResult is the outcome of resolving a text query into a ranked list of points.
type ForwardResult struct {
	Status   Status
	Query    string
	Results  []SearchResult
	CacheHit bool
}

// Client is the interface that all geocoding providers satisfy. Both operations must be
// assumed to fail on every call, either with an error or with a non-OK status.
type Client interface {
	Name() string
	Reverse(ctx context.Context, point geo.Point) (ReverseResult, error)
	Forward(ctx context.Context, text string) (ForwardResult, error)
}
