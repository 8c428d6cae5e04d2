// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package parsimap

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/http"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/testhelper"
)

const (
	reverseFile             = "../../../../testdata/parsimap_reverse.json"
	reverseUnauthorizedFile = "../../../../testdata/parsimap_reverse_unauthorized.json"
	reverseVillageFile      = "../../../../testdata/parsimap_reverse_village.json"
	forwardFile             = "../../../../testdata/parsimap_forward.json"
	forwardEmptyFile        = "../../../../testdata/parsimap_forward_empty.json"
	testAPIKey              = "test-api-key"
)

var vanak = geo.NewPoint(35.7575, 51.4098)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		coder := testCoder(t)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		coder := testCoder(t)
		if coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestParsimap_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		var query string
		respond := testhelper.JSONResponder(t, reverseFile, 200)
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			query = req.URL.RawQuery
			return respond(req)
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), vanak)
		if err != nil {
			t.Fatal(err)
		}
		if addr.Status != geocode.StatusOK {
			t.Fatalf("expected status OK, got %s", addr.Status)
		}
		if addr.Address != "تهران، ولیعصر، کوچه نهم" {
			t.Errorf("unexpected address: %q", addr.Address)
		}
		if len(addr.Subdivisions) != 4 {
			t.Fatalf("expected 4 subdivisions, got %d", len(addr.Subdivisions))
		}
		district := addr.Subdivisions[geocode.LevelDistrict]
		if district.Title != "مرکزی" || district.Code != "230101" || district.ID != 1201 || district.Type != "bakhsh" {
			t.Errorf("expected subdivision metadata to be carried through, got %+v", district)
		}
		if _, ok := addr.Subdivisions[geocode.LevelVillage]; ok {
			t.Error("did not expect a village subdivision")
		}
		if !strings.Contains(query, "location=51.4098%2C35.7575") {
			t.Errorf("expected location in lng,lat order, got %q", query)
		}
		if !strings.Contains(query, "key="+testAPIKey) {
			t.Errorf("expected api key to be sent, got %q", query)
		}
	})
	t.Run("both spellings of the village key are mapped", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.JSONResponder(t, reverseVillageFile, 200))
		addr, err := coder.Reverse(t.Context(), vanak)
		if err != nil {
			t.Fatal(err)
		}
		if addr.Subdivisions[geocode.LevelVillage].Title != "امامه" {
			t.Errorf("expected village subdivision, got %+v", addr.Subdivisions)
		}
		if len(addr.Subdivisions) != 2 {
			t.Errorf("expected unknown subdivision keys to be ignored, got %+v", addr.Subdivisions)
		}
	})
	t.Run("non-OK API status is reported", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.JSONResponder(t, reverseUnauthorizedFile, 401))
		addr, err := coder.Reverse(t.Context(), vanak)
		if err != nil {
			t.Fatal(err)
		}
		if addr.Status != geocode.StatusUnauthorized {
			t.Errorf("expected status %s, got %s", geocode.StatusUnauthorized, addr.Status)
		}
	})
	t.Run("reverse geocoding fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), vanak)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if addr.Status != geocode.StatusError {
			t.Errorf("expected status %s, got %s", geocode.StatusError, addr.Status)
		}
	})
	t.Run("broken JSON on a gateway error maps the HTTP code", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 503,
				Body:       io.NopCloser(strings.NewReader("service unavailable")),
				Header:     make(stdhttp.Header),
			}, nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), vanak)
		if err == nil {
			t.Fatal("expected decoding to fail")
		}
		if addr.Status != geocode.StatusServiceUnavailable {
			t.Errorf("expected status %s, got %s", geocode.StatusServiceUnavailable, addr.Status)
		}
	})
}

func TestParsimap_Forward(t *testing.T) {
	t.Run("forward geocoding succeeds", func(t *testing.T) {
		var searchText string
		respond := testhelper.JSONResponder(t, forwardFile, 200)
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			searchText = req.URL.Query().Get("search_text")
			return respond(req)
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		result, err := coder.Forward(t.Context(), "ونک")
		if err != nil {
			t.Fatal(err)
		}
		if searchText != "ونک" {
			t.Errorf("expected search text to be sent, got %q", searchText)
		}
		if result.Status != geocode.StatusOK {
			t.Fatalf("expected status OK, got %s", result.Status)
		}
		if len(result.Results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(result.Results))
		}
		first := result.Results[0]
		if first.Description != "تهران، میدان ونک" || first.Title != "میدان ونک" || first.Category != "square" {
			t.Errorf("unexpected first result: %+v", first)
		}
		if !first.Center.Equal(vanak) {
			t.Errorf("expected center %s, got %s", vanak, first.Center)
		}
		if first.Bounds == nil || !first.Bounds.Contains(first.Center) {
			t.Error("expected bounds to contain the center")
		}
		if result.Results[1].Bounds != nil {
			t.Error("expected missing bounds to stay nil")
		}
	})
	t.Run("empty result list", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.JSONResponder(t, forwardEmptyFile, 200))
		result, err := coder.Forward(t.Context(), "xyz")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Status.OK() || len(result.Results) != 0 {
			t.Errorf("expected OK with no results, got %s with %d", result.Status, len(result.Results))
		}
	})
	t.Run("forward geocoding fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		if _, err := coder.Forward(t.Context(), "ونک"); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func testCoder(t *testing.T) *Parsimap {
	t.Helper()
	return New(http.New(logger.NewLogger(slog.LevelError, io.Discard)), testAPIKey)
}

func testCoderWithRoundtripFunc(t *testing.T, fn func(*stdhttp.Request) (*stdhttp.Response, error)) *Parsimap {
	t.Helper()
	client := http.New(logger.NewLogger(slog.LevelError, io.Discard))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(client, testAPIKey)
}
