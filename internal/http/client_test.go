// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/testhelper"
)

type testType struct {
	String string  `json:"string"`
	Int    int     `json:"int"`
	Float  float64 `json:"float"`
	Bool   bool    `json:"bool"`
}

const testFile = "../../testdata/testtype.json"

func TestNew(t *testing.T) {
	client := New(logger.New(slog.LevelInfo))
	if client == nil {
		t.Fatal("expected client to be non-nil")
	}
}

func TestClient_Get(t *testing.T) {
	t.Run("getting and serializing JSON should work", func(t *testing.T) {
		var gotReq *stdhttp.Request
		respond := testhelper.JSONResponder(t, testFile, 200)
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotReq = req
			return respond(req)
		}

		client := New(logger.New(slog.LevelInfo))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}
		query := url.Values{}
		query.Add("key", "value")
		headers := make(map[string]string)
		headers["X-Custom-Header"] = "custom-value"

		target := new(testType)
		response, err := client.Get(t.Context(), "https://example.com", target, query, headers)
		if err != nil {
			t.Fatalf("failed to get JSON response: %s", err)
		}

		if response != 200 {
			t.Errorf("expected status code 200, got %d", response)
		}
		if target.String != "test" {
			t.Errorf("expected target string to be 'test', got %s", target.String)
		}
		if target.Int != 123 {
			t.Errorf("expected target int to be 123, got %d", target.Int)
		}
		if target.Float != 123.456 {
			t.Errorf("expected target float to be 123.456, got %f", target.Float)
		}
		if !target.Bool {
			t.Error("expected target bool to be true")
		}
		if gotReq.URL.Query().Get("key") != "value" {
			t.Errorf("expected query parameter to be sent, got %q", gotReq.URL.RawQuery)
		}
		if gotReq.Header.Get("X-Custom-Header") != "custom-value" {
			t.Error("expected custom header to be sent")
		}
		if !strings.HasPrefix(gotReq.Header.Get("User-Agent"), "Mozilla/5.0") {
			t.Errorf("unexpected user agent: %s", gotReq.Header.Get("User-Agent"))
		}
	})
	t.Run("unmarshalling into non-pointer should fail", func(t *testing.T) {
		client := New(logger.New(slog.LevelInfo))
		var target testType
		_, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if err == nil {
			t.Fatal("expected get to fail")
		}
		if !errors.Is(err, ErrNonPointerTarget) {
			t.Errorf("expected error to be %s, got %s", ErrNonPointerTarget, err)
		}
	})
	t.Run("parsing an invalid url should fail", func(t *testing.T) {
		client := New(logger.New(slog.LevelInfo))
		target := new(testType)
		_, err := client.Get(t.Context(), "http://example.com/xyz%", target, nil, nil)
		if err == nil {
			t.Fatal("expected get to fail")
		}
		if !strings.Contains(err.Error(), "failed to parse URL") {
			t.Errorf("expected error to contain 'failed to parse URL', got %s", err)
		}
	})
	t.Run("get request fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}

		client := New(logger.New(slog.LevelInfo))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		_, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if err == nil {
			t.Fatal("expected get request to fail")
		}
	})
	t.Run("non-JSON response returns the status code with the error", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 502,
				Body:       io.NopCloser(strings.NewReader("<html>bad gateway</html>")),
				Header:     make(stdhttp.Header),
			}, nil
		}

		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		code, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if err == nil {
			t.Fatal("expected decoding to fail")
		}
		if code != 502 {
			t.Errorf("expected status code 502, got %d", code)
		}
	})
	t.Run("failing to close the body is only logged", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       &failReadCloser{Reader: strings.NewReader(`{"string":"test"}`)},
				Header:     make(stdhttp.Header),
			}, nil
		}

		buf := &strings.Builder{}
		client := New(logger.NewLogger(slog.LevelInfo, buf))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		if _, err := client.Get(t.Context(), "https://example.com", target, nil, nil); err != nil {
			t.Fatalf("expected get request to succeed, got %s", err)
		}
		if !strings.Contains(buf.String(), "failed to close HTTP request body") {
			t.Errorf("expected close failure to be logged, got %q", buf.String())
		}
	})
}

func TestClient_GetWithTimeout(t *testing.T) {
	t.Run("get request fails on context cancel", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond)
		defer cancel()

		target := new(testType)
		_, err := client.GetWithTimeout(ctx, "https://example.com", target, nil, nil, time.Second*5)
		if err == nil {
			t.Fatal("expected get request to fail")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected error to be %s, got %s", context.DeadlineExceeded, err)
		}
	})
}

type failReadCloser struct {
	io.Reader
}

func (failReadCloser) Close() error { return errors.New("failed to close") }
