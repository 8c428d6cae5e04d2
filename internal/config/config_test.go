// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"slices"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectLocale    = "fa"
		expectLogLevel  = slog.LevelInfo
		expectProvider  = ProviderParsimap
		expectZoom      = 13
		expectCenterLat = 35.65
		expectCenterLng = 51.4
		expectDebounce  = time.Millisecond * 700
		expectCacheTTL  = time.Minute * 10
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Locale != expectLocale {
			t.Errorf("expected locale to be: %s, got %s", expectLocale, conf.Locale)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.GeoCoder.Provider != expectProvider {
			t.Errorf("expected geocoder provider to be: %s, got %s", expectProvider, conf.GeoCoder.Provider)
		}
		if conf.Presets.Zoom != expectZoom {
			t.Errorf("expected zoom to be: %d, got %d", expectZoom, conf.Presets.Zoom)
		}
		if conf.Presets.Center.Lat != expectCenterLat || conf.Presets.Center.Lng != expectCenterLng {
			t.Errorf("expected center to be: %f,%f, got %f,%f", expectCenterLat, expectCenterLng,
				conf.Presets.Center.Lat, conf.Presets.Center.Lng)
		}
		if conf.Search.Debounce != expectDebounce {
			t.Errorf("expected search debounce to be: %s, got %s", expectDebounce, conf.Search.Debounce)
		}
		if conf.GeoCoder.CacheTTL != expectCacheTTL {
			t.Errorf("expected cache TTL to be: %s, got %s", expectCacheTTL, conf.GeoCoder.CacheTTL)
		}
		if !slices.Contains(conf.Plugins, PluginFooter) || !slices.Contains(conf.Plugins, PluginGeocode) {
			t.Errorf("expected footer and geocode plugins to be enabled, got %v", conf.Plugins)
		}
		if conf.HasDefaultMarker() {
			t.Error("expected no default marker")
		}
		if conf.Templates.Address != DefaultAddressTpl || conf.Templates.Result != DefaultResultTpl {
			t.Error("expected default templates to be set")
		}
	})
	t.Run("new config with values from env", func(t *testing.T) {
		t.Setenv("MTRMAP_GEOCODER_PROVIDER", "nominatim")
		t.Setenv("MTRMAP_PRESETS_STICKY_MODE", "true")
		t.Setenv("MTRMAP_SEARCH_DEBOUNCE", "300ms")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.GeoCoder.Provider != ProviderNominatim {
			t.Errorf("expected geocoder provider to be: %s, got %s", ProviderNominatim, conf.GeoCoder.Provider)
		}
		if !conf.Presets.StickyMode {
			t.Error("expected sticky mode to be enabled")
		}
		if conf.Search.Debounce != 300*time.Millisecond {
			t.Errorf("expected search debounce to be 300ms, got %s", conf.Search.Debounce)
		}
	})
	t.Run("new config with invalid values from env", func(t *testing.T) {
		t.Setenv("MTRMAP_LOGLEVEL", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate provider", func(t *testing.T) {
		t.Setenv("MTRMAP_GEOCODER_PROVIDER", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate zoom", func(t *testing.T) {
		t.Setenv("MTRMAP_PRESETS_ZOOM", "23")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
		t.Setenv("MTRMAP_PRESETS_ZOOM", "-1")
		_, err = New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate center", func(t *testing.T) {
		t.Setenv("MTRMAP_PRESETS_CENTER_LAT", "91")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate default marker", func(t *testing.T) {
		t.Setenv("MTRMAP_MARKER_DEFAULT_LNG", "181")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate search debounce", func(t *testing.T) {
		t.Setenv("MTRMAP_SEARCH_DEBOUNCE", "0s")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate rate limit", func(t *testing.T) {
		t.Setenv("MTRMAP_GEOCODER_RATE_LIMIT", "-1")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("all known providers are accepted", func(t *testing.T) {
		for _, provider := range providers {
			conf, err := New()
			if err != nil {
				t.Fatalf("failed to load config: %s", err)
			}
			conf.GeoCoder.Provider = provider
			if err = conf.Validate(); err != nil {
				t.Errorf("expected provider %s to be valid, got: %s", provider, err)
			}
		}
	})
	t.Run("unknown plugins are rejected", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		conf.Plugins = append(conf.Plugins, "minimap")
		if err = conf.Validate(); err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("burst is at least one", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		conf.GeoCoder.Burst = 0
		if err = conf.Validate(); err != nil {
			t.Fatalf("failed to validate config: %s", err)
		}
		if conf.GeoCoder.Burst != 1 {
			t.Errorf("expected burst to be 1, got %d", conf.GeoCoder.Burst)
		}
	})
	t.Run("empty locale falls back to the environment", func(t *testing.T) {
		t.Setenv("LC_MESSAGES", "de_DE.UTF-8")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		conf.Locale = ""
		if err = conf.Validate(); err != nil {
			t.Fatalf("failed to validate config: %s", err)
		}
		if conf.Locale != "de-DE" {
			t.Errorf("expected locale to be de-DE, got %s", conf.Locale)
		}
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != slog.LevelInfo {
			t.Errorf("expected log level to be: %s, got %s", slog.LevelInfo, conf.LogLevel)
		}
		if !conf.HasDefaultMarker() || conf.Marker.Default.Popup != "ونک" {
			t.Errorf("expected default marker to be set, got %+v", conf.Marker.Default)
		}
		if !conf.Marker.Draggable || !conf.Presets.ZoomControl {
			t.Error("expected draggable marker and zoom control")
		}
		if conf.Inputs.Region != "province" || conf.Inputs.Address != "address" {
			t.Errorf("unexpected inputs: %+v", conf.Inputs)
		}
		if conf.GeoCoder.CacheMissTTL != time.Minute {
			t.Errorf("expected cache miss TTL to be 1m, got %s", conf.GeoCoder.CacheMissTTL)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		_, err := NewFromFile("../../etc", "non-existent.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		_, err := NewFromFile("../../testdata", "invalid.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}
