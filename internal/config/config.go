// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv            = "MTRMAP"
	DefaultAddressTpl    = "{{.Text}}"
	DefaultResultTpl     = "{{.Index}}) {{.Result.Description}}"
	ProviderParsimap     = "parsimap"
	ProviderNominatim    = "nominatim"
	ProviderGoogle       = "google"
	ProviderOpenCage     = "opencage"
	ProviderGeocodeEarth = "geocode-earth"
	PluginFooter         = "footer"
	PluginGeocode        = "geocode"
	maxZoom              = 22
)

var (
	providers = []string{ProviderParsimap, ProviderNominatim, ProviderGoogle, ProviderOpenCage, ProviderGeocodeEarth}
	plugins   = []string{PluginFooter, PluginGeocode}
)

// Config represents the application's configuration structure.
type Config struct {
	Element  string     `fig:"element" default:"map"`
	Locale   string     `fig:"locale" default:"fa"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	IconURL  string     `fig:"icon_url"`
	// Allowed values: footer, geocode
	Plugins []string `fig:"plugins" default:"[footer,geocode]"`

	Presets struct {
		Center struct {
			Lat float64 `fig:"lat" default:"35.65"`
			Lng float64 `fig:"lng" default:"51.4"`
		} `fig:"center"`
		Zoom           int  `fig:"zoom" default:"13"`
		ZoomControl    bool `fig:"zoom_control"`
		StickyMode     bool `fig:"sticky_mode"`
		DisableFlyMode bool `fig:"disable_fly_mode"`
	} `fig:"presets"`

	Marker struct {
		Default struct {
			Lat   float64 `fig:"lat"`
			Lng   float64 `fig:"lng"`
			Popup string  `fig:"popup"`
		} `fig:"default"`
		Draggable bool `fig:"draggable"`
	} `fig:"marker"`

	// Inputs holds the ids of the form fields that receive the parts of the address.
	Inputs struct {
		Region   string `fig:"region"`
		County   string `fig:"county"`
		District string `fig:"district"`
		City     string `fig:"city"`
		Village  string `fig:"village"`
		Address  string `fig:"address"`
	} `fig:"inputs"`

	Tokens struct {
		APIKey string `fig:"api_key"`
		MapKey string `fig:"map_key"`
	} `fig:"tokens"`

	GeoCoder struct {
		// Allowed values: parsimap, nominatim, google, opencage, geocode-earth
		Provider string `fig:"provider" default:"parsimap"`
		// Requests per second, 0 disables rate limiting
		RateLimit    float64       `fig:"rate_limit" default:"5"`
		Burst        int           `fig:"burst" default:"1"`
		CacheTTL     time.Duration `fig:"cache_ttl" default:"10m"`
		CacheMissTTL time.Duration `fig:"cache_miss_ttl" default:"1m"`
	} `fig:"geocoder"`

	Search struct {
		Debounce time.Duration `fig:"debounce" default:"700ms"`
	} `fig:"search"`

	Templates struct {
		Address string `fig:"address"`
		Result  string `fig:"result"`
	} `fig:"templates"`

	Metrics struct {
		// Address to serve /metrics on, empty disables the endpoint
		Listen string `fig:"listen"`
	} `fig:"metrics"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if !slices.Contains(providers, c.GeoCoder.Provider) {
		return fmt.Errorf("invalid geocoder provider: %s", c.GeoCoder.Provider)
	}
	for _, plugin := range c.Plugins {
		if !slices.Contains(plugins, plugin) {
			return fmt.Errorf("invalid plugin: %s", plugin)
		}
	}
	if c.Presets.Center.Lat < -90 || c.Presets.Center.Lat > 90 ||
		c.Presets.Center.Lng < -180 || c.Presets.Center.Lng > 180 {
		return fmt.Errorf("invalid map center: %f,%f", c.Presets.Center.Lat, c.Presets.Center.Lng)
	}
	if c.Presets.Zoom < 0 || c.Presets.Zoom > maxZoom {
		return fmt.Errorf("invalid zoom level: %d", c.Presets.Zoom)
	}
	if c.HasDefaultMarker() && (c.Marker.Default.Lat < -90 || c.Marker.Default.Lat > 90 ||
		c.Marker.Default.Lng < -180 || c.Marker.Default.Lng > 180) {
		return fmt.Errorf("invalid default marker: %f,%f", c.Marker.Default.Lat, c.Marker.Default.Lng)
	}
	if c.Search.Debounce <= 0 {
		return fmt.Errorf("invalid search debounce interval: %s", c.Search.Debounce)
	}
	if c.GeoCoder.RateLimit < 0 {
		return fmt.Errorf("invalid geocoder rate limit: %f", c.GeoCoder.RateLimit)
	}
	if c.GeoCoder.Burst < 1 {
		c.GeoCoder.Burst = 1
	}
	if c.Templates.Address == "" {
		c.Templates.Address = DefaultAddressTpl
	}
	if c.Templates.Result == "" {
		c.Templates.Result = DefaultResultTpl
	}

	return nil
}

// HasDefaultMarker reports whether a default marker position is configured.
func (c *Config) HasDefaultMarker() bool {
	return c.Marker.Default.Lat != 0 || c.Marker.Default.Lng != 0
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
