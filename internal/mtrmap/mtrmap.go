// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package mtrmap wires the map engine, the marker, the address resolver and the address search
// into one map widget.
package mtrmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/config"
	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/form"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	geocodeearth "github.com/wneessen/mtrmap/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/mtrmap/internal/geocode/provider/google"
	"github.com/wneessen/mtrmap/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/mtrmap/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/mtrmap/internal/geocode/provider/parsimap"
	"github.com/wneessen/mtrmap/internal/http"
	"github.com/wneessen/mtrmap/internal/i18n"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/marker"
	"github.com/wneessen/mtrmap/internal/metrics"
	"github.com/wneessen/mtrmap/internal/plugin"
	"github.com/wneessen/mtrmap/internal/search"
	"github.com/wneessen/mtrmap/internal/template"
)

// searchBoxWidth is the width in cells of the rendered search input.
const searchBoxWidth = 40

var (
	ErrNoEngine     = errors.New("no map engine configured")
	ErrNoGeocoder   = errors.New("no geocoder configured")
	ErrNoTemplates  = errors.New("plugins require templates")
	ErrInvalidPoint = errors.New("invalid point")
	ErrMissingToken = errors.New("geocoder provider requires an API key")
)

// Options configures a Map. Engine and Geocoder are required.
type Options struct {
	Engine    engine.Engine
	Geocoder  geocode.Client
	Logger    *logger.Logger
	Localizer i18n.Localizer
	Metrics   *metrics.Metrics

	Center      geo.Point
	Zoom        int
	ZoomControl bool
	Sticky      bool
	Animate     bool
	Draggable   bool
	IconURL     string
	// DefaultMarker is placed once the map is initialized.
	DefaultMarker *geo.Point

	Bindings form.Bindings
	Document form.Document

	Plugins   []string
	Templates *template.Templates
	Debounce  time.Duration
	// Clock drives the search debounce. Nil uses the real clock.
	Clock clockwork.Clock

	OnAddressChanged func(address.Event)
	OnMapReady       func(engine.Engine)
	OnSearchResults  func(geocode.ForwardResult)
}

// Map is an initialized map widget.
type Map struct {
	engine   engine.Engine
	coder    geocode.Client
	log      *logger.Logger
	loc      i18n.Localizer
	marker   *marker.Controller
	resolver *address.Resolver
	search   *search.Controller
	footer   *plugin.AddressBox
	box      *plugin.SearchBox
}

// New initializes the map widget. Configuration errors are returned before any event handler
// is registered.
func New(ctx context.Context, opts Options) (*Map, error) {
	if opts.Engine == nil {
		return nil, ErrNoEngine
	}
	if opts.Geocoder == nil {
		return nil, ErrNoGeocoder
	}
	if !opts.Center.Valid() {
		return nil, fmt.Errorf("%w: map center %s", ErrInvalidPoint, opts.Center)
	}
	if opts.DefaultMarker != nil && !opts.DefaultMarker.Valid() {
		return nil, fmt.Errorf("%w: default marker %s", ErrInvalidPoint, opts.DefaultMarker)
	}
	if len(opts.Plugins) > 0 && opts.Templates == nil {
		return nil, ErrNoTemplates
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Localizer == nil {
		opts.Localizer = i18n.Nop{}
	}

	m := &Map{
		engine: opts.Engine,
		coder:  opts.Geocoder,
		log:    opts.Logger,
		loc:    opts.Localizer,
	}

	if slices.Contains(opts.Plugins, plugin.NameFooter) {
		m.footer = plugin.NewAddressBox(opts.Templates)
	}
	resolverOpts := address.Options{
		OnChange:  opts.OnAddressChanged,
		Localizer: opts.Localizer,
		Metrics:   opts.Metrics,
	}
	if writer := form.NewWriter(opts.Bindings, opts.Document, opts.Logger); writer.Bound() {
		resolverOpts.Writer = writer
	}
	if m.footer != nil {
		resolverOpts.Display = m.footer
	}
	m.resolver = address.New(opts.Geocoder, opts.Logger, resolverOpts)

	m.marker = marker.New(opts.Engine, m.resolver, opts.Logger, marker.Options{
		Center:    opts.Center,
		Draggable: opts.Draggable,
		Sticky:    opts.Sticky,
		Animate:   opts.Animate,
		IconURL:   opts.IconURL,
		Metrics:   opts.Metrics,
	})

	searchOpts := search.Options{
		Debounce:  opts.Debounce,
		Clock:     opts.Clock,
		OnResults: opts.OnSearchResults,
		Metrics:   opts.Metrics,
	}
	if slices.Contains(opts.Plugins, plugin.NameGeocode) {
		m.box = plugin.NewSearchBox(opts.Templates, opts.Localizer, searchBoxWidth)
		searchOpts.View = m.box
	}
	m.search = search.New(opts.Geocoder, m.marker, opts.Logger, searchOpts)

	opts.Engine.SetView(opts.Center, opts.Zoom)
	opts.Engine.SetZoomControl(opts.ZoomControl)
	m.marker.Bind(ctx)
	if m.footer != nil {
		opts.Engine.AddControl(m.footer, m.footer.Position())
	}
	if m.box != nil {
		m.box.Bind(m.search)
		opts.Engine.AddControl(m.box, m.box.Position())
	}

	if opts.DefaultMarker != nil {
		m.marker.Relocate(ctx, opts.DefaultMarker)
	}
	m.log.Debug("map initialized", slog.String("center", opts.Center.String()),
		slog.Int("zoom", opts.Zoom), slog.String("geocoder", opts.Geocoder.Name()),
		slog.Any("plugins", opts.Plugins))
	if opts.OnMapReady != nil {
		opts.OnMapReady(opts.Engine)
	}
	return m, nil
}

// AddMarker moves the marker to point and resolves its address. A nil point is ignored.
func (m *Map) AddMarker(ctx context.Context, point *geo.Point) {
	m.marker.Relocate(ctx, point)
}

// Marker returns the current marker position.
func (m *Map) Marker() (geo.Point, bool) {
	return m.marker.Current()
}

// Address returns the last resolved address record.
func (m *Map) Address() (address.Record, bool) {
	return m.resolver.Last()
}

// AddressString returns the last composed address string.
func (m *Map) AddressString() string {
	return m.resolver.DisplayString()
}

// AddressBy reverse geocodes point without touching the marker, the display or the form.
func (m *Map) AddressBy(ctx context.Context, point geo.Point) (address.Record, error) {
	if !point.Valid() {
		return address.Record{}, fmt.Errorf("%w: %s", ErrInvalidPoint, point)
	}
	result, err := m.coder.Reverse(ctx, point)
	if err != nil {
		return address.Record{}, fmt.Errorf("failed to reverse geocode %s: %w", point, err)
	}
	if !result.Status.OK() {
		return address.Record{}, fmt.Errorf("failed to reverse geocode %s: %s", point, result.Status)
	}
	return address.NewRecord(result, point), nil
}

// LatLngBy forward geocodes text without touching the search box.
func (m *Map) LatLngBy(ctx context.Context, text string) ([]geocode.SearchResult, error) {
	result, err := m.coder.Forward(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", text, err)
	}
	if !result.Status.OK() {
		return nil, fmt.Errorf("failed to geocode %q: %s", text, result.Status)
	}
	return result.Results, nil
}

// Search returns the search controller of the map.
func (m *Map) Search() *search.Controller {
	return m.search
}

// Footer returns the address box, or nil if the footer plugin is disabled.
func (m *Map) Footer() *plugin.AddressBox {
	return m.footer
}

// SearchBox returns the search box, or nil if the geocode plugin is disabled.
func (m *Map) SearchBox() *plugin.SearchBox {
	return m.box
}

// ErrorMessage returns the localized message for a geocoder status. Unknown statuses yield an
// empty string.
func (m *Map) ErrorMessage(status geocode.Status) string {
	return status.Message(m.loc)
}

// Close stops pending searches and waits for running address resolutions.
func (m *Map) Close() {
	m.search.Close()
	m.marker.Wait()
}

// FromConfig translates the configuration into map options. Engine, Geocoder and the other
// collaborators are left for the caller to set.
func FromConfig(conf *config.Config) Options {
	opts := Options{
		Center:      geo.NewPoint(conf.Presets.Center.Lat, conf.Presets.Center.Lng),
		Zoom:        conf.Presets.Zoom,
		ZoomControl: conf.Presets.ZoomControl,
		Sticky:      conf.Presets.StickyMode,
		Animate:     !conf.Presets.DisableFlyMode,
		Draggable:   conf.Marker.Draggable,
		IconURL:     conf.IconURL,
		Plugins:     slices.Clone(conf.Plugins),
		Debounce:    conf.Search.Debounce,
	}
	if conf.HasDefaultMarker() {
		point := geo.NewPoint(conf.Marker.Default.Lat, conf.Marker.Default.Lng).
			WithLabel(conf.Marker.Default.Popup)
		opts.DefaultMarker = &point
	}

	inputs := map[form.Role]string{
		form.RoleRegion:   conf.Inputs.Region,
		form.RoleCounty:   conf.Inputs.County,
		form.RoleDistrict: conf.Inputs.District,
		form.RoleCity:     conf.Inputs.City,
		form.RoleVillage:  conf.Inputs.Village,
		form.RoleFreeText: conf.Inputs.Address,
	}
	for role, id := range inputs {
		if id == "" {
			continue
		}
		if opts.Bindings == nil {
			opts.Bindings = make(form.Bindings)
		}
		opts.Bindings[role] = form.Target{ID: id}
	}
	return opts
}

// SelectGeocoder returns the configured geocoding provider wrapped with rate limiting, caching
// and metrics.
func SelectGeocoder(conf *config.Config, client *http.Client, log *logger.Logger, m *metrics.Metrics) (geocode.Client, error) {
	lang := language.Make(conf.Locale)

	var provider geocode.Client
	switch conf.GeoCoder.Provider {
	case config.ProviderNominatim:
		provider = nominatim.New(client, lang)
	case config.ProviderGoogle:
		key := conf.Tokens.MapKey
		if key == "" {
			key = conf.Tokens.APIKey
		}
		if key == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingToken, conf.GeoCoder.Provider)
		}
		maps, err := google.NewClient(key)
		if err != nil {
			return nil, err
		}
		provider = google.New(maps, lang, log)
	case config.ProviderOpenCage:
		if conf.Tokens.APIKey == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingToken, conf.GeoCoder.Provider)
		}
		provider = opencage.New(client, lang, conf.Tokens.APIKey)
	case config.ProviderGeocodeEarth:
		if conf.Tokens.APIKey == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingToken, conf.GeoCoder.Provider)
		}
		provider = geocodeearth.New(client, lang, conf.Tokens.APIKey)
	default:
		if conf.Tokens.APIKey == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingToken, config.ProviderParsimap)
		}
		provider = parsimap.New(client, conf.Tokens.APIKey)
	}

	limited := geocode.NewRateLimitedGeocoder(provider, conf.GeoCoder.RateLimit, conf.GeoCoder.Burst)
	cached := geocode.NewCachedGeocoder(limited, conf.GeoCoder.CacheTTL, conf.GeoCoder.CacheMissTTL)
	log.Debug("geocoder selected", slog.String("provider", provider.Name()),
		slog.Float64("rate_limit", conf.GeoCoder.RateLimit),
		slog.Duration("cache_ttl", conf.GeoCoder.CacheTTL))
	return metrics.NewInstrumentedGeocoder(cached, provider.Name(), m), nil
}
