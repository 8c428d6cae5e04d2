// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
)

const (
	OpReverse = "reverse"
	OpForward = "forward"

	ComponentAddress = "address"
	ComponentSearch  = "search"
)

// Metrics holds the collectors of the map widget. All methods are safe to call on a nil
// *Metrics, in which case nothing is recorded.
type Metrics struct {
	GeocodeRequests *prometheus.CounterVec
	GeocodeSeconds  *prometheus.HistogramVec
	CacheHits       *prometheus.CounterVec
	StaleResults    *prometheus.CounterVec
	Relocations     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mtrmap_geocode_requests_total",
			Help: "Total number of geocoding requests by provider, operation and API status.",
		}, []string{"provider", "op", "status"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mtrmap_geocode_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "op"}),
		CacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mtrmap_geocode_cache_hits_total",
			Help: "Total number of geocoding results served from the cache.",
		}, []string{"op"}),
		StaleResults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mtrmap_stale_results_discarded_total",
			Help: "Total number of geocoding results discarded because a newer request superseded them.",
		}, []string{"component"}),
		Relocations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mtrmap_marker_relocations_total",
			Help: "Total number of marker relocations.",
		}),
	}
}

// ObserveRequest records a finished geocoding request.
func (m *Metrics) ObserveRequest(provider, op string, status geocode.Status, cacheHit bool, took time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = geocode.StatusError
	}
	m.GeocodeRequests.WithLabelValues(provider, op, string(status)).Inc()
	m.GeocodeSeconds.WithLabelValues(provider, op).Observe(took.Seconds())
	if cacheHit {
		m.CacheHits.WithLabelValues(op).Inc()
	}
}

// ObserveStale records a result that was dropped by the given component.
func (m *Metrics) ObserveStale(component string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(component).Inc()
}

// ObserveRelocation records a marker relocation.
func (m *Metrics) ObserveRelocation() {
	if m == nil {
		return
	}
	m.Relocations.Inc()
}

// InstrumentedGeocoder records every request of the wrapped geocoder, labeled with the name of
// the provider behind it.
type InstrumentedGeocoder struct {
	coder    geocode.Client
	provider string
	metrics  *Metrics
}

func NewInstrumentedGeocoder(coder geocode.Client, provider string, metrics *Metrics) *InstrumentedGeocoder {
	return &InstrumentedGeocoder{coder: coder, provider: provider, metrics: metrics}
}

func (i *InstrumentedGeocoder) Name() string {
	return i.coder.Name()
}

func (i *InstrumentedGeocoder) Reverse(ctx context.Context, point geo.Point) (geocode.ReverseResult, error) {
	start := time.Now()
	result, err := i.coder.Reverse(ctx, point)
	i.metrics.ObserveRequest(i.provider, OpReverse, result.Status, result.CacheHit, time.Since(start))
	return result, err
}

func (i *InstrumentedGeocoder) Forward(ctx context.Context, text string) (geocode.ForwardResult, error) {
	start := time.Now()
	result, err := i.coder.Forward(ctx, text)
	i.metrics.ObserveRequest(i.provider, OpForward, result.Status, result.CacheHit, time.Since(start))
	return result, err
}
