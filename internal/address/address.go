// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wneessen/mtrmap/internal/form"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/i18n"
	"github.com/wneessen/mtrmap/internal/logger"
	"github.com/wneessen/mtrmap/internal/metrics"
)

const separatorMsgID = ", "

var (
	// ErrResolveFailed is returned when a point could not be resolved into an address.
	ErrResolveFailed = errors.New("failed to resolve address")

	// ErrStale is returned when a resolution finished after a newer one was started. Its result
	// has been discarded.
	ErrStale = errors.New("address resolution superseded by a newer one")
)

// Subdivision is a single administrative level of an address.
type Subdivision struct {
	Level geocode.Level `json:"level"`
	Title string        `json:"title"`
	Code  string        `json:"code,omitempty"`
	ID    int64         `json:"id,omitempty"`
	Type  string        `json:"type,omitempty"`
}

// Record is a normalized reverse geocoded address. Subdivisions are ordered coarsest first.
type Record struct {
	FreeText     string         `json:"address"`
	Subdivisions []Subdivision  `json:"subdivisions"`
	Status       geocode.Status `json:"status"`
	Point        geo.Point      `json:"point"`
}

// Subdivision returns the subdivision of the given level.
func (r Record) Subdivision(level geocode.Level) (Subdivision, bool) {
	for _, sub := range r.Subdivisions {
		if sub.Level == level {
			return sub, true
		}
	}
	return Subdivision{}, false
}

// Event is delivered to the host whenever a resolution finished. Record is nil if the
// resolution failed.
type Event struct {
	Status geocode.Status
	Record *Record
	// Text is the composed display string of Record.
	Text    string
	Message string
	Err     error
}

// Display shows the composed address string. The record is passed along for displays that
// render the address themselves.
type Display interface {
	SetAddress(text string, record Record)
}

type Options struct {
	Display   Display
	Writer    *form.Writer
	OnChange  func(Event)
	Localizer i18n.Localizer
	Metrics   *metrics.Metrics
}

// Resolver turns points into addresses and distributes them to the display, the form fields
// and the host callback.
type Resolver struct {
	coder    geocode.Client
	display  Display
	writer   *form.Writer
	onChange func(Event)
	loc      i18n.Localizer
	metrics  *metrics.Metrics
	log      *logger.Logger

	seq atomic.Uint64

	// mu is held while a result is applied, so observers never see a partially written
	// set of fields.
	mu         sync.Mutex
	last       *Record
	lastString string
}

func New(coder geocode.Client, log *logger.Logger, opts Options) *Resolver {
	loc := opts.Localizer
	if loc == nil {
		loc = i18n.Nop{}
	}
	return &Resolver{
		coder:    coder,
		display:  opts.Display,
		writer:   opts.Writer,
		onChange: opts.OnChange,
		loc:      loc,
		metrics:  opts.Metrics,
		log:      log,
	}
}

// ResolveFrom reverse geocodes the point and applies the resulting address. Failures leave the
// display and form fields untouched and are reported to the host with a nil record.
func (r *Resolver) ResolveFrom(ctx context.Context, point geo.Point) (Record, error) {
	seq := r.seq.Add(1)
	result, err := r.coder.Reverse(ctx, point)

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.seq.Load() {
		r.log.Debug("discarding stale address resolution", slog.String("point", point.String()),
			slog.Uint64("seq", seq))
		r.metrics.ObserveStale(metrics.ComponentAddress)
		return Record{}, ErrStale
	}

	if err != nil || !result.Status.OK() {
		status := result.Status
		if status == "" {
			status = geocode.StatusError
		}
		cause := err
		if cause == nil {
			cause = fmt.Errorf("geocoder returned status %s", status)
		}
		r.log.Warn("failed to resolve address", slog.String("point", point.String()),
			slog.String("status", string(status)), logger.Err(cause))
		r.notify(Event{Status: status, Message: status.Message(r.loc), Err: cause})
		return Record{}, fmt.Errorf("%w: %w", ErrResolveFailed, cause)
	}

	record := NewRecord(result, point)
	text := r.compose(record)
	if r.display != nil {
		r.display.SetAddress(text, record)
	}
	if r.writer != nil {
		r.writer.Write(fieldValues(record))
	}
	r.last = &record
	r.lastString = text

	eventRecord := record
	r.notify(Event{
		Status:  record.Status,
		Record:  &eventRecord,
		Text:    text,
		Message: record.Status.Message(r.loc),
	})
	return record, nil
}

// Last returns the last successfully resolved record.
func (r *Resolver) Last() (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Record{}, false
	}
	return *r.last, true
}

// DisplayString returns the last composed address string.
func (r *Resolver) DisplayString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastString
}

func (r *Resolver) compose(record Record) string {
	sep := r.loc.Get(separatorMsgID)
	var sb strings.Builder
	for _, sub := range record.Subdivisions {
		sb.WriteString(r.loc.Get(sub.Level.Label()))
		sb.WriteString(" ")
		sb.WriteString(sub.Title)
		sb.WriteString(sep)
	}
	sb.WriteString(record.FreeText)
	return sb.String()
}

func (r *Resolver) notify(event Event) {
	if r.onChange != nil {
		r.onChange(event)
	}
}

// NewRecord normalizes a reverse geocoding result into a Record. Subdivisions are ordered from
// the coarsest to the finest level, absent levels are skipped.
func NewRecord(result geocode.ReverseResult, point geo.Point) Record {
	record := Record{
		FreeText:     result.Address,
		Status:       result.Status,
		Point:        point,
		Subdivisions: make([]Subdivision, 0, len(result.Subdivisions)),
	}
	for _, level := range geocode.Levels {
		sub, ok := result.Subdivisions[level]
		if !ok {
			continue
		}
		record.Subdivisions = append(record.Subdivisions, Subdivision{
			Level: level,
			Title: sub.Title,
			Code:  sub.Code,
			ID:    sub.ID,
			Type:  sub.Type,
		})
	}
	return record
}

func fieldValues(record Record) map[form.Role]string {
	values := map[form.Role]string{form.RoleFreeText: record.FreeText}
	for _, sub := range record.Subdivisions {
		values[form.RoleForLevel(sub.Level)] = sub.Title
	}
	return values
}
