// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package plugin provides the map controls that show the resolved address and the address
// search.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/i18n"
	"github.com/wneessen/mtrmap/internal/template"
)

const (
	NameFooter  = "footer"
	NameGeocode = "geocode"

	placeholderMsgID = "Search address"
)

// ErrNotBound is returned when the search box has no searcher.
var ErrNotBound = errors.New("search box is not bound to a searcher")

// AddressBox shows the resolved address in the bottom left corner of the map.
type AddressBox struct {
	tpl *template.Templates

	mu         sync.Mutex
	text       string
	record     address.Record
	resolvedAt time.Time
}

func NewAddressBox(tpl *template.Templates) *AddressBox {
	return &AddressBox{tpl: tpl}
}

func (b *AddressBox) Name() string {
	return NameFooter
}

func (b *AddressBox) Position() engine.Position {
	return engine.PositionBottomLeft
}

func (b *AddressBox) SetAddress(text string, record address.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.record = record
	b.resolvedAt = time.Now()
}

func (b *AddressBox) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Render writes the address box to w. Nothing is written before an address was resolved.
func (b *AddressBox) Render(w io.Writer) error {
	b.mu.Lock()
	data := template.AddressData{Text: b.text, Record: b.record, ResolvedAt: b.resolvedAt}
	b.mu.Unlock()
	if data.Text == "" {
		return nil
	}
	if err := b.tpl.RenderAddress(w, data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Searcher is the search operation the search box drives. *search.Controller satisfies it.
type Searcher interface {
	Input(ctx context.Context, text string)
	Select(ctx context.Context, index int) error
	HasResults() bool
}

// SearchBox is the address search input with its result panel in the top right corner of the
// map.
type SearchBox struct {
	tpl         *template.Templates
	placeholder string
	searcher    Searcher
	width       int

	mu        sync.Mutex
	input     string
	results   []geocode.SearchResult
	panelOpen bool
}

func NewSearchBox(tpl *template.Templates, loc i18n.Localizer, width int) *SearchBox {
	if loc == nil {
		loc = i18n.Nop{}
	}
	return &SearchBox{
		tpl:         tpl,
		placeholder: loc.Get(placeholderMsgID),
		width:       width,
	}
}

// Bind connects the search box to the searcher that handles its input.
func (s *SearchBox) Bind(searcher Searcher) {
	s.searcher = searcher
}

func (s *SearchBox) Name() string {
	return NameGeocode
}

func (s *SearchBox) Position() engine.Position {
	return engine.PositionTopRight
}

// Type replaces the input text and hands it to the searcher.
func (s *SearchBox) Type(ctx context.Context, text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	if s.searcher != nil {
		s.searcher.Input(ctx, text)
	}
}

// Choose selects the result with the given index.
func (s *SearchBox) Choose(ctx context.Context, index int) error {
	if s.searcher == nil {
		return ErrNotBound
	}
	return s.searcher.Select(ctx, index)
}

// Focus opens the result panel if there are results to show.
func (s *SearchBox) Focus() {
	open := s.searcher != nil && s.searcher.HasResults()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = open
}

// Blur closes the result panel.
func (s *SearchBox) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = false
}

func (s *SearchBox) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

func (s *SearchBox) ShowResults(results []geocode.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.panelOpen = true
}

func (s *SearchBox) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.panelOpen = false
}

func (s *SearchBox) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *SearchBox) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// Render writes the input line and, if the panel is open, one line per result. Lines are cut
// to the width of the box.
func (s *SearchBox) Render(w io.Writer) error {
	s.mu.Lock()
	input := s.input
	results := slices.Clone(s.results)
	open := s.panelOpen
	s.mu.Unlock()

	if input == "" {
		input = s.placeholder
	}
	if _, err := fmt.Fprintf(w, "[%s]\n", runewidth.FillRight(s.fit(input), s.width)); err != nil {
		return err
	}
	if !open {
		return nil
	}
	for i, result := range results {
		var line strings.Builder
		if err := s.tpl.RenderResult(&line, template.ResultData{Index: i, Result: result}); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, " %s\n", s.fit(line.String())); err != nil {
			return err
		}
	}
	return nil
}

func (s *SearchBox) fit(text string) string {
	if s.width <= 0 {
		return text
	}
	return runewidth.Truncate(text, s.width, "…")
}
