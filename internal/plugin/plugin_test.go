// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package plugin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/config"
	"github.com/wneessen/mtrmap/internal/engine"
	"github.com/wneessen/mtrmap/internal/geo"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/template"
)

type testLocalizer map[string]string

func (l testLocalizer) Get(id localize.Singular) string {
	if msg, ok := l[id]; ok {
		return msg
	}
	return id
}

type fakeSearcher struct {
	inputs   []string
	selected []int
	results  bool
}

func (f *fakeSearcher) Input(_ context.Context, text string) { f.inputs = append(f.inputs, text) }

func (f *fakeSearcher) Select(_ context.Context, index int) error {
	f.selected = append(f.selected, index)
	return nil
}

func (f *fakeSearcher) HasResults() bool { return f.results }

var vanakRecord = address.Record{
	FreeText: "ونک",
	Subdivisions: []address.Subdivision{
		{Level: geocode.LevelRegion, Title: "استان تهران"},
		{Level: geocode.LevelCity, Title: "شهر تهران"},
	},
	Status: geocode.StatusOK,
	Point:  geo.NewPoint(35.7575, 51.4098),
}

var vanakResults = []geocode.SearchResult{
	{Description: "میدان ونک", Center: geo.NewPoint(35.7575, 51.4098)},
	{Description: "Vanak Square, District 3, Tehran, Tehran Province, Iran", Center: geo.NewPoint(35.76, 51.41)},
}

func TestAddressBox(t *testing.T) {
	box := NewAddressBox(testTemplates(t))
	if box.Name() != NameFooter || box.Position() != engine.PositionBottomLeft {
		t.Errorf("unexpected control placement: %s at %s", box.Name(), box.Position())
	}

	buf := bytes.NewBuffer(nil)
	if err := box.Render(buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty box to render nothing, got %q", buf.String())
	}

	box.SetAddress("استان تهران، شهر تهران، ونک", vanakRecord)
	if err := box.Render(buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "استان تهران، شهر تهران، ونک\n" {
		t.Errorf("unexpected rendered box: %q", buf.String())
	}
	if box.Text() != "استان تهران، شهر تهران، ونک" {
		t.Errorf("unexpected text: %q", box.Text())
	}
}

func TestAddressBox_Record(t *testing.T) {
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to create config: %s", err)
	}
	conf.Templates.Address = `{{ .Record.FreeText }}{{ range .Record.Subdivisions }} | {{ .Title }}{{ end }}`
	tpl, err := template.New(conf, nil)
	if err != nil {
		t.Fatalf("failed to create templates: %s", err)
	}

	box := NewAddressBox(tpl)
	box.SetAddress("استان تهران، شهر تهران، ونک", vanakRecord)
	buf := bytes.NewBuffer(nil)
	if err = box.Render(buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ونک | استان تهران | شهر تهران\n" {
		t.Errorf("unexpected rendered box: %q", buf.String())
	}
}

func TestSearchBox(t *testing.T) {
	t.Run("placeholder is localized", func(t *testing.T) {
		box := NewSearchBox(testTemplates(t), testLocalizer{"Search address": "جستجوی آدرس"}, 0)
		buf := bytes.NewBuffer(nil)
		if err := box.Render(buf); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "[جستجوی آدرس]\n" {
			t.Errorf("unexpected rendered box: %q", buf.String())
		}
		if box.Name() != NameGeocode || box.Position() != engine.PositionTopRight {
			t.Errorf("unexpected control placement: %s at %s", box.Name(), box.Position())
		}
	})
	t.Run("typing is handed to the searcher", func(t *testing.T) {
		searcher := &fakeSearcher{}
		box := NewSearchBox(testTemplates(t), nil, 20)
		box.Bind(searcher)
		box.Type(t.Context(), "vanak")
		if box.Input() != "vanak" || len(searcher.inputs) != 1 || searcher.inputs[0] != "vanak" {
			t.Errorf("expected input to be handed over, got %v", searcher.inputs)
		}
		if err := box.Choose(t.Context(), 1); err != nil {
			t.Fatal(err)
		}
		if len(searcher.selected) != 1 || searcher.selected[0] != 1 {
			t.Errorf("expected selection to be handed over, got %v", searcher.selected)
		}
	})
	t.Run("choosing without a searcher fails", func(t *testing.T) {
		box := NewSearchBox(testTemplates(t), nil, 20)
		if err := box.Choose(t.Context(), 0); !errors.Is(err, ErrNotBound) {
			t.Errorf("expected ErrNotBound, got %v", err)
		}
	})
	t.Run("results are rendered while the panel is open", func(t *testing.T) {
		box := NewSearchBox(testTemplates(t), nil, 20)
		box.SetInput("ونک")
		box.ShowResults(vanakResults)
		if !box.PanelOpen() {
			t.Fatal("expected panel to open with results")
		}
		buf := bytes.NewBuffer(nil)
		if err := box.Render(buf); err != nil {
			t.Fatal(err)
		}
		expect := "[ونک                 ]\n 0) میدان ونک\n 1) Vanak Square, Di…\n"
		if buf.String() != expect {
			t.Errorf("expected %q, got %q", expect, buf.String())
		}

		box.ClearResults()
		buf.Reset()
		if err := box.Render(buf); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "[ونک                 ]\n" {
			t.Errorf("expected results to be hidden, got %q", buf.String())
		}
	})
	t.Run("focus reveals the panel only with results", func(t *testing.T) {
		searcher := &fakeSearcher{}
		box := NewSearchBox(testTemplates(t), nil, 20)
		box.Bind(searcher)
		box.Focus()
		if box.PanelOpen() {
			t.Error("expected panel to stay closed without results")
		}
		searcher.results = true
		box.Focus()
		if !box.PanelOpen() {
			t.Error("expected panel to open with results")
		}
		box.Blur()
		if box.PanelOpen() {
			t.Error("expected panel to close on blur")
		}
	})
}

func testTemplates(t *testing.T) *template.Templates {
	t.Helper()
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to create config: %s", err)
	}
	tpl, err := template.New(conf, nil)
	if err != nil {
		t.Fatalf("failed to create templates: %s", err)
	}
	return tpl
}
