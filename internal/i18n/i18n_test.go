// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import "testing"

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("persian locale translates subdivision labels", func(t *testing.T) {
		provider, err := New("fa")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("Province"); got != "استان" {
			t.Errorf("expected translated label, got %q", got)
		}
	})
	t.Run("english locale returns the message id", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("Province"); got != "Province" {
			t.Errorf("expected untranslated label, got %q", got)
		}
	})
}

func TestNop(t *testing.T) {
	var loc Localizer = Nop{}
	if got := loc.Get("City"); got != "City" {
		t.Errorf("expected message id to be returned, got %q", got)
	}
}
