// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package template

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak/localize"
	"golang.org/x/text/language"

	"github.com/wneessen/mtrmap/internal/address"
	"github.com/wneessen/mtrmap/internal/config"
	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/i18n"
)

const ellipsis = "…"

// AddressData is the data the address template is executed with.
type AddressData struct {
	Text       string
	Record     address.Record
	ResolvedAt time.Time
}

// ResultData is the data the search result template is executed with.
type ResultData struct {
	Index  int
	Result geocode.SearchResult
}

type Templates struct {
	Address   *template.Template
	Result    *template.Template
	localizer i18n.Localizer
	humanizer *humanize.Humanizer
}

var i18nVars = map[string]localize.MsgID{
	"region":   "Province",
	"county":   "County",
	"district": "District",
	"city":     "City",
	"village":  "Village",
	"search":   "Search address",
}

func New(conf *config.Config, loc i18n.Localizer) (*Templates, error) {
	if loc == nil {
		loc = i18n.Nop{}
	}
	tpls := &Templates{
		localizer: loc,
		humanizer: humanize.MustNew().CreateHumanizer(language.Make(conf.Locale)),
	}

	tpl, err := template.New("address").Funcs(tpls.templateFuncMap()).Parse(conf.Templates.Address)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse address template: %w", err)
	}
	tpls.Address = tpl

	tpl, err = template.New("result").Funcs(tpls.templateFuncMap()).Parse(conf.Templates.Result)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse result template: %w", err)
	}
	tpls.Result = tpl

	return tpls, nil
}

func (t *Templates) RenderAddress(w io.Writer, data AddressData) error {
	if err := t.Address.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render address template: %w", err)
	}
	return nil
}

func (t *Templates) RenderResult(w io.Writer, data ResultData) error {
	if err := t.Result.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render result template: %w", err)
	}
	return nil
}

func (t *Templates) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    timeFormat,
		"localizedTime": t.localizedTime,
		"floatFormat":   floatFormat,
		"loc":           t.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
		"pad":           pad,
		"trunc":         trunc,
	}
}

func (t *Templates) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return t.localizer.Get(raw)
	}
	return val
}

func (t *Templates) localizedTime(val time.Time) string {
	return t.humanizer.FormatTime(val, humanize.TimeFormat)
}

func timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

// pad fills val with spaces up to the given display width.
func pad(width int, val string) string {
	return runewidth.FillRight(val, width)
}

// trunc shortens val to the given display width.
func trunc(width int, val string) string {
	return runewidth.Truncate(val, width, ellipsis)
}
