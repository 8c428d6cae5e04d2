// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package form

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wneessen/mtrmap/internal/geocode"
	"github.com/wneessen/mtrmap/internal/logger"
)

// Role is the part of an address that a form field receives.
type Role string

const (
	RoleRegion   Role = "region"
	RoleCounty   Role = "county"
	RoleCity     Role = "city"
	RoleDistrict Role = "district"
	RoleVillage  Role = "village"
	RoleFreeText Role = "freeText"
)

// Roles holds all roles in the order they are written.
var Roles = []Role{RoleRegion, RoleCounty, RoleCity, RoleDistrict, RoleVillage, RoleFreeText}

// ErrUnresolvable is returned when a target cannot be resolved to a field.
var ErrUnresolvable = errors.New("form field cannot be resolved")

// RoleForLevel returns the role that receives the given subdivision level.
func RoleForLevel(level geocode.Level) Role {
	return Role(level)
}

// Field is a single form input.
type Field interface {
	SetValue(value string)
}

// Document looks up form fields by id.
type Document interface {
	Field(id string) (Field, bool)
}

// Target is either a direct Field or the id of a field that is looked up at write time.
type Target struct {
	Field Field
	ID    string
}

// Bindings assigns form field targets to roles.
type Bindings map[Role]Target

// Writer writes address values into bound form fields.
type Writer struct {
	bindings Bindings
	doc      Document
	log      *logger.Logger
}

// NewWriter returns a Writer for the given bindings. The bindings are copied, later changes by
// the caller have no effect.
func NewWriter(bindings Bindings, doc Document, log *logger.Logger) *Writer {
	copied := make(Bindings, len(bindings))
	for role, target := range bindings {
		copied[role] = target
	}
	return &Writer{bindings: copied, doc: doc, log: log}
}

// Write sets the value of every bound role. Roles missing in values are cleared. A field that
// cannot be resolved is logged and skipped, the remaining fields are still written.
func (w *Writer) Write(values map[Role]string) {
	for _, role := range Roles {
		target, ok := w.bindings[role]
		if !ok {
			continue
		}
		field, err := w.resolve(target)
		if err != nil {
			w.log.Error("failed to write form field", slog.String("role", string(role)), logger.Err(err))
			continue
		}
		field.SetValue(values[role])
	}
}

// Bound reports whether any role has a target.
func (w *Writer) Bound() bool {
	return len(w.bindings) > 0
}

func (w *Writer) resolve(target Target) (Field, error) {
	if target.Field != nil {
		return target.Field, nil
	}
	if target.ID == "" || w.doc == nil {
		return nil, ErrUnresolvable
	}
	field, ok := w.doc.Field(target.ID)
	if !ok || field == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvable, target.ID)
	}
	return field, nil
}

// Input is an in-memory form field.
type Input struct {
	mu    sync.Mutex
	value string
	sets  int
}

func (i *Input) SetValue(value string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.value = value
	i.sets++
}

func (i *Input) Value() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.value
}

// Writes returns how often the value has been set.
func (i *Input) Writes() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sets
}

// MemoryDocument is an in-memory Document holding the fields it was created with.
type MemoryDocument struct {
	mu     sync.Mutex
	fields map[string]*Input
}

func NewMemoryDocument(ids ...string) *MemoryDocument {
	doc := &MemoryDocument{fields: make(map[string]*Input)}
	for _, id := range ids {
		doc.fields[id] = &Input{}
	}
	return doc
}

func (d *MemoryDocument) Field(id string) (Field, bool) {
	input, ok := d.Input(id)
	if !ok {
		return nil, false
	}
	return input, true
}

// Input returns the in-memory field with the given id.
func (d *MemoryDocument) Input(id string) (*Input, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	input, ok := d.fields[id]
	return input, ok
}

// Values returns a snapshot of all field values.
func (d *MemoryDocument) Values() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	values := make(map[string]string, len(d.fields))
	for id, input := range d.fields {
		values[id] = input.Value()
	}
	return values
}
