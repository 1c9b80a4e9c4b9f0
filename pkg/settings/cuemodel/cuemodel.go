// SPDX-License-Identifier: MPL-2.0

// Package cuemodel implements settings.Model on top of a CUE definition.
//
// Validation unifies the value with the definition and reports every
// violation. Generation fills fields from external settings, lets CUE apply
// its defaults and returns either the complete value or the concrete subset
// computed so far.
package cuemodel

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/nodesettings/settings-sdk/pkg/cueutil"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

type (
	// Model is a settings.Model whose constraints and defaults live in a CUE
	// definition. It is immutable and safe for concurrent use.
	Model struct {
		version   settings.Version
		schema    *cueutil.Schema
		fields    []string
		externals []external
	}

	// Option configures a Model.
	Option func(*modelOptions)

	modelOptions struct {
		filename     string
		maxValueSize int64
		externals    []external
	}

	// external binds a field to a setting owned by another domain.
	external struct {
		key      settings.DomainKey
		field    string
		required bool
	}
)

// WithFilename names the schema in CUE error messages.
func WithFilename(name string) Option {
	return func(o *modelOptions) {
		o.filename = name
	}
}

// WithMaxValueSize rejects values whose JSON encoding is larger than size
// bytes. The default is cueutil.DefaultMaxFileSize.
func WithMaxValueSize(size int64) Option {
	return func(o *modelOptions) {
		o.maxValueSize = size
	}
}

// FromExternal fills field from the external setting key during generation.
// Generation fails with a MissingRequiredSettingError when key is absent and
// field has not been set yet.
func FromExternal(key settings.DomainKey, field string) Option {
	return func(o *modelOptions) {
		o.externals = append(o.externals, external{key: key, field: field, required: true})
	}
}

// FromOptionalExternal is FromExternal for settings that may be absent; the
// field is left for the schema's defaults when key is missing.
func FromOptionalExternal(key settings.DomainKey, field string) Option {
	return func(o *modelOptions) {
		o.externals = append(o.externals, external{key: key, field: field})
	}
}

// New compiles definition (e.g. "#NTPv2") from schema into a Model for version.
func New(version settings.Version, schema []byte, definition string, opts ...Option) (*Model, error) {
	options := modelOptions{filename: string(version) + ".cue"}
	for _, opt := range opts {
		opt(&options)
	}

	schemaOpts := []cueutil.Option{cueutil.WithFilename(options.filename)}
	if options.maxValueSize > 0 {
		schemaOpts = append(schemaOpts, cueutil.WithMaxFileSize(options.maxValueSize))
	}
	compiled, err := cueutil.CompileSchema(schema, definition, schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", version, err)
	}
	fields, err := compiled.Fields()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", version, err)
	}

	return &Model{
		version:   version,
		schema:    compiled,
		fields:    fields,
		externals: options.externals,
	}, nil
}

// MustNew is New for embedded schemas; it panics on error.
func MustNew(version settings.Version, schema []byte, definition string, opts ...Option) *Model {
	m, err := New(version, schema, definition, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Version implements settings.Model.
func (m *Model) Version() settings.Version { return m.version }

// Fields implements settings.FieldLister.
func (m *Model) Fields() []string { return m.fields }

// Validate implements settings.Model. Every concrete-value violation is
// reported, not just the first.
func (m *Model) Validate(value settings.Value, _ settings.Externals) []settings.FieldError {
	unified, err := m.unify(value)
	if err != nil {
		return []settings.FieldError{{Reason: err.Error()}}
	}
	return toFieldErrors(unified.Validate(cue.Concrete(true), cue.All()))
}

// Generate implements settings.Model. Fields already present in partial are
// never overwritten, so generating from a previous result is a no-op.
func (m *Model) Generate(partial settings.Value, required settings.Externals) (settings.GenerateResult, error) {
	out := partial.Clone()
	if out == nil {
		out = settings.Value{}
	}

	for _, ext := range m.externals {
		if out.Has(ext.field) {
			continue
		}
		if ext.required {
			val, err := settings.RequireExternal(required, ext.key)
			if err != nil {
				return settings.GenerateResult{}, err
			}
			out[ext.field] = val
			continue
		}
		if val, ok := settings.LookupExternal(required, ext.key); ok && val != nil {
			out[ext.field] = val
		}
	}

	unified, err := m.unify(out)
	if err != nil {
		return settings.GenerateResult{}, err
	}
	if fes := toFieldErrors(unified.Validate(cue.All())); len(fes) > 0 {
		return settings.GenerateResult{}, &settings.ValidationError{Version: m.version, FieldErrors: fes}
	}

	if unified.Validate(cue.Concrete(true)) == nil {
		complete, err := decode(unified)
		if err != nil {
			return settings.GenerateResult{}, err
		}
		return settings.GenerateResult{Value: complete, Complete: true}, nil
	}

	subset, err := concreteSubset(unified)
	if err != nil {
		return settings.GenerateResult{}, err
	}
	return settings.GenerateResult{Value: settings.Value(subset), Complete: false}, nil
}

func (m *Model) unify(value settings.Value) (cue.Value, error) {
	if value == nil {
		value = settings.Value{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return cue.Value{}, fmt.Errorf("encode value: %w", err)
	}
	return m.schema.UnifyJSON(data)
}

func toFieldErrors(err error) []settings.FieldError {
	issues := cueutil.Issues(err)
	if len(issues) == 0 {
		return nil
	}
	fes := make([]settings.FieldError, len(issues))
	for i, issue := range issues {
		fes[i] = settings.FieldError{Path: issue.Path, Reason: issue.Message}
	}
	return fes
}

func decode(v cue.Value) (settings.Value, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode generated value: %w", err)
	}
	var out settings.Value
	if err := settings.DecodeJSON(data, &out); err != nil {
		return nil, fmt.Errorf("decode generated value: %w", err)
	}
	return out, nil
}

// concreteSubset collects the regular fields of v that are already concrete
// (after defaults), descending into structs that are not.
func concreteSubset(v cue.Value) (map[string]any, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, cueutil.FormatError(err, "<value>")
	}

	out := map[string]any{}
	for iter.Next() {
		field := iter.Value()
		if def, ok := field.Default(); ok {
			field = def
		}

		if field.Validate(cue.Concrete(true)) == nil {
			var decoded any
			data, err := field.MarshalJSON()
			if err != nil {
				return nil, err
			}
			if err := settings.DecodeJSON(data, &decoded); err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = decoded
			continue
		}

		if field.IncompleteKind() == cue.StructKind {
			nested, err := concreteSubset(field)
			if err != nil {
				return nil, err
			}
			if len(nested) > 0 {
				out[iter.Selector().Unquoted()] = nested
			}
		}
	}
	return out, nil
}
