// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"
)

type (
	// Version names one schema revision of a settings domain (e.g. "v1").
	Version string

	// DomainKey names a setting owned by another domain, in dotted form
	// (e.g. "settings.network.hostname").
	DomainKey string

	// Value is one settings instance: a mapping from field name to scalar,
	// list or nested mapping. A Value may be partial.
	Value map[string]any

	// Externals carries settings from other domains that generation or
	// validation of this domain depends on.
	Externals map[DomainKey]any

	// VersionedValue pairs a value with the version it conforms to.
	VersionedValue struct {
		Version Version `json:"version"`
		Value   Value   `json:"value"`
	}
)

// String returns the version identifier.
func (v Version) String() string { return string(v) }

// DecodeJSON decodes one JSON document into v. Numbers are kept as
// json.Number, so integers beyond 2^53 and long decimals reach the models
// and the encoder with their original digits.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

var errTrailingData = errors.New("unexpected data after the JSON document")

// Clone returns a deep copy of the value. Nested mappings and lists are copied;
// scalars are shared.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	for key, val := range v {
		out[key] = cloneAny(val)
	}
	return out
}

// Has reports whether the top-level field is present.
func (v Value) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// StringField returns the string field, or false when it is absent or not a string.
func (v Value) StringField(field string) (string, bool) {
	s, ok := v[field].(string)
	return s, ok
}

// BoolField returns the bool field, or false when it is absent or not a bool.
func (v Value) BoolField(field string) (bool, bool) {
	b, ok := v[field].(bool)
	return b, ok
}

// WithDefaults returns a copy of partial in which every field missing from
// partial is taken from defaults. Fields present in partial always win, even
// when they hold a zero value; nested mappings present on both sides are
// completed recursively.
func WithDefaults(partial, defaults Value) (Value, error) {
	out := partial.Clone()
	if out == nil {
		out = Value{}
	}

	missing := Value{}
	for key, def := range defaults {
		current, present := out[key]
		if !present {
			missing[key] = cloneAny(def)
			continue
		}
		curMap, curOK := asMap(current)
		defMap, defOK := asMap(def)
		if curOK && defOK {
			merged, err := WithDefaults(curMap, defMap)
			if err != nil {
				return nil, err
			}
			out[key] = map[string]any(merged)
		}
	}

	if err := mergo.Merge(&out, missing); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}
	return out, nil
}

// LookupExternal resolves key in required. An exact key match wins; otherwise
// the longest dotted prefix present in required is used and the remainder of
// the key is followed through nested mappings, so "settings.network.hostname"
// is found in {"settings": {"network": {"hostname": ...}}} as well as in
// {"settings.network": {"hostname": ...}}.
func LookupExternal(required Externals, key DomainKey) (any, bool) {
	if required == nil {
		return nil, false
	}
	if val, ok := required[key]; ok {
		return val, true
	}

	parts := strings.Split(string(key), ".")
	for i := len(parts) - 1; i > 0; i-- {
		root, ok := required[DomainKey(strings.Join(parts[:i], "."))]
		if !ok {
			continue
		}
		if val, ok := walk(root, parts[i:]); ok {
			return val, true
		}
	}
	return nil, false
}

// RequireExternal is LookupExternal for mandatory dependencies. It returns a
// MissingRequiredSettingError naming key when the setting is absent or null.
func RequireExternal(required Externals, key DomainKey) (any, error) {
	val, ok := LookupExternal(required, key)
	if !ok || val == nil {
		return nil, &MissingRequiredSettingError{Key: key}
	}
	return val, nil
}

func walk(node any, path []string) (any, bool) {
	current := node
	for _, part := range path {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		next, exists := m[part]
		if !exists {
			return nil, false
		}
		current = next
	}
	return current, true
}

func asMap(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case Value:
		return m, true
	default:
		return nil, false
	}
}

func cloneAny(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return map[string]any(Value(v).Clone())
	case Value:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneAny(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return val
	}
}
