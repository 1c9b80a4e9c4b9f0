// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
)

// trailStep returns a step that records its hop in the value's "trail" list.
func trailStep(from, to Version) Step {
	return Step{
		From: from,
		To:   to,
		Apply: func(v Value) (Value, error) {
			trail, _ := v["trail"].([]any)
			v["trail"] = append(trail, fmt.Sprintf("%s->%s", from, to))
			return v, nil
		},
	}
}

func failingStep(from, to Version, cause error) Step {
	return Step{
		From: from,
		To:   to,
		Apply: func(Value) (Value, error) {
			return nil, cause
		},
	}
}

// permissiveModel accepts any value.
func permissiveModel(v Version) Model {
	return &ModelFuncs{V: v}
}

// requiresA demands a numeric "a" field and, when set, a non-empty string "name".
func requiresA(v Version) Model {
	return &ModelFuncs{
		V: v,
		ValidateFunc: func(value Value, _ Externals) []FieldError {
			var errs []FieldError
			if _, ok := value["a"].(float64); !ok {
				errs = append(errs, FieldError{Path: "a", Reason: "must be a number"})
			}
			if name, present := value["name"]; present {
				if s, ok := name.(string); !ok || s == "" {
					errs = append(errs, FieldError{Path: "name", Reason: "must be a non-empty string"})
				}
			}
			return errs
		},
		FieldNames: []string{"a", "name", "trail"},
	}
}

// hostnameModel requires the external setting "other.setting" and copies it
// into the "host" field, reporting a dependent change when it did so.
func hostnameModel(v Version) Model {
	return &ModelFuncs{
		V: v,
		ValidateFunc: func(value Value, _ Externals) []FieldError {
			if _, ok := value.StringField("host"); !ok {
				return []FieldError{{Path: "host", Reason: "is required"}}
			}
			return nil
		},
		GenerateFunc: func(partial Value, required Externals) (GenerateResult, error) {
			if partial.Has("host") {
				return GenerateResult{Value: partial, Complete: true}, nil
			}
			host, err := RequireExternal(required, "other.setting")
			if err != nil {
				return GenerateResult{}, err
			}
			s, ok := host.(string)
			if !ok {
				return GenerateResult{}, errors.New("other.setting must be a string")
			}
			partial["host"] = s
			return GenerateResult{
				Value:    partial,
				Complete: true,
				DependentChanges: map[DomainKey]VersionedValue{
					"settings.banner": {Version: "v1", Value: Value{"text": "hello " + s}},
				},
			}, nil
		},
	}
}
