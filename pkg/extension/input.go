// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/nodesettings/settings-sdk/internal/issue"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

// errNotAnObject is the cause recorded when a JSON flag holds a non-object.
var errNotAnObject = errors.New("expected a JSON object")

// parseObject decodes a JSON object passed through flag. An empty raw string
// yields nil so optional flags can be told apart from an empty object.
func parseObject(flag, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var out map[string]any
	err := settings.DecodeJSON([]byte(raw), &out)
	if err == nil && out == nil {
		err = errNotAnObject
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = fmt.Errorf("%w, got %s", errNotAnObject, typeErr.Value)
		}
		return nil, issue.NewErrorContext().
			WithOperation("parse --"+flag).
			WithResource(truncate(raw, 60)).
			WithIssue(issue.InvalidInputId).
			WithSuggestion("Pass a JSON object, for example '{\"key\": \"value\"}'").
			Wrap(err).
			BuildError()
	}
	return out, nil
}

func parseValue(flag, raw string) (settings.Value, error) {
	obj, err := parseObject(flag, raw)
	if err != nil || obj == nil {
		return nil, err
	}
	return settings.Value(obj), nil
}

func parseExternals(flag, raw string) (settings.Externals, error) {
	obj, err := parseObject(flag, raw)
	if err != nil || obj == nil {
		return nil, err
	}
	out := make(settings.Externals, len(obj))
	for k, v := range obj {
		out[settings.DomainKey(k)] = v
	}
	return out, nil
}

// truncate shortens s to at most n bytes, cutting on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
