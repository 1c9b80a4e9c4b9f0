// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/nodesettings/settings-sdk/internal/config"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

// resultKey wraps results that are not tables when printing TOML.
const resultKey = "result"

// writeResult prints result to w in the configured format.
func writeResult(w io.Writer, out config.OutputConfig, result any) error {
	var (
		data []byte
		err  error
	)
	switch out.Format {
	case config.OutputFormatTOML:
		data, err = encodeTOML(result)
	default:
		data, err = encodeJSON(result, out.Indent)
	}
	if err != nil {
		return fmt.Errorf("encode result as %s: %w", out.Format, err)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func encodeJSON(result any, indent int) ([]byte, error) {
	if indent > 0 {
		return json.MarshalIndent(result, "", strings.Repeat(" ", indent))
	}
	return json.Marshal(result)
}

// encodeTOML goes through JSON first so json struct tags name the keys the
// same way in both formats.
func encodeTOML(result any) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := settings.DecodeJSON(data, &generic); err != nil {
		return nil, err
	}

	normalized := normalizeNumbers(generic)
	table, ok := normalized.(map[string]any)
	if !ok {
		table = map[string]any{resultKey: normalized}
	}
	return toml.Marshal(table)
}

// normalizeNumbers converts json.Number leaves for the TOML encoder. Numbers
// that fit an int64 stay integers; the rest become floats, as TOML integers
// are 64-bit.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalizeNumbers(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = normalizeNumbers(child)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
