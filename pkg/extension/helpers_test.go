// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"bytes"
	"context"
	"testing"

	"github.com/nodesettings/settings-sdk/internal/config"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

// stubConfig is a ConfigProvider returning a fixed configuration.
type stubConfig struct {
	cfg *config.Config
	err error
}

func (s stubConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cfg == nil {
		return config.DefaultConfig(), nil
	}
	c := *s.cfg
	return &c, nil
}

func stringField(field string) func(settings.Value, settings.Externals) []settings.FieldError {
	return func(v settings.Value, _ settings.Externals) []settings.FieldError {
		var fes []settings.FieldError
		if _, ok := v.StringField(field); !ok {
			fes = append(fes, settings.FieldError{Path: field, Reason: "must be a string"})
		}
		for k := range v {
			if k != field && k != "greeting" {
				fes = append(fes, settings.FieldError{Path: k, Reason: "field not allowed"})
			}
		}
		return fes
	}
}

// newGreetingExtension declares v1 {motd} and v2 {message, greeting}; v2
// generation needs settings.network.hostname.
func newGreetingExtension(t *testing.T) *settings.Extension {
	t.Helper()

	v1 := &settings.ModelFuncs{V: "v1", ValidateFunc: stringField("motd")}
	v2 := &settings.ModelFuncs{
		V:            "v2",
		ValidateFunc: stringField("message"),
		GenerateFunc: func(partial settings.Value, required settings.Externals) (settings.GenerateResult, error) {
			host, err := settings.RequireExternal(required, "settings.network.hostname")
			if err != nil {
				return settings.GenerateResult{}, err
			}
			out, err := settings.WithDefaults(partial, settings.Value{"message": "Welcome!"})
			if err != nil {
				return settings.GenerateResult{}, err
			}
			out["greeting"] = "hello from " + host.(string)
			return settings.GenerateResult{Value: out, Complete: true}, nil
		},
	}

	steps, err := settings.LinearChain(settings.Link{
		From: "v1",
		To:   "v2",
		Forward: func(v settings.Value) (settings.Value, error) {
			return settings.Value{"message": v["motd"]}, nil
		},
		Backward: func(v settings.Value) (settings.Value, error) {
			return settings.Value{"motd": v["message"]}, nil
		},
	})
	if err != nil {
		t.Fatalf("LinearChain() error: %v", err)
	}

	ext, err := settings.New("greeting",
		settings.MustNewCatalog(v1, v2),
		settings.MustNewMigrationGraph(steps...),
	)
	if err != nil {
		t.Fatalf("settings.New() error: %v", err)
	}
	return ext
}

// runCLI runs the command tree with a stub configuration and captures output.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	err = Run(context.Background(), newGreetingExtension(t), args, Dependencies{
		Config: stubConfig{cfg: cfg},
		Stdout: &out,
		Stderr: &errOut,
	})
	return out.String(), errOut.String(), err
}
