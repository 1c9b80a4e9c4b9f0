// SPDX-License-Identifier: MPL-2.0

package motd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nodesettings/settings-sdk/pkg/settings"
)

func TestExtension_Versions(t *testing.T) {
	t.Parallel()

	ext := Extension()
	if got := ext.Versions(); !reflect.DeepEqual(got, []settings.Version{"v1", "v2"}) {
		t.Errorf("Versions() = %v", got)
	}
	if ext.FieldPolicy() != settings.PreserveUnknown {
		t.Errorf("FieldPolicy() = %s, want preserve", ext.FieldPolicy())
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		version   settings.Version
		value     settings.Value
		wantPaths []string
	}{
		{"v1 ok", "v1", settings.Value{"motd": "hi"}, nil},
		{"v1 missing", "v1", settings.Value{}, []string{"motd"}},
		{"v1 wrong type", "v1", settings.Value{"motd": 3.0}, []string{"motd"}},
		{"v2 ok", "v2", settings.Value{"message": "hi", "banner": true, "greeting": "Welcome to a"}, nil},
		{"v2 keeps unknown fields", "v2", settings.Value{"message": "hi", "color": "red"}, nil},
		{"v2 every violation", "v2", settings.Value{"banner": "yes", "greeting": 1.0}, []string{"message", "banner", "greeting"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Extension().Validate(settings.ValidateRequest{Version: tt.version, Value: tt.value})
			if tt.wantPaths == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var valErr *settings.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			var paths []string
			for _, fe := range valErr.FieldErrors {
				paths = append(paths, fe.Path)
			}
			if !reflect.DeepEqual(paths, tt.wantPaths) {
				t.Errorf("violation paths = %v, want %v", paths, tt.wantPaths)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	required := settings.Externals{"settings.network.hostname": "node-1"}

	t.Run("computes greeting and banner", func(t *testing.T) {
		t.Parallel()

		got, err := Extension().Generate(settings.GenerateRequest{Version: "v2", RequiredSettings: required})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		want := settings.GenerateResult{
			Value:    settings.Value{"message": DefaultMessage, "banner": false, "greeting": "Welcome to node-1"},
			Complete: true,
			DependentChanges: map[settings.DomainKey]settings.VersionedValue{
				SSHBannerKey: {Version: "v1", Value: settings.Value{"text": "Welcome to node-1"}},
			},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Generate() = %#v, want %#v", got, want)
		}
	})

	t.Run("existing greeting is kept without dependents", func(t *testing.T) {
		t.Parallel()

		partial := settings.Value{"greeting": "hello", "banner": true}
		got, err := Extension().Generate(settings.GenerateRequest{Version: "v2", ExistingPartial: partial})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		want := settings.Value{"message": DefaultMessage, "banner": true, "greeting": "hello"}
		if !reflect.DeepEqual(got.Value, want) {
			t.Errorf("Value = %v, want %v", got.Value, want)
		}
		if len(got.DependentChanges) != 0 {
			t.Errorf("DependentChanges = %v, want none", got.DependentChanges)
		}
	})

	t.Run("missing host name", func(t *testing.T) {
		t.Parallel()

		_, err := Extension().Generate(settings.GenerateRequest{Version: "v2"})
		var missing *settings.MissingRequiredSettingError
		if !errors.As(err, &missing) {
			t.Fatalf("expected *MissingRequiredSettingError, got %v", err)
		}
		if missing.Key != HostnameKey {
			t.Errorf("Key = %q, want %q", missing.Key, HostnameKey)
		}
	})

	t.Run("host name must be a string", func(t *testing.T) {
		t.Parallel()

		_, err := Extension().Generate(settings.GenerateRequest{
			Version:          "v2",
			RequiredSettings: settings.Externals{"settings.network": map[string]any{"hostname": 42.0}},
		})
		if !errors.Is(err, settings.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("generating a complete value is a no-op", func(t *testing.T) {
		t.Parallel()

		first, err := Extension().Generate(settings.GenerateRequest{Version: "v2", RequiredSettings: required})
		if err != nil {
			t.Fatal(err)
		}
		second, err := Extension().Generate(settings.GenerateRequest{Version: "v2", ExistingPartial: first.Value, RequiredSettings: required})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Value, second.Value) {
			t.Errorf("second generation changed the value: %v -> %v", first.Value, second.Value)
		}
		if len(second.DependentChanges) != 0 {
			t.Errorf("second generation reported dependents: %v", second.DependentChanges)
		}
	})
}

func TestSet_GreetingIsFixed(t *testing.T) {
	t.Parallel()

	current := settings.Value{"message": "hi", "greeting": "Welcome to node-1"}

	_, err := Extension().Set(settings.SetRequest{
		Version: "v2",
		Value:   settings.Value{"message": "hi", "greeting": "Welcome to elsewhere"},
		Current: current,
	})
	if !errors.Is(err, settings.ErrValidation) {
		t.Fatalf("changing the greeting should fail validation, got %v", err)
	}

	accepted, err := Extension().Set(settings.SetRequest{
		Version: "v2",
		Value:   settings.Value{"message": "bye", "greeting": "Welcome to node-1"},
		Current: current,
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if accepted["message"] != "bye" {
		t.Errorf("accepted = %v", accepted)
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to settings.Version
		value    settings.Value
		want     settings.Value
	}{
		{
			name: "forward",
			from: "v1", to: "v2",
			value: settings.Value{"motd": "hi"},
			want:  settings.Value{"message": "hi", "banner": false},
		},
		{
			name: "backward drops v2 fields",
			from: "v2", to: "v1",
			value: settings.Value{"message": "hi", "banner": true, "greeting": "Welcome to a"},
			want:  settings.Value{"motd": "hi"},
		},
		{
			name: "unknown fields are preserved",
			from: "v1", to: "v2",
			value: settings.Value{"motd": "hi", "color": "red"},
			want:  settings.Value{"message": "hi", "banner": false, "color": "red"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Extension().Migrate(settings.MigrateRequest{Value: tt.value, From: tt.from, To: tt.to})
			if err != nil {
				t.Fatalf("Migrate() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Migrate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMigrate_StepFailure(t *testing.T) {
	t.Parallel()

	_, err := Extension().Migrate(settings.MigrateRequest{Value: settings.Value{"motd": 5.0}, From: "v1", To: "v2"})
	if settings.KindOf(err) != settings.KindStepFailed {
		t.Errorf("KindOf() = %s, want %s (err: %v)", settings.KindOf(err), settings.KindStepFailed, err)
	}
}
