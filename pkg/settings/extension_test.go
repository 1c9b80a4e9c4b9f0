// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"bytes"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestExtension(t *testing.T, opts ...Option) *Extension {
	t.Helper()

	ext, err := New("test",
		MustNewCatalog(requiresA("v1"), requiresA("v2"), requiresA("v3")),
		MustNewMigrationGraph(trailStep("v1", "v2"), trailStep("v2", "v3")),
		opts...,
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return ext
}

// countingModel counts every schema call it receives.
func countingModel(v Version, calls *atomic.Int32) Model {
	return &ModelFuncs{
		V: v,
		ValidateFunc: func(Value, Externals) []FieldError {
			calls.Add(1)
			return nil
		},
		GenerateFunc: func(partial Value, _ Externals) (GenerateResult, error) {
			calls.Add(1)
			return GenerateResult{Value: partial, Complete: true}, nil
		},
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	catalog := MustNewCatalog(permissiveModel("v1"))

	if _, err := New("", catalog, nil); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := New("x", nil, nil); err == nil {
		t.Error("expected error for nil catalog")
	}

	graph := MustNewMigrationGraph(trailStep("v1", "v2"))
	if _, err := New("x", catalog, graph); !errors.Is(err, ErrInvalidMigrationGraph) {
		t.Errorf("expected ErrInvalidMigrationGraph for undeclared step version, got %v", err)
	}
}

func TestExtension_Accessors(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t, WithFieldPolicy(PruneUnknown))
	if ext.Name() != "test" {
		t.Errorf("Name() = %q", ext.Name())
	}
	if !slices.Equal(ext.Versions(), []Version{"v1", "v2", "v3"}) {
		t.Errorf("Versions() = %v", ext.Versions())
	}
	if ext.FieldPolicy() != PruneUnknown {
		t.Errorf("FieldPolicy() = %s", ext.FieldPolicy())
	}
	if ext.Catalog().Len() != 3 || len(ext.Graph().Steps()) != 2 {
		t.Error("Catalog()/Graph() do not reflect construction")
	}
}

func TestExtension_UseLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	base := newTestExtension(t, WithMigrationValidation(false))
	traced := base.UseLogger(logger)
	if traced == base {
		t.Fatal("UseLogger() should return a copy")
	}
	if traced.ValidatesMigrations() {
		t.Error("UseLogger() should keep the other options")
	}

	if _, err := traced.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v3"}); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if !strings.Contains(buf.String(), "applying migration step") {
		t.Errorf("expected step tracing in log output, got %q", buf.String())
	}

	buf.Reset()
	if _, err := base.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v3"}); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("the original extension should keep its own logger")
	}
}

func TestExtension_Set(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t)

	got, err := ext.Set(SetRequest{Version: "v1", Value: Value{"a": 1.0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, Value{"a": 1.0}) {
		t.Errorf("Set() = %v", got)
	}

	_, err = ext.Set(SetRequest{Version: "v1", Value: Value{"name": ""}})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if len(valErr.FieldErrors) != 2 {
		t.Errorf("expected both violations, got %v", valErr.FieldErrors)
	}
}

func TestExtension_SetChecksTransition(t *testing.T) {
	t.Parallel()

	immutable := &ModelFuncs{
		V: "v1",
		CheckSetFunc: func(current, target Value) []FieldError {
			if current["id"] != target["id"] {
				return []FieldError{{Path: "id", Reason: "cannot be changed"}}
			}
			return nil
		},
	}
	ext := MustNew("immutable", MustNewCatalog(immutable), nil)

	if _, err := ext.Set(SetRequest{Version: "v1", Value: Value{"id": "a"}, Current: Value{"id": "a"}}); err != nil {
		t.Errorf("unchanged id rejected: %v", err)
	}
	if _, err := ext.Set(SetRequest{Version: "v1", Value: Value{"id": "b"}, Current: Value{"id": "a"}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for changed id, got %v", err)
	}
	if _, err := ext.Set(SetRequest{Version: "v1", Value: Value{"id": "b"}}); err != nil {
		t.Errorf("first set without current value rejected: %v", err)
	}
}

func TestExtension_ValidateReportsAllViolations(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t)

	err := ext.Validate(ValidateRequest{Version: "v2", Value: Value{"a": "not a number", "name": 7.0}})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	paths := make([]string, 0, len(valErr.FieldErrors))
	for _, fe := range valErr.FieldErrors {
		paths = append(paths, fe.Path)
	}
	if !slices.Equal(paths, []string{"a", "name"}) {
		t.Errorf("violations = %v, want [a name]", paths)
	}
	if valErr.Version != "v2" {
		t.Errorf("Version = %s, want v2", valErr.Version)
	}

	if err := ext.Validate(ValidateRequest{Version: "v2", Value: Value{"a": 2.0}}); err != nil {
		t.Errorf("valid value rejected: %v", err)
	}
}

func TestExtension_Migrate(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t)

	got, err := ext.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Value{"a": 1.0, "trail": []any{"v1->v2", "v2->v3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Migrate() = %v, want %v", got, want)
	}

	_, err = ext.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v3", To: "v1"})
	if !errors.Is(err, ErrNoMigrationPath) {
		t.Errorf("expected ErrNoMigrationPath, got %v", err)
	}
}

func TestExtension_MigrateIdentity(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t)
	for _, v := range ext.Versions() {
		in := Value{"a": 3.0, "extra": "kept"}
		got, err := ext.Migrate(MigrateRequest{Value: in, From: v, To: v})
		if err != nil {
			t.Fatalf("Migrate(%s -> %s) error: %v", v, v, err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("Migrate(%s -> %s) = %v, want %v", v, v, got, in)
		}
	}
}

func TestExtension_MigrateValidatesResult(t *testing.T) {
	t.Parallel()

	breaking := Step{From: "v1", To: "v2", Apply: func(v Value) (Value, error) {
		delete(v, "a")
		return v, nil
	}}
	catalog := MustNewCatalog(requiresA("v1"), requiresA("v2"))
	graph := MustNewMigrationGraph(breaking)

	ext := MustNew("strict", catalog, graph)
	if _, err := ext.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v2"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := ext.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v2", SkipValidation: true}); err != nil {
		t.Errorf("SkipValidation should bypass validation, got %v", err)
	}

	lax := MustNew("lax", catalog, graph, WithMigrationValidation(false))
	if _, err := lax.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v2"}); err != nil {
		t.Errorf("validation disabled by option, got %v", err)
	}
}

func TestExtension_FieldPolicy(t *testing.T) {
	t.Parallel()

	in := Value{"a": 1.0, "unknown": true}

	preserve := newTestExtension(t)
	got, err := preserve.Migrate(MigrateRequest{Value: in, From: "v1", To: "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Has("unknown") {
		t.Errorf("PreserveUnknown dropped a field: %v", got)
	}

	prune := newTestExtension(t, WithFieldPolicy(PruneUnknown))
	got, err = prune.Migrate(MigrateRequest{Value: in, From: "v1", To: "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Has("unknown") {
		t.Errorf("PruneUnknown kept an undeclared field: %v", got)
	}
	if !got.Has("a") || !got.Has("trail") {
		t.Errorf("PruneUnknown dropped a declared field: %v", got)
	}
}

func TestExtension_MigrationComposition(t *testing.T) {
	t.Parallel()

	// v1 -> v2 adds "b", v2 -> v3 adds "c"; the direct edge adds both.
	addField := func(field string, val any) StepFunc {
		return func(v Value) (Value, error) {
			v[field] = val
			return v, nil
		}
	}
	catalog := MustNewCatalog(permissiveModel("v1"), permissiveModel("v2"), permissiveModel("v3"))
	ext := MustNew("compose", catalog, MustNewMigrationGraph(
		Step{From: "v1", To: "v2", Apply: addField("b", "B")},
		Step{From: "v2", To: "v3", Apply: addField("c", "C")},
		Step{From: "v1", To: "v3", Apply: func(v Value) (Value, error) {
			v["b"], v["c"] = "B", "C"
			return v, nil
		}},
	))

	in := Value{"a": 1.0}
	direct, err := ext.Migrate(MigrateRequest{Value: in, From: "v1", To: "v3"})
	if err != nil {
		t.Fatalf("direct migration error: %v", err)
	}
	mid, err := ext.Migrate(MigrateRequest{Value: in, From: "v1", To: "v2"})
	if err != nil {
		t.Fatalf("v1 -> v2 error: %v", err)
	}
	stepped, err := ext.Migrate(MigrateRequest{Value: mid, From: "v2", To: "v3"})
	if err != nil {
		t.Fatalf("v2 -> v3 error: %v", err)
	}
	if !reflect.DeepEqual(direct, stepped) {
		t.Errorf("direct %v and stepwise %v migrations disagree", direct, stepped)
	}
}

func TestExtension_FloodMigrate(t *testing.T) {
	t.Parallel()

	catalog := MustNewCatalog(requiresA("v1"), requiresA("v2"), requiresA("v3"))
	graph := MustNewMigrationGraph(trailStep("v1", "v2"), trailStep("v2", "v3"), trailStep("v2", "v1"), trailStep("v3", "v2"))
	ext := MustNew("flood", catalog, graph)

	got, err := ext.FloodMigrate(FloodMigrateRequest{Value: Value{"a": 1.0}, From: "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []VersionedValue{
		{Version: "v1", Value: Value{"a": 1.0, "trail": []any{"v2->v1"}}},
		{Version: "v2", Value: Value{"a": 1.0}},
		{Version: "v3", Value: Value{"a": 1.0, "trail": []any{"v2->v3"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FloodMigrate() = %v, want %v", got, want)
	}

	oneWay := newTestExtension(t)
	if _, err := oneWay.FloodMigrate(FloodMigrateRequest{Value: Value{"a": 1.0}, From: "v2"}); !errors.Is(err, ErrNoMigrationPath) {
		t.Errorf("expected ErrNoMigrationPath for unreachable v1, got %v", err)
	}
}

func TestExtension_UnknownVersionIsCheckedFirst(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var stepCalls atomic.Int32
	step := Step{From: "v1", To: "v2", Apply: func(v Value) (Value, error) {
		stepCalls.Add(1)
		return v, nil
	}}
	ext := MustNew("guarded",
		MustNewCatalog(countingModel("v1", &calls), countingModel("v2", &calls)),
		MustNewMigrationGraph(step),
	)

	value := Value{"a": 1.0}
	checks := map[string]func() error{
		"set": func() error {
			_, err := ext.Set(SetRequest{Version: "v9", Value: value})
			return err
		},
		"generate": func() error {
			_, err := ext.Generate(GenerateRequest{Version: "v9"})
			return err
		},
		"validate": func() error {
			return ext.Validate(ValidateRequest{Version: "v9", Value: value})
		},
		"migrate unknown source": func() error {
			_, err := ext.Migrate(MigrateRequest{Value: value, From: "v9", To: "v2"})
			return err
		},
		"migrate unknown target": func() error {
			_, err := ext.Migrate(MigrateRequest{Value: value, From: "v1", To: "v9"})
			return err
		},
		"migrate unknown identity": func() error {
			_, err := ext.Migrate(MigrateRequest{Value: value, From: "v9", To: "v9"})
			return err
		},
		"flood-migrate": func() error {
			_, err := ext.FloodMigrate(FloodMigrateRequest{Value: value, From: "v9"})
			return err
		},
	}

	for name, call := range checks {
		err := call()
		var unknown *UnknownVersionError
		if !errors.As(err, &unknown) {
			t.Errorf("%s: expected *UnknownVersionError, got %T: %v", name, err, err)
		}
		if KindOf(err) != KindUnknownVersion {
			t.Errorf("%s: KindOf() = %s", name, KindOf(err))
		}
	}
	if calls.Load() != 0 || stepCalls.Load() != 0 {
		t.Errorf("schema work ran before the version check: %d model calls, %d step calls", calls.Load(), stepCalls.Load())
	}
}

func TestExtension_ConcurrentUse(t *testing.T) {
	t.Parallel()

	ext := newTestExtension(t)
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for range 64 {
		wg.Go(func() {
			got, err := ext.Migrate(MigrateRequest{Value: Value{"a": 1.0}, From: "v1", To: "v3"})
			if err != nil {
				errs <- err
				return
			}
			if len(got["trail"].([]any)) != 2 {
				errs <- errors.New("unexpected trail length")
			}
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
