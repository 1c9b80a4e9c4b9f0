// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"slices"
	"strings"
	"sync"
	"testing"

	"cuelang.org/go/cue"
)

const testSchema = `
#Clock: {
	servers: [string, ...string]
	options: *["iburst"] | [...string]
	region?: string & =~"^[a-z]{2}-[a-z]+$"
}
`

func TestCompileSchema(t *testing.T) {
	t.Parallel()

	t.Run("valid schema", func(t *testing.T) {
		t.Parallel()

		s, err := CompileSchema([]byte(testSchema), "#Clock", WithFilename("clock.cue"))
		if err != nil {
			t.Fatalf("CompileSchema() error = %v", err)
		}
		if s.Path() != "#Clock" {
			t.Errorf("Path() = %q, want #Clock", s.Path())
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		_, err := CompileSchema([]byte("#Clock: {"), "#Clock", WithFilename("broken.cue"))
		if err == nil {
			t.Fatal("expected error for malformed schema")
		}
		if !strings.Contains(err.Error(), "broken.cue") {
			t.Errorf("error should name the file, got: %v", err)
		}
	})

	t.Run("missing definition", func(t *testing.T) {
		t.Parallel()

		_, err := CompileSchema([]byte(testSchema), "#Missing")
		if err == nil {
			t.Fatal("expected error for missing definition")
		}
		if !strings.Contains(err.Error(), "#Missing") {
			t.Errorf("error should name the definition, got: %v", err)
		}
	})
}

func TestSchemaUnifyJSON(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Clock")
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	tests := []struct {
		name       string
		input      string
		wantIssues []string
	}{
		{"valid with default", `{"servers": ["a.example"]}`, nil},
		{"valid with region", `{"servers": ["a.example"], "region": "us-west"}`, nil},
		{"empty servers", `{"servers": []}`, []string{"servers"}},
		{"bad region", `{"servers": ["a"], "region": "Nowhere"}`, []string{"region"}},
		{"closed struct", `{"servers": ["a"], "extra": 1}`, []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := s.UnifyJSON([]byte(tt.input))
			if err != nil {
				t.Fatalf("UnifyJSON() error = %v", err)
			}
			issues := Issues(v.Validate(cue.Concrete(true), cue.All()))
			if len(tt.wantIssues) == 0 {
				if len(issues) != 0 {
					t.Errorf("unexpected issues: %v", issues)
				}
				return
			}
			for _, want := range tt.wantIssues {
				found := slices.ContainsFunc(issues, func(i Issue) bool { return strings.HasPrefix(i.Path, want) })
				if !found {
					t.Errorf("issues %v do not mention %q", issues, want)
				}
			}
		})
	}
}

func TestSchemaUnifyJSON_InvalidJSON(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Clock")
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	if _, err := s.UnifyJSON([]byte(`{"servers": [`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestSchemaUnifyJSON_SizeLimit(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Clock", WithMaxFileSize(8))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	_, err = s.UnifyJSON([]byte(`{"servers": ["a.example"]}`))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size limit error, got %v", err)
	}
}

func TestSchemaFields(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Clock")
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	fields, err := s.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	want := []string{"servers", "options", "region"}
	if !slices.Equal(fields, want) {
		t.Errorf("Fields() = %v, want %v", fields, want)
	}
}

func TestSchemaConcurrentUse(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema([]byte(testSchema), "#Clock")
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			v, err := s.UnifyJSON([]byte(`{"servers": ["a"]}`))
			if err != nil {
				t.Errorf("UnifyJSON() error = %v", err)
				return
			}
			if err := v.Validate(cue.Concrete(true)); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
	wg.Wait()
}
