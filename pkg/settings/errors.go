// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindUnknownVersion is reported when a version is not in the catalog.
	KindUnknownVersion Kind = "unknown_version"
	// KindValidation is reported when a value violates its schema.
	KindValidation Kind = "validation"
	// KindMissingRequiredSetting is reported when generation lacks an external setting.
	KindMissingRequiredSetting Kind = "missing_required_setting"
	// KindNoMigrationPath is reported when no route connects two versions.
	KindNoMigrationPath Kind = "no_migration_path"
	// KindStepFailed is reported when a migration step rejects its input.
	KindStepFailed Kind = "step_failed"
	// KindInternal covers construction errors and anything not produced by the engine.
	KindInternal Kind = "internal"
)

var (
	// ErrUnknownVersion is the sentinel error wrapped by UnknownVersionError.
	ErrUnknownVersion = errors.New("unknown version")
	// ErrValidation is the sentinel error wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrMissingRequiredSetting is the sentinel error wrapped by MissingRequiredSettingError.
	ErrMissingRequiredSetting = errors.New("missing required setting")
	// ErrNoMigrationPath is the sentinel error wrapped by NoMigrationPathError.
	ErrNoMigrationPath = errors.New("no migration path")
	// ErrStepFailed is the sentinel error wrapped by StepFailedError.
	ErrStepFailed = errors.New("migration step failed")
	// ErrDuplicateVersion is the sentinel error wrapped by DuplicateVersionError.
	ErrDuplicateVersion = errors.New("duplicate version")
	// ErrInvalidMigrationGraph is the sentinel error wrapped by InvalidMigrationGraphError.
	ErrInvalidMigrationGraph = errors.New("invalid migration graph")
)

type (
	// Kind is the stable, machine-readable name of an error category.
	Kind string

	// Failure is the structured failure payload returned to callers that
	// cannot consume Go errors directly.
	Failure struct {
		Kind   Kind   `json:"kind"`
		Detail string `json:"detail"`
	}

	// FieldError is a single schema violation.
	FieldError struct {
		// Path is the JSON path of the offending field ("" for the whole value).
		Path string `json:"path"`
		// Reason describes the violated constraint.
		Reason string `json:"reason"`
	}

	// UnknownVersionError is returned when a version is not in the catalog.
	UnknownVersionError struct {
		Version Version
	}

	// ValidationError carries every violation found in a value.
	ValidationError struct {
		Version     Version
		FieldErrors []FieldError
	}

	// MissingRequiredSettingError names an external setting that generation
	// needed but the caller did not supply.
	MissingRequiredSettingError struct {
		Key DomainKey
	}

	// NoMigrationPathError is returned when the migration graph holds no
	// route from From to To.
	NoMigrationPathError struct {
		From Version
		To   Version
	}

	// StepFailedError identifies the migration edge whose transformation
	// rejected its input.
	StepFailedError struct {
		From  Version
		To    Version
		Cause error
	}

	// DuplicateVersionError is returned at construction time when two models
	// share a version identifier.
	DuplicateVersionError struct {
		Version Version
	}

	// InvalidMigrationGraphError is returned at construction time for
	// malformed step declarations.
	InvalidMigrationGraphError struct {
		Reason string
	}
)

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown version %q", e.Version)
}

// Unwrap returns ErrUnknownVersion for errors.Is() compatibility.
func (e *UnknownVersionError) Unwrap() error { return ErrUnknownVersion }

func (e *ValidationError) Error() string {
	prefix := "validation failed"
	if e.Version != "" {
		prefix = fmt.Sprintf("validation against %s failed", e.Version)
	}
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("%s: %s", prefix, e.FieldErrors[0].Error())
	}

	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s with %d errors:\n  - %s", prefix, len(e.FieldErrors), strings.Join(msgs, "\n  - "))
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *MissingRequiredSettingError) Error() string {
	return fmt.Sprintf("missing required setting %q", e.Key)
}

// Unwrap returns ErrMissingRequiredSetting for errors.Is() compatibility.
func (e *MissingRequiredSettingError) Unwrap() error { return ErrMissingRequiredSetting }

func (e *NoMigrationPathError) Error() string {
	return fmt.Sprintf("no migration path from %s to %s", e.From, e.To)
}

// Unwrap returns ErrNoMigrationPath for errors.Is() compatibility.
func (e *NoMigrationPathError) Unwrap() error { return ErrNoMigrationPath }

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("migration step %s -> %s failed: %v", e.From, e.To, e.Cause)
}

// Unwrap returns both ErrStepFailed and the step's own error.
func (e *StepFailedError) Unwrap() []error { return []error{ErrStepFailed, e.Cause} }

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("version %q is declared more than once", e.Version)
}

// Unwrap returns ErrDuplicateVersion for errors.Is() compatibility.
func (e *DuplicateVersionError) Unwrap() error { return ErrDuplicateVersion }

func (e *InvalidMigrationGraphError) Error() string {
	return "invalid migration graph: " + e.Reason
}

// Unwrap returns ErrInvalidMigrationGraph for errors.Is() compatibility.
func (e *InvalidMigrationGraphError) Unwrap() error { return ErrInvalidMigrationGraph }

// KindOf classifies err. Errors not produced by the engine are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStepFailed):
		// Checked first: a step's cause may itself wrap the other sentinels.
		return KindStepFailed
	case errors.Is(err, ErrUnknownVersion):
		return KindUnknownVersion
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMissingRequiredSetting):
		return KindMissingRequiredSetting
	case errors.Is(err, ErrNoMigrationPath):
		return KindNoMigrationPath
	default:
		return KindInternal
	}
}

// NewFailure converts err into its structured failure payload.
func NewFailure(err error) Failure {
	if err == nil {
		return Failure{}
	}
	return Failure{Kind: KindOf(err), Detail: err.Error()}
}

func newValidationError(version Version, fieldErrors []FieldError) error {
	if len(fieldErrors) == 0 {
		return nil
	}
	return &ValidationError{Version: version, FieldErrors: fieldErrors}
}
