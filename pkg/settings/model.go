// SPDX-License-Identifier: MPL-2.0

package settings

const (
	// PreserveUnknown keeps whatever fields a migration step returns.
	PreserveUnknown FieldPolicy = iota
	// PruneUnknown drops top-level fields the target model does not declare
	// (see FieldLister) from every migrated value.
	PruneUnknown
)

type (
	// FieldPolicy decides what happens to fields a migration carries into a
	// version that does not declare them. It is fixed per Extension.
	FieldPolicy int

	// Model is the schema capability bound to exactly one version of a domain.
	// Implementations must be pure: results depend only on the arguments.
	Model interface {
		// Version returns the version this model describes.
		Version() Version
		// Validate returns every violation found in value. required holds the
		// external settings available for cross-domain checks and may be nil.
		Validate(value Value, required Externals) []FieldError
		// Generate completes partial from defaults and required. It returns a
		// MissingRequiredSettingError when a mandatory external setting is absent.
		Generate(partial Value, required Externals) (GenerateResult, error)
	}

	// FieldLister is implemented by models that can enumerate their declared
	// top-level fields. A nil result means the model does not declare them.
	FieldLister interface {
		Fields() []string
	}

	// SetChecker is implemented by models that restrict which transitions
	// from a current value to a new one are allowed.
	SetChecker interface {
		CheckSet(current, target Value) []FieldError
	}

	// ModelFuncs adapts plain functions into a Model. Nil functions fall back
	// to permissive behavior: no validation errors, and generation that
	// reports the partial value as complete when it validates.
	ModelFuncs struct {
		V            Version
		ValidateFunc func(value Value, required Externals) []FieldError
		GenerateFunc func(partial Value, required Externals) (GenerateResult, error)
		CheckSetFunc func(current, target Value) []FieldError
		FieldNames   []string
	}
)

func (p FieldPolicy) String() string {
	switch p {
	case PreserveUnknown:
		return "preserve"
	case PruneUnknown:
		return "prune"
	default:
		return "unknown"
	}
}

// Version implements Model.
func (m *ModelFuncs) Version() Version { return m.V }

// Validate implements Model.
func (m *ModelFuncs) Validate(value Value, required Externals) []FieldError {
	if m.ValidateFunc == nil {
		return nil
	}
	return m.ValidateFunc(value, required)
}

// Generate implements Model.
func (m *ModelFuncs) Generate(partial Value, required Externals) (GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(partial, required)
	}
	return GenerateResult{
		Value:    partial,
		Complete: len(m.Validate(partial, required)) == 0,
	}, nil
}

// Fields implements FieldLister.
func (m *ModelFuncs) Fields() []string { return m.FieldNames }

// CheckSet implements SetChecker.
func (m *ModelFuncs) CheckSet(current, target Value) []FieldError {
	if m.CheckSetFunc == nil {
		return nil
	}
	return m.CheckSetFunc(current, target)
}
