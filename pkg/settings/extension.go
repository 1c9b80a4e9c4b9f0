// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

type (
	// Extension is the façade over one domain's catalog, migrator and
	// generator. It holds no per-call state and is safe for concurrent use.
	Extension struct {
		name             string
		catalog          *Catalog
		graph            *MigrationGraph
		migrator         *Migrator
		generator        *Generator
		policy           FieldPolicy
		validateMigrated bool
		logger           *log.Logger
	}

	// Option configures an Extension.
	Option func(*Extension)

	// SetRequest asks to accept Value at Version. Current, when set, is the
	// value being replaced and is passed to models implementing SetChecker.
	SetRequest struct {
		Version Version
		Value   Value
		Current Value
	}

	// GenerateRequest asks to generate a value at Version.
	GenerateRequest struct {
		Version          Version
		ExistingPartial  Value
		RequiredSettings Externals
	}

	// ValidateRequest asks whether Value is valid at Version.
	ValidateRequest struct {
		Version          Version
		Value            Value
		RequiredSettings Externals
	}

	// MigrateRequest asks to convert Value from one version to another.
	// SkipValidation disables validation of the migrated value for this call.
	MigrateRequest struct {
		Value          Value
		From           Version
		To             Version
		SkipValidation bool
	}

	// FloodMigrateRequest asks to convert Value from From into every
	// version of the catalog.
	FloodMigrateRequest struct {
		Value          Value
		From           Version
		SkipValidation bool
	}
)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *log.Logger) Option {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFieldPolicy sets how migrations treat fields the target version does
// not declare. The default is PreserveUnknown.
func WithFieldPolicy(policy FieldPolicy) Option {
	return func(e *Extension) {
		e.policy = policy
	}
}

// WithMigrationValidation sets whether migrated values are validated against
// the target model. The default is true.
func WithMigrationValidation(enabled bool) Option {
	return func(e *Extension) {
		e.validateMigrated = enabled
	}
}

// New creates an Extension. graph may be nil for single-version domains.
// Every version mentioned by a step must be declared in catalog.
func New(name string, catalog *Catalog, graph *MigrationGraph, opts ...Option) (*Extension, error) {
	if name == "" {
		return nil, errors.New("extension name must not be empty")
	}
	if catalog == nil {
		return nil, errors.New("extension catalog must not be nil")
	}
	if graph == nil {
		graph = MustNewMigrationGraph()
	}
	for _, v := range graph.Versions() {
		if !catalog.Has(v) {
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("step references undeclared version %s", v)}
		}
	}

	e := &Extension{
		name:             name,
		catalog:          catalog,
		graph:            graph,
		validateMigrated: true,
		logger:           log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.migrator = NewMigrator(graph, e.logger)
	e.generator = NewGenerator(catalog, e.logger)
	return e, nil
}

// MustNew is New for static declarations; it panics on error.
func MustNew(name string, catalog *Catalog, graph *MigrationGraph, opts ...Option) *Extension {
	e, err := New(name, catalog, graph, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return e.name }

// Versions returns the declared versions in declaration order.
func (e *Extension) Versions() []Version { return e.catalog.Versions() }

// Catalog returns the extension's catalog.
func (e *Extension) Catalog() *Catalog { return e.catalog }

// Graph returns the extension's migration graph.
func (e *Extension) Graph() *MigrationGraph { return e.graph }

// FieldPolicy returns the extension's field policy.
func (e *Extension) FieldPolicy() FieldPolicy { return e.policy }

// ValidatesMigrations reports whether migrated values are validated by default.
func (e *Extension) ValidatesMigrations() bool { return e.validateMigrated }

// UseLogger returns a copy of e whose engine components log to logger.
// A nil logger discards output.
func (e *Extension) UseLogger(logger *log.Logger) *Extension {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := *e
	c.logger = logger
	c.migrator = NewMigrator(c.graph, logger)
	c.generator = NewGenerator(c.catalog, logger)
	return &c
}

// Set validates req.Value and returns the accepted value.
func (e *Extension) Set(req SetRequest) (Value, error) {
	model, err := e.catalog.SchemaFor(req.Version)
	if err != nil {
		return nil, err
	}

	fieldErrors := model.Validate(req.Value, nil)
	if checker, ok := model.(SetChecker); ok && req.Current != nil {
		fieldErrors = append(fieldErrors, checker.CheckSet(req.Current, req.Value)...)
	}
	if err := newValidationError(req.Version, fieldErrors); err != nil {
		return nil, err
	}

	e.logger.Debug("accepted value", "extension", e.name, "version", req.Version)
	return req.Value.Clone(), nil
}

// Generate runs generation for req.Version.
func (e *Extension) Generate(req GenerateRequest) (GenerateResult, error) {
	if _, err := e.catalog.SchemaFor(req.Version); err != nil {
		return GenerateResult{}, err
	}
	return e.generator.Generate(req.Version, req.ExistingPartial, req.RequiredSettings)
}

// Validate reports every violation of req.Value at req.Version.
func (e *Extension) Validate(req ValidateRequest) error {
	model, err := e.catalog.SchemaFor(req.Version)
	if err != nil {
		return err
	}
	return newValidationError(req.Version, model.Validate(req.Value, req.RequiredSettings))
}

// Migrate converts req.Value between versions. Both versions must be
// declared. Unless disabled, the result is validated against the target.
func (e *Extension) Migrate(req MigrateRequest) (Value, error) {
	if _, err := e.catalog.SchemaFor(req.From); err != nil {
		return nil, err
	}
	target, err := e.catalog.SchemaFor(req.To)
	if err != nil {
		return nil, err
	}
	return e.migrateTo(req.Value, req.From, target, req.SkipValidation)
}

// FloodMigrate converts req.Value into every declared version and returns the
// results in declaration order. The source version is included unchanged.
// Any version that cannot be reached fails the whole call.
func (e *Extension) FloodMigrate(req FloodMigrateRequest) ([]VersionedValue, error) {
	if _, err := e.catalog.SchemaFor(req.From); err != nil {
		return nil, err
	}

	versions := e.catalog.Versions()
	out := make([]VersionedValue, 0, len(versions))
	for _, v := range versions {
		target, _ := e.catalog.SchemaFor(v)
		migrated, err := e.migrateTo(req.Value, req.From, target, req.SkipValidation)
		if err != nil {
			return nil, err
		}
		out = append(out, VersionedValue{Version: v, Value: migrated})
	}
	return out, nil
}

func (e *Extension) migrateTo(value Value, from Version, target Model, skipValidation bool) (Value, error) {
	to := target.Version()
	migrated, err := e.migrator.Migrate(value, from, to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return migrated, nil
	}

	if e.policy == PruneUnknown {
		migrated = prune(migrated, target)
	}
	if e.validateMigrated && !skipValidation {
		if err := newValidationError(to, target.Validate(migrated, nil)); err != nil {
			return nil, err
		}
	}
	return migrated, nil
}

// prune drops top-level fields the model does not declare. Models that do not
// list their fields leave the value untouched.
func prune(value Value, model Model) Value {
	lister, ok := model.(FieldLister)
	if !ok {
		return value
	}
	fields := lister.Fields()
	if fields == nil {
		return value
	}
	for key := range value {
		if !slices.Contains(fields, key) {
			delete(value, key)
		}
	}
	return value
}
