// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

type (
	// GenerateResult is the output of generation: the primary value, whether
	// it is complete, and the settings of other domains that generation
	// computed as a byproduct. Dependent changes carry their own versions
	// because they belong to other domains.
	GenerateResult struct {
		Value            Value                        `json:"value"`
		Complete         bool                         `json:"complete"`
		DependentChanges map[DomainKey]VersionedValue `json:"dependent_changes"`
	}

	// Generator runs model generation for a catalog.
	Generator struct {
		catalog *Catalog
		logger  *log.Logger
	}
)

// NewGenerator creates a Generator over catalog. A nil logger discards output.
func NewGenerator(catalog *Catalog, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Generator{catalog: catalog, logger: logger}
}

// Generate completes existing (an empty partial when nil) at version using
// required (empty when nil). A result the model reports as complete is
// validated before it is returned, so an invalid value is never handed out
// as complete.
func (g *Generator) Generate(version Version, existing Value, required Externals) (GenerateResult, error) {
	model, err := g.catalog.SchemaFor(version)
	if err != nil {
		return GenerateResult{}, err
	}

	partial := existing.Clone()
	if partial == nil {
		partial = Value{}
	}
	if required == nil {
		required = Externals{}
	}

	result, err := model.Generate(partial, required)
	if err != nil {
		var missing *MissingRequiredSettingError
		if errors.As(err, &missing) {
			g.logger.Debug("generation needs an external setting", "version", version, "key", missing.Key)
			return GenerateResult{}, err
		}
		return GenerateResult{}, fmt.Errorf("generate %s: %w", version, err)
	}

	if result.Value == nil {
		result.Value = Value{}
	}
	if result.DependentChanges == nil {
		result.DependentChanges = map[DomainKey]VersionedValue{}
	}
	if result.Complete {
		if err := newValidationError(version, model.Validate(result.Value, required)); err != nil {
			return GenerateResult{}, err
		}
	}

	g.logger.Debug("generated value", "version", version, "complete", result.Complete, "dependents", len(result.DependentChanges))
	return result, nil
}
