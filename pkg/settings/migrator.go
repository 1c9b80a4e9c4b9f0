// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// errNilStepResult is the cause recorded when a step returns neither a value nor an error.
var errNilStepResult = errors.New("step returned no value")

// Migrator applies chains of migration steps resolved over a MigrationGraph.
type Migrator struct {
	graph  *MigrationGraph
	logger *log.Logger
}

// NewMigrator creates a Migrator over graph. A nil graph declares no steps,
// so only identity migrations succeed. A nil logger discards output.
func NewMigrator(graph *MigrationGraph, logger *log.Logger) *Migrator {
	if graph == nil {
		graph = MustNewMigrationGraph()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Migrator{graph: graph, logger: logger}
}

// Path returns the versions a migration from -> to passes through.
func (m *Migrator) Path(from, to Version) ([]Version, error) {
	return m.graph.Path(from, to)
}

// Migrate converts value from one version to another. Equal versions return
// a copy of value without running any step. The caller's value is never
// modified, and no partially migrated value is ever returned: any failing
// step aborts the whole migration with a StepFailedError.
func (m *Migrator) Migrate(value Value, from, to Version) (Value, error) {
	path, err := m.graph.Path(from, to)
	if err != nil {
		m.logger.Debug("no migration path", "from", from, "to", to)
		return nil, err
	}
	if len(path) > 1 {
		m.logger.Debug("resolved migration path", "from", from, "to", to, "hops", len(path)-1)
	}

	current := value.Clone()
	for i := 1; i < len(path); i++ {
		step, _ := m.graph.Step(path[i-1], path[i])
		m.logger.Debug("applying migration step", "from", step.From, "to", step.To)

		next, stepErr := step.Apply(current)
		if stepErr == nil && next == nil {
			stepErr = errNilStepResult
		}
		if stepErr != nil {
			m.logger.Debug("migration step failed", "from", step.From, "to", step.To, "error", stepErr)
			return nil, &StepFailedError{From: step.From, To: step.To, Cause: stepErr}
		}
		current = next
	}
	return current, nil
}
