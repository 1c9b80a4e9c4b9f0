// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nodesettings/settings-sdk/internal/dag"
)

type (
	// StepFunc transforms a value at one version into a value at another.
	// It receives a private copy of the value and may modify it in place.
	StepFunc func(Value) (Value, error)

	// Step is one declared migration edge.
	Step struct {
		From        Version
		To          Version
		Apply       StepFunc
		Description string
	}

	// MigrationGraph is the immutable set of declared steps viewed as a
	// directed graph over versions.
	MigrationGraph struct {
		graph *dag.Graph
		steps map[edge]Step
		order []edge
	}

	// Link declares one hop of a linear version history. Forward migrates
	// From -> To; Backward, when set, migrates To -> From.
	Link struct {
		From     Version
		To       Version
		Forward  StepFunc
		Backward StepFunc
	}

	edge struct {
		from Version
		to   Version
	}
)

// NewMigrationGraph registers steps in declaration order. Declaration order is
// significant: it breaks ties between equally short migration paths.
// Candidates are compared hop by hop from the source version, and at the
// first hop where they differ the path whose step was declared earlier wins.
func NewMigrationGraph(steps ...Step) (*MigrationGraph, error) {
	g := &MigrationGraph{
		graph: dag.New(),
		steps: make(map[edge]Step, len(steps)),
	}
	for i, s := range steps {
		switch {
		case s.From == "" || s.To == "":
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("step %d has an empty version", i)}
		case s.From == s.To:
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("step %d migrates %s to itself", i, s.From)}
		case s.Apply == nil:
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("step %s -> %s has no transformation", s.From, s.To)}
		}

		e := edge{from: s.From, to: s.To}
		if !g.graph.AddEdge(string(s.From), string(s.To)) {
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("step %s -> %s is declared more than once", s.From, s.To)}
		}
		g.steps[e] = s
		g.order = append(g.order, e)
	}
	return g, nil
}

// MustNewMigrationGraph is NewMigrationGraph for static declarations; it panics on error.
func MustNewMigrationGraph(steps ...Step) *MigrationGraph {
	g, err := NewMigrationGraph(steps...)
	if err != nil {
		panic(err)
	}
	return g
}

// Steps returns every step in declaration order.
func (g *MigrationGraph) Steps() []Step {
	out := make([]Step, 0, len(g.order))
	for _, e := range g.order {
		out = append(out, g.steps[e])
	}
	return out
}

// Step returns the step declared for from -> to.
func (g *MigrationGraph) Step(from, to Version) (Step, bool) {
	s, ok := g.steps[edge{from: from, to: to}]
	return s, ok
}

// Versions returns every version mentioned by a step, in first-mention order.
func (g *MigrationGraph) Versions() []Version {
	return toVersions(g.graph.Nodes())
}

// Path returns the shortest declared route from -> to, both ends included.
// Equal versions yield the single-element path without consulting the graph.
func (g *MigrationGraph) Path(from, to Version) ([]Version, error) {
	if from == to {
		return []Version{from}, nil
	}
	nodes, ok := g.graph.ShortestPath(string(from), string(to))
	if !ok {
		return nil, &NoMigrationPathError{From: from, To: to}
	}
	return toVersions(nodes), nil
}

// Reachable returns every version reachable from v, excluding v.
func (g *MigrationGraph) Reachable(v Version) []Version {
	return toVersions(g.graph.Reachable(string(v)))
}

// LinearChain expands a linear version history into steps. The forward links
// must form one unbroken acyclic chain; links may be listed in any order.
// The returned steps follow the chain from its oldest version, each forward
// step followed by its backward step.
func LinearChain(links ...Link) ([]Step, error) {
	if len(links) == 0 {
		return nil, nil
	}

	forward := dag.New()
	byFrom := make(map[Version]Link, len(links))
	for _, l := range links {
		if l.Forward == nil {
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("link %s -> %s has no forward migration", l.From, l.To)}
		}
		if _, dup := byFrom[l.From]; dup {
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("version %s has more than one successor", l.From)}
		}
		byFrom[l.From] = l
		forward.AddEdge(string(l.From), string(l.To))
	}

	order, err := forward.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &InvalidMigrationGraphError{Reason: "linear chain " + cycleErr.Error()}
		}
		return nil, err
	}
	for _, node := range order {
		if forward.InDegree(node) > 1 {
			return nil, &InvalidMigrationGraphError{Reason: fmt.Sprintf("version %s has more than one predecessor", node)}
		}
	}
	if len(order) != len(links)+1 {
		return nil, &InvalidMigrationGraphError{Reason: "linear chain is not connected"}
	}

	steps := make([]Step, 0, 2*len(links))
	for _, node := range order {
		l, ok := byFrom[Version(node)]
		if !ok {
			continue
		}
		steps = append(steps, Step{From: l.From, To: l.To, Apply: l.Forward, Description: "forward"})
		if l.Backward != nil {
			steps = append(steps, Step{From: l.To, To: l.From, Apply: l.Backward, Description: "backward"})
		}
	}
	return steps, nil
}

func toVersions(nodes []string) []Version {
	if nodes == nil {
		return nil
	}
	out := make([]Version, len(nodes))
	for i, n := range nodes {
		out[i] = Version(n)
	}
	return slices.Clip(out)
}
