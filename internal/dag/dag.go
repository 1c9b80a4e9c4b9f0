// SPDX-License-Identifier: MPL-2.0

// Package dag provides the directed graph used to resolve settings migrations.
// Nodes are version identifiers and an edge from A to B means a declared
// migration step transforms a value at A into a value at B. The graph keeps
// every node and edge in insertion order so that path search and ordering are
// reproducible across runs.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle contains the nodes that form the cycle (not necessarily all of them,
		// but enough to identify the problem).
		Cycle []string
	}

	// Graph is a directed graph keyed by string node names.
	// Graph is not safe for concurrent mutation; once fully built it may be
	// read from any number of goroutines.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors in edge declaration order.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
		// edgeCount is the number of distinct edges.
		edgeCount int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to. Both nodes are implicitly added if
// they don't exist. It reports false when the edge was already present, in
// which case the graph is left unchanged.
func (g *Graph) AddEdge(from, to string) bool {
	if g.HasEdge(from, to) {
		return false
	}
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
	g.edgeCount++
	return true
}

// HasNode reports whether name is a node of the graph.
func (g *Graph) HasNode(name string) bool {
	return g.nodeSet[name]
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.Contains(g.adjacency[from], to)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Neighbors returns the outgoing neighbors of name in edge declaration order.
func (g *Graph) Neighbors(name string) []string {
	return slices.Clone(g.adjacency[name])
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// ShortestPath returns the nodes of a shortest path from -> to, both ends
// included, using a breadth-first search. Neighbors are expanded in edge
// declaration order, so among equally short paths the one whose hops were
// declared earliest (compared hop by hop from the source) wins.
//
// A path from a node to itself is the single-node path [from] and requires no
// edge, but only when the node exists. The second return value is false when
// no path exists or either node is unknown.
func (g *Graph) ShortestPath(from, to string) ([]string, bool) {
	if !g.nodeSet[from] || !g.nodeSet[to] {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, neighbor := range g.adjacency[node] {
			if _, seen := parent[neighbor]; seen {
				continue
			}
			parent[neighbor] = node
			if neighbor == to {
				return buildPath(parent, from, to), true
			}
			queue = append(queue, neighbor)
		}
	}

	return nil, false
}

// Reachable returns every node reachable from start (excluding start itself)
// in breadth-first discovery order.
func (g *Graph) Reachable(start string) []string {
	if !g.nodeSet[start] {
		return nil
	}

	seen := map[string]bool{start: true}
	queue := []string{start}
	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.adjacency[node] {
			if seen[neighbor] {
				continue
			}
			seen[neighbor] = true
			result = append(result, neighbor)
			queue = append(queue, neighbor)
		}
	}
	return result
}

// TopologicalSort returns a valid ordering using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: nodes at the same topological level
// appear in the order they were first added to the graph.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	// Seed the queue with nodes that have no incoming edges, in insertion order.
	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		// Remaining nodes with non-zero in-degree form the cycle.
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return result, nil
}

// InDegree returns the number of edges pointing at name.
func (g *Graph) InDegree(name string) int {
	n := 0
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			if neighbor == name {
				n++
			}
		}
	}
	return n
}

func buildPath(parent map[string]string, from, to string) []string {
	path := []string{to}
	for node := to; node != from; {
		node = parent[node]
		path = append(path, node)
	}
	slices.Reverse(path)
	return path
}
