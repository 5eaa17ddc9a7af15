// Package dag orders batches of aliased items by their declared
// dependencies. Templates depend on their master template and document
// types on their parent and compositions; both must be created
// parents-first.
package dag

import (
	"fmt"
	"strings"
)

// Graph is a directed acyclic graph keyed by alias. Nodes keep their
// insertion order so independent items sort deterministically.
type Graph struct {
	edges   map[string][]string
	nodes   []string
	nodeSet map[string]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		edges:   make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode registers an alias. Adding the same alias twice is a no-op.
func (g *Graph) AddNode(alias string) {
	if g.nodeSet[alias] {
		return
	}
	g.nodeSet[alias] = true
	g.nodes = append(g.nodes, alias)
}

// HasNode reports whether the alias is registered.
func (g *Graph) HasNode(alias string) bool {
	return g.nodeSet[alias]
}

// AddDependency records that alias depends on dep, so dep sorts before
// alias. Dependencies on aliases outside the graph are ignored; callers
// resolve those against the live store instead.
func (g *Graph) AddDependency(alias, dep string) {
	if !g.nodeSet[alias] || !g.nodeSet[dep] || alias == dep {
		return
	}
	g.edges[dep] = append(g.edges[dep], alias)
}

// CycleError reports a dependency cycle between aliases.
type CycleError struct {
	Aliases []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.Aliases, ", "))
}

// Sort returns the aliases in dependency order using Kahn's algorithm.
// Ties break on insertion order. A cycle yields a *CycleError listing
// the aliases left unsorted.
func (g *Graph) Sort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n] = 0
	}
	for _, dependents := range g.edges {
		for _, d := range dependents {
			inDegree[d]++
		}
	}

	var queue []string
	for _, n := range g.nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	sorted := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sorted = append(sorted, n)
		for _, d := range g.edges[n] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(sorted) != len(g.nodes) {
		var remaining []string
		for _, n := range g.nodes {
			if inDegree[n] > 0 {
				remaining = append(remaining, n)
			}
		}
		return nil, &CycleError{Aliases: remaining}
	}
	return sorted, nil
}
