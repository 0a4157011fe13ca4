package algorithms

import (
	"errors"
)

// ErrNotDAG is returned when an ordering is requested for a cyclic graph
var ErrNotDAG = errors.New("graph contains cycles")

// IsDAG checks if the graph is a Directed Acyclic Graph
func IsDAG[V Vertex](g Graph[V]) bool {
	return !HasCycle(g)
}

// TopologicalSort returns vertices in topological order using Kahn's algorithm.
// For every edge u->v, u comes before v. Ties are broken by vertex index, so
// the order is deterministic for a given graph.
func TopologicalSort[V Vertex](g Graph[V]) ([]V, error) {
	n := g.Order()
	inDegree := make([]int, n)
	for v := 0; v < n; v++ {
		for _, w := range g.Successors(V(v)) {
			inDegree[w]++
		}
	}

	queue := make([]V, 0)
	for v := 0; v < n; v++ {
		if inDegree[v] == 0 {
			queue = append(queue, V(v))
		}
	}

	sorted := make([]V, 0, n)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, w := range g.Successors(current) {
			inDegree[w]--
			if inDegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if len(sorted) != n {
		return nil, ErrNotDAG
	}
	return sorted, nil
}
