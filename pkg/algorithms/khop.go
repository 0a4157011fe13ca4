package algorithms

import (
	"fmt"
)

// KHopOptions configures the k-hop neighbourhood traversal.
type KHopOptions struct {
	MaxHops    int // must be >= 1
	Direction  NeighborDirection
	MaxResults int // 0 = unlimited; BFS order gives closer vertices priority
}

// KHopResult holds the BFS neighbourhood of a source vertex.
type KHopResult[V Vertex] struct {
	Source         V
	ByHop          map[int][]V // hop distance → vertices at that distance
	Distances      map[V]int   // vertex → shortest hop count
	TotalReachable int
}

// DefaultKHopOptions returns sensible defaults.
func DefaultKHopOptions() KHopOptions {
	return KHopOptions{
		MaxHops:   2,
		Direction: DirectionOut,
	}
}

type bfsEntry[V Vertex] struct {
	v   V
	hop int
}

// KHopNeighbours performs a BFS from source up to MaxHops levels,
// returning all discovered vertices grouped by distance.
// The source is never included in results.
func KHopNeighbours[V Vertex](g Graph[V], source V, opts KHopOptions) (*KHopResult[V], error) {
	if opts.MaxHops < 1 {
		return nil, fmt.Errorf("MaxHops must be >= 1, got %d", opts.MaxHops)
	}
	if int(source) >= g.Order() {
		return nil, fmt.Errorf("vertex %d out of range [0,%d)", source, g.Order())
	}

	result := &KHopResult[V]{
		Source:    source,
		ByHop:     make(map[int][]V),
		Distances: make(map[V]int),
	}
	visited := make([]bool, g.Order())
	visited[source] = true

	queue := []bfsEntry[V]{{v: source}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.hop >= opts.MaxHops {
			continue
		}
		nextHop := current.hop + 1

		for _, w := range neighbors(g, current.v, opts.Direction) {
			if visited[w] {
				continue
			}
			visited[w] = true
			result.Distances[w] = nextHop
			result.ByHop[nextHop] = append(result.ByHop[nextHop], w)
			result.TotalReachable++

			if opts.MaxResults > 0 && result.TotalReachable >= opts.MaxResults {
				return result, nil
			}
			queue = append(queue, bfsEntry[V]{v: w, hop: nextHop})
		}
	}

	return result, nil
}

// Reachable runs a multi-source BFS along outgoing edges and reports, per
// vertex, whether any source reaches it.
func Reachable[V Vertex](g Graph[V], sources []V) []bool {
	seen := make([]bool, g.Order())
	queue := make([]V, 0, len(sources))
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, w := range g.Successors(current) {
			if !seen[w] {
				seen[w] = true
				queue = append(queue, w)
			}
		}
	}
	return seen
}

// Unreached lists the vertices Reachable did not visit, in index order
func Unreached[V Vertex](g Graph[V], sources []V) []V {
	var missing []V
	for v, ok := range Reachable(g, sources) {
		if !ok {
			missing = append(missing, V(v))
		}
	}
	return missing
}
