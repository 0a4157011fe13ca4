package algorithms

// Cycle is a closed walk, listed from the vertex the back edge points to.
type Cycle[V Vertex] []V

// FindCycle returns the first cycle found by a depth-first search that starts
// from every unvisited vertex in index order.
//
// Algorithm: three-colour marking
//   - WHITE: unvisited
//   - GRAY: on the current DFS path
//   - BLACK: all descendants explored
//
// An edge into a GRAY vertex is a back edge, which closes a cycle.
// The search is iterative so deep vessel trees cannot exhaust the stack.
func FindCycle[V Vertex](g Graph[V]) (Cycle[V], bool) {
	const (
		WHITE = 0
		GRAY  = 1
		BLACK = 2
	)

	n := g.Order()
	color := make([]uint8, n)
	parent := make([]int, n)

	type frame struct {
		v    V
		next int
	}

	for root := 0; root < n; root++ {
		if color[root] != WHITE {
			continue
		}

		stack := []frame{{v: V(root)}}
		color[root] = GRAY
		parent[root] = -1

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := g.Successors(top.v)

			if top.next >= len(succ) {
				color[top.v] = BLACK
				stack = stack[:len(stack)-1]
				continue
			}

			w := succ[top.next]
			top.next++

			switch color[w] {
			case WHITE:
				color[w] = GRAY
				parent[w] = int(top.v)
				stack = append(stack, frame{v: w})
			case GRAY:
				return extractCycle(w, top.v, parent), true
			}
			// BLACK: forward or cross edge
		}
	}

	return nil, false
}

// HasCycle reports whether the graph contains a directed cycle
func HasCycle[V Vertex](g Graph[V]) bool {
	_, found := FindCycle(g)
	return found
}

// extractCycle walks parent pointers back from end to start
func extractCycle[V Vertex](start, end V, parent []int) Cycle[V] {
	cycle := Cycle[V]{start}
	if start == end {
		return cycle
	}

	path := make([]V, 0)
	for current := int(end); current != int(start) && current >= 0; current = parent[current] {
		path = append(path, V(current))
	}
	for i := len(path) - 1; i >= 0; i-- {
		cycle = append(cycle, path[i])
	}
	return cycle
}
