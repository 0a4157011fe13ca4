package algorithms

// Vertex is a dense vertex index. Vertices of a graph are 0..Order()-1.
type Vertex interface {
	~int | ~uint32 | ~uint64
}

// Graph is a directed graph over dense vertex indices.
type Graph[V Vertex] interface {
	Order() int
	Successors(v V) []V
	Predecessors(v V) []V
}

// NeighborDirection selects which edges a traversal follows
type NeighborDirection int

const (
	DirectionOut NeighborDirection = iota
	DirectionIn
	DirectionBoth
)

// Adjacency is a Graph backed by successor and predecessor lists.
type Adjacency[V Vertex] struct {
	out [][]V
	in  [][]V
}

// NewAdjacency creates an empty graph with n vertices
func NewAdjacency[V Vertex](n int) *Adjacency[V] {
	return &Adjacency[V]{
		out: make([][]V, n),
		in:  make([][]V, n),
	}
}

// AddEdge adds a directed edge. Parallel edges are kept.
func (a *Adjacency[V]) AddEdge(from, to V) {
	a.out[from] = append(a.out[from], to)
	a.in[to] = append(a.in[to], from)
}

func (a *Adjacency[V]) Order() int { return len(a.out) }

func (a *Adjacency[V]) Successors(v V) []V { return a.out[v] }

func (a *Adjacency[V]) Predecessors(v V) []V { return a.in[v] }

func neighbors[V Vertex](g Graph[V], v V, dir NeighborDirection) []V {
	switch dir {
	case DirectionIn:
		return g.Predecessors(v)
	case DirectionBoth:
		out := g.Successors(v)
		in := g.Predecessors(v)
		all := make([]V, 0, len(out)+len(in))
		all = append(all, out...)
		return append(all, in...)
	default:
		return g.Successors(v)
	}
}
