package algorithms

import (
	"testing"
)

func buildGraph(n int, edges [][2]int) *Adjacency[int] {
	g := NewAdjacency[int](n)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// TestFindCycle_NoCycles tests a linear path
func TestFindCycle_NoCycles(t *testing.T) {
	// A -> B -> C
	g := buildGraph(3, [][2]int{{0, 1}, {1, 2}})

	if cycle, found := FindCycle[int](g); found {
		t.Errorf("Expected no cycle, got %v", cycle)
	}
	if !IsDAG[int](g) {
		t.Error("Linear chain should be a DAG")
	}
}

// TestFindCycle_SimpleCycle tests a 2-vertex cycle
func TestFindCycle_SimpleCycle(t *testing.T) {
	// A -> B -> A
	g := buildGraph(2, [][2]int{{0, 1}, {1, 0}})

	cycle, found := FindCycle[int](g)
	if !found {
		t.Fatal("Expected a cycle")
	}
	if len(cycle) != 2 || cycle[0] != 0 || cycle[1] != 1 {
		t.Errorf("Expected cycle [0 1], got %v", cycle)
	}
}

// TestFindCycle_SelfLoop tests a self-referencing vertex
func TestFindCycle_SelfLoop(t *testing.T) {
	g := buildGraph(2, [][2]int{{0, 1}, {1, 1}})

	cycle, found := FindCycle[int](g)
	if !found {
		t.Fatal("Expected a self loop")
	}
	if len(cycle) != 1 || cycle[0] != 1 {
		t.Errorf("Expected cycle [1], got %v", cycle)
	}
}

// TestFindCycle_Diamond tests that a cross edge is not a cycle
func TestFindCycle_Diamond(t *testing.T) {
	//   0
	//  / \
	// 1   2
	//  \ /
	//   3
	g := buildGraph(4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})

	if HasCycle[int](g) {
		t.Error("Diamond should not contain a cycle")
	}
}

// TestFindCycle_LongCycle tests cycle reconstruction order
func TestFindCycle_LongCycle(t *testing.T) {
	// 0 -> 1 -> 2 -> 3 -> 1
	g := buildGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 1}})

	cycle, found := FindCycle[int](g)
	if !found {
		t.Fatal("Expected a cycle")
	}
	want := []int{1, 2, 3}
	if len(cycle) != len(want) {
		t.Fatalf("Expected cycle %v, got %v", want, cycle)
	}
	for i := range want {
		if cycle[i] != want[i] {
			t.Errorf("cycle[%d] = %d, want %d", i, cycle[i], want[i])
		}
	}
}

// TestFindCycle_DeepChain checks the iterative search on a long chain
func TestFindCycle_DeepChain(t *testing.T) {
	const n = 100000
	g := NewAdjacency[uint32](n)
	for i := uint32(0); i+1 < n; i++ {
		g.AddEdge(i, i+1)
	}

	if HasCycle[uint32](g) {
		t.Error("Chain should not contain a cycle")
	}
}
