package algorithms

import (
	"testing"
)

func TestKHop_Isolated(t *testing.T) {
	g := NewAdjacency[int](1)

	result, err := KHopNeighbours[int](g, 0, DefaultKHopOptions())
	if err != nil {
		t.Fatalf("KHopNeighbours failed: %v", err)
	}
	if result.TotalReachable != 0 {
		t.Errorf("Expected 0 reachable, got %d", result.TotalReachable)
	}
}

func TestKHop_LinearChain(t *testing.T) {
	// 0 -> 1 -> 2 -> 3
	g := buildGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}})

	result, err := KHopNeighbours[int](g, 0, KHopOptions{MaxHops: 2, Direction: DirectionOut})
	if err != nil {
		t.Fatalf("KHopNeighbours failed: %v", err)
	}
	if result.TotalReachable != 2 {
		t.Errorf("Expected 2 reachable, got %d", result.TotalReachable)
	}
	if result.Distances[2] != 2 {
		t.Errorf("Expected vertex 2 at hop 2, got %d", result.Distances[2])
	}
	if _, ok := result.Distances[3]; ok {
		t.Error("Vertex 3 is beyond MaxHops")
	}
}

func TestKHop_Directions(t *testing.T) {
	// 0 -> 1 -> 2
	g := buildGraph(3, [][2]int{{0, 1}, {1, 2}})

	in, err := KHopNeighbours[int](g, 2, KHopOptions{MaxHops: 5, Direction: DirectionIn})
	if err != nil {
		t.Fatalf("KHopNeighbours failed: %v", err)
	}
	if in.TotalReachable != 2 || in.Distances[0] != 2 {
		t.Errorf("Unexpected upstream neighbourhood: %+v", in)
	}

	both, err := KHopNeighbours[int](g, 1, KHopOptions{MaxHops: 1, Direction: DirectionBoth})
	if err != nil {
		t.Fatalf("KHopNeighbours failed: %v", err)
	}
	if len(both.ByHop[1]) != 2 {
		t.Errorf("Expected 2 neighbours at hop 1, got %v", both.ByHop[1])
	}
}

func TestKHop_MaxResults(t *testing.T) {
	g := buildGraph(4, [][2]int{{0, 1}, {0, 2}, {0, 3}})

	result, err := KHopNeighbours[int](g, 0, KHopOptions{MaxHops: 1, MaxResults: 2})
	if err != nil {
		t.Fatalf("KHopNeighbours failed: %v", err)
	}
	if result.TotalReachable != 2 {
		t.Errorf("Expected 2 results, got %d", result.TotalReachable)
	}
}

func TestKHop_InvalidOptions(t *testing.T) {
	g := NewAdjacency[int](1)
	if _, err := KHopNeighbours[int](g, 0, KHopOptions{MaxHops: 0}); err == nil {
		t.Error("Expected error for MaxHops 0")
	}
	if _, err := KHopNeighbours[int](g, 5, DefaultKHopOptions()); err == nil {
		t.Error("Expected error for out of range source")
	}
}

func TestReachable(t *testing.T) {
	// 0 -> 1, 2 -> 3, 4 isolated
	g := buildGraph(5, [][2]int{{0, 1}, {2, 3}})

	seen := Reachable[int](g, []int{0, 2})
	want := []bool{true, true, true, true, false}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Reachable[%d] = %v, want %v", i, seen[i], want[i])
		}
	}

	missing := Unreached[int](g, []int{0})
	if len(missing) != 3 || missing[0] != 2 || missing[2] != 4 {
		t.Errorf("Unreached = %v, want [2 3 4]", missing)
	}
}
