package network

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-anatomy/pkg/algorithms"
)

func TestNetworkUnknownNode(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())
	bogus := NodeID(n.Len() + 10)

	if _, err := n.Upstream(bogus); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Upstream: expected ErrUnknownNode, got %v", err)
	}
	if _, err := n.Downstream(bogus); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Downstream: expected ErrUnknownNode, got %v", err)
	}
	if _, err := n.Regions(bogus); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Regions: expected ErrUnknownNode, got %v", err)
	}
	if _, err := n.Node(bogus); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Node: expected ErrUnknownNode, got %v", err)
	}
	if _, err := n.Lookup("Femoral"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Lookup: expected ErrUnknownNode, got %v", err)
	}
	if !IsQueryError(unknownNodeError("x", bogus)) {
		t.Error("unknown node should be a query error")
	}
}

func TestNetworkRegions(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	ids, err := n.NodesInRegion("Torso")
	if err != nil {
		t.Fatalf("NodesInRegion failed: %v", err)
	}
	if got := names(t, n, ids); !equalStrings(got, []string{"A", "B", "C", "V1"}) {
		t.Errorf("NodesInRegion(Torso) = %v", got)
	}

	regions, _ := n.Regions(mustLookup(t, n, "C"))
	if len(regions) != 2 || regions[0] != "Torso" || regions[1] != "LeftArm" {
		t.Errorf("Regions(C) = %v", regions)
	}

	if _, err := n.NodesInRegion("Tail"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Expected ErrUnknownRegion, got %v", err)
	}

	all := n.RegionNames()
	want := []Region{"Head", "LeftArm", "Torso"}
	if len(all) != len(want) {
		t.Fatalf("RegionNames = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("RegionNames[%d] = %s, want %s", i, all[i], want[i])
		}
	}
}

func TestDuplicateRegionTagsCollapse(t *testing.T) {
	spec := Spec{Subsystems: map[string][]Declaration{
		"nerve": {decl("Spine", []string{"Torso", "Torso", "Head"})},
	}}
	n := mustBuild(t, testNervous, spec)

	regions, _ := n.Regions(0)
	if len(regions) != 2 {
		t.Errorf("Regions = %v, want [Torso Head]", regions)
	}
	ids, _ := n.NodesInRegion("Torso")
	if len(ids) != 1 {
		t.Errorf("NodesInRegion(Torso) = %v, want one node", ids)
	}
}

func TestNetworkQueriesReturnCopies(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())
	c := mustLookup(t, n, "C")

	down, _ := n.Downstream(c)
	down[0] = 999
	again, _ := n.Downstream(c)
	if again[0] == 999 {
		t.Error("Downstream exposed internal state")
	}

	node, _ := n.Node(c)
	node.Regions[0] = "Mutated"
	regions, _ := n.Regions(c)
	if regions[0] == "Mutated" {
		t.Error("Node exposed internal regions")
	}

	start := n.StartNodes()
	start[0] = 42
	if n.StartNodes()[0] == 42 {
		t.Error("StartNodes exposed internal state")
	}
}

func TestNetworkOfKind(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	if got := names(t, n, n.OfKind("Artery")); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("OfKind(Artery) = %v", got)
	}
	if got := names(t, n, n.OfKind("Vein")); !equalStrings(got, []string{"V1", "V2"}) {
		t.Errorf("OfKind(Vein) = %v", got)
	}
	if got := n.OfKind("Nerve"); len(got) != 0 {
		t.Errorf("OfKind(Nerve) = %v, want empty", got)
	}
}

func TestNetworkNodeRecord(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	node, err := n.Node(mustLookup(t, n, "V2"))
	if err != nil {
		t.Fatalf("Node failed: %v", err)
	}
	if node.Kind != "Vein" || node.Subsystem != "venous" || node.Depth != 1 {
		t.Errorf("Unexpected node: %+v", node)
	}
	if name, _ := n.Name(node.ID); name != "V2" {
		t.Errorf("Name = %s, want V2", name)
	}
}

func TestNetworkMaxDepthUnknownSubsystem(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())
	if _, err := n.MaxDepth("lymphatic"); !errors.Is(err, ErrUnknownSubsystem) {
		t.Errorf("Expected ErrUnknownSubsystem, got %v", err)
	}
	if subs := n.Subsystems(); !equalStrings(subs, []string{"arterial", "venous"}) {
		t.Errorf("Subsystems = %v", subs)
	}
}

func TestTerminalNodes(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	// C bridges onward, so only the venous end terminates
	if got := names(t, n, n.TerminalNodes()); !equalStrings(got, []string{"V2"}) {
		t.Errorf("TerminalNodes = %v, want [V2]", got)
	}
}

func TestValidatePath(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())
	id := func(name string) NodeID { return mustLookup(t, n, name) }

	if err := n.ValidatePath([]NodeID{id("A"), id("B"), id("C"), id("V1"), id("V2")}); err != nil {
		t.Errorf("Full circuit should be valid: %v", err)
	}
	if err := n.ValidatePath([]NodeID{id("B")}); err != nil {
		t.Errorf("Single node path should be valid: %v", err)
	}
	if err := n.ValidatePath(nil); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Empty path: expected ErrInvalidPath, got %v", err)
	}
	if err := n.ValidatePath([]NodeID{id("A"), id("C")}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Skipped hop: expected ErrInvalidPath, got %v", err)
	}
	if err := n.ValidatePath([]NodeID{id("V1"), id("C")}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Reversed hop: expected ErrInvalidPath, got %v", err)
	}
	if err := n.ValidatePath([]NodeID{id("A"), 77}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Unknown hop: expected ErrUnknownNode, got %v", err)
	}
}

func TestTopologicalOrder(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	order := n.TopologicalOrder()
	if len(order) != n.Len() {
		t.Fatalf("order has %d nodes, want %d", len(order), n.Len())
	}
	position := make(map[NodeID]int)
	for i, id := range order {
		position[id] = i
	}
	for id := NodeID(0); int(id) < n.Len(); id++ {
		down, _ := n.Downstream(id)
		for _, next := range down {
			if position[id] >= position[next] {
				t.Errorf("edge %d->%d is not forward in %v", id, next, order)
			}
		}
	}
}

func TestNeighbourhood(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	ids, err := n.Neighbourhood(mustLookup(t, n, "B"), 2, algorithms.DirectionOut)
	if err != nil {
		t.Fatalf("Neighbourhood failed: %v", err)
	}
	if got := names(t, n, ids); !equalStrings(got, []string{"C", "V1"}) {
		t.Errorf("Neighbourhood(B, 2) = %v, want [C V1]", got)
	}

	ids, _ = n.Neighbourhood(mustLookup(t, n, "V1"), 1, algorithms.DirectionIn)
	if got := names(t, n, ids); !equalStrings(got, []string{"C"}) {
		t.Errorf("upstream Neighbourhood(V1, 1) = %v, want [C]", got)
	}

	if _, err := n.Neighbourhood(99, 1, algorithms.DirectionOut); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
}

func TestNeighbourhoodHopsBeyondNetworkSize(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	start := time.Now()
	ids, err := n.Neighbourhood(mustLookup(t, n, "A"), 1<<31-1, algorithms.DirectionOut)
	if err != nil {
		t.Fatalf("Neighbourhood failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Neighbourhood with huge hops took %v", elapsed)
	}
	if got := names(t, n, ids); !equalStrings(got, []string{"B", "C", "V1", "V2"}) {
		t.Errorf("Neighbourhood(A, max) = %v, want [B C V1 V2]", got)
	}
}

func TestNetworkStats(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())
	want := Stats{Nodes: 5, Edges: 4, Bridges: 1, Regions: 3}
	if got := n.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func TestConcurrentReads(t *testing.T) {
	n := mustBuild(t, testCirculation, bridgedChain())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for id := NodeID(0); int(id) < n.Len(); id++ {
					if _, err := n.Downstream(id); err != nil {
						t.Error(err)
						return
					}
				}
				if _, err := n.NodesInRegion("Torso"); err != nil {
					t.Error(err)
					return
				}
				_ = n.MaxCycle()
			}
		}()
	}
	wg.Wait()
}

func TestBuildErrorFormatting(t *testing.T) {
	err := NewError("ResolveBridges").
		Subsystem("arterial").Node("C").Target("V9").
		Detail("target not declared").
		Cause(ErrDanglingBridge).Err()

	want := `ResolveBridges subsystem arterial node "C" -> "V9" (target not declared): dangling bridge`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrDanglingBridge) || errors.Is(err, ErrCycleDetected) {
		t.Error("errors.Is should match only the cause")
	}
	if errors.Unwrap(err) != ErrDanglingBridge {
		t.Error("Unwrap should return the cause")
	}
	if !IsConstructionError(err) || IsQueryError(err) {
		t.Error("dangling bridge is a construction error")
	}
}
