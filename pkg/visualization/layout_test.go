package visualization

import (
	"encoding/json"
	"testing"

	"github.com/dd0wney/cluso-anatomy/pkg/circulation"
	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

func decl(id, region string, bridges []string, links ...network.Declaration) network.Declaration {
	return network.Declaration{ID: id, Regions: []string{region}, Bridges: bridges, Links: links}
}

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	c, err := circulation.Build(network.Spec{Subsystems: map[string][]network.Declaration{
		circulation.Arterial: {
			decl("Aorta", "Torso", nil,
				decl("LeftArm", "LeftArm", []string{"LeftArmVein"}),
				decl("RightArm", "RightArm", []string{"RightArmVein"}),
			),
		},
		circulation.Venous: {
			decl("LeftArmVein", "LeftArm", nil, decl("VenaCava", "Torso", nil)),
			decl("RightArmVein", "RightArm", nil),
		},
	}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return c.Network
}

func checkBounds(t *testing.T, net *network.Network, positions map[network.NodeID]Position, width, height float64) {
	t.Helper()
	if len(positions) != net.Len() {
		t.Errorf("Expected %d positions, got %d", net.Len(), len(positions))
	}
	for id, pos := range positions {
		if pos.X < 0 || pos.X > width || pos.Y < 0 || pos.Y > height {
			t.Errorf("Node %d position (%f, %f) out of bounds", id, pos.X, pos.Y)
		}
	}
}

func TestLevels(t *testing.T) {
	net := testNetwork(t)
	levels := Levels(net)

	want := [][]string{
		{"Aorta"},
		{"LeftArm", "RightArm"},
		{"LeftArmVein", "RightArmVein"},
		{"VenaCava"},
	}
	if len(levels) != len(want) {
		t.Fatalf("Expected %d levels, got %d", len(want), len(levels))
	}
	for i, level := range levels {
		names := map[string]bool{}
		for _, name := range net.Names(level) {
			names[name] = true
		}
		for _, name := range want[i] {
			if !names[name] {
				t.Errorf("Level %d missing %s: %v", i, name, net.Names(level))
			}
		}
	}
}

func TestHierarchicalLayout(t *testing.T) {
	net := testNetwork(t)
	layout := NewHierarchicalLayout(&LayoutConfig{Width: 800, Height: 600})

	positions, err := layout.ComputeLayout(net)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	checkBounds(t, net, positions, 800, 600)

	aorta, _ := net.Lookup("Aorta")
	arm, _ := net.Lookup("LeftArm")
	cava, _ := net.Lookup("VenaCava")
	if !(positions[aorta].Y < positions[arm].Y && positions[arm].Y < positions[cava].Y) {
		t.Errorf("Expected downstream rows below upstream: %v %v %v", positions[aorta], positions[arm], positions[cava])
	}
	if positions[aorta].X != 400 {
		t.Errorf("Single root should be centred, got X=%f", positions[aorta].X)
	}
}

func TestCircularLayout(t *testing.T) {
	net := testNetwork(t)
	positions, err := NewCircularLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(net)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	checkBounds(t, net, positions, 800, 600)
}

func TestForceDirectedLayoutDeterministic(t *testing.T) {
	net := testNetwork(t)

	first, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 7}).ComputeLayout(net)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	checkBounds(t, net, first, 800, 600)

	second, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 7}).ComputeLayout(net)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	for id, pos := range first {
		if second[id] != pos {
			t.Errorf("Node %d moved between runs with the same seed", id)
		}
	}
}

func TestNewLayout(t *testing.T) {
	for _, name := range []string{LayoutHierarchical, LayoutCircular, LayoutForce, ""} {
		if _, err := NewLayout(name, nil); err != nil {
			t.Errorf("NewLayout(%q) error = %v", name, err)
		}
	}
	if _, err := NewLayout("spiral", nil); err == nil {
		t.Error("Expected error for unknown layout")
	}
}

func TestExportJSON(t *testing.T) {
	net := testNetwork(t)
	layout, _ := NewLayout(LayoutHierarchical, nil)
	viz, err := New(net, layout)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	data, err := viz.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	var out vizData
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Type != circulation.TypeName || len(out.Nodes) != 6 {
		t.Errorf("Unexpected export: type=%s nodes=%d", out.Type, len(out.Nodes))
	}

	bridges := 0
	for _, e := range out.Edges {
		if e.Bridge {
			bridges++
		}
	}
	if len(out.Edges) != 5 || bridges != 2 {
		t.Errorf("Expected 5 edges with 2 bridges, got %d edges, %d bridges", len(out.Edges), bridges)
	}
}
