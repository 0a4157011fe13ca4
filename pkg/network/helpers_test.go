package network

import (
	"testing"
)

var testCirculation = Topology{
	Name: "circulation",
	Subsystems: []SubsystemDef{
		{Name: "arterial", Kind: "Artery", BridgeTo: "venous"},
		{Name: "venous", Kind: "Vein"},
	},
}

var testNervous = Topology{
	Name:       "nervous",
	Subsystems: []SubsystemDef{{Name: "nerve", Kind: "Nerve"}},
}

func decl(id string, regions []string, links ...Declaration) Declaration {
	return Declaration{ID: id, Regions: regions, Links: links}
}

func bridged(d Declaration, targets ...string) Declaration {
	d.Bridges = targets
	return d
}

var torso = []string{"Torso"}

// bridgedChain is the chain A->B->C bridged C->V1, venous chain V1->V2.
func bridgedChain() Spec {
	return Spec{Subsystems: map[string][]Declaration{
		"arterial": {decl("A", torso, decl("B", torso, bridged(decl("C", []string{"Torso", "LeftArm"}), "V1")))},
		"venous":   {decl("V1", torso, decl("V2", []string{"Head"}))},
	}}
}

func mustBuild(t *testing.T, topo Topology, spec Spec) *Network {
	t.Helper()
	n, err := Build(topo, spec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return n
}

func mustLookup(t *testing.T, n *Network, name string) NodeID {
	t.Helper()
	id, err := n.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return id
}

// names resolves ids and fails the test on unknown ids
func names(t *testing.T, n *Network, ids []NodeID) []string {
	t.Helper()
	out := n.Names(ids)
	if len(out) != len(ids) {
		t.Fatalf("unknown id in %v", ids)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
