package network

// NodeID is the interned identity of a node within one Network. IDs are dense,
// start at zero and follow declaration order.
type NodeID uint32

// Kind classifies a node. The set of kinds is fixed by the Topology.
type Kind string

// Region is an anatomical region tag such as "Torso" or "LeftLeg".
type Region string

// Node is one vessel or nerve segment.
type Node struct {
	ID         NodeID
	Name       string
	Kind       Kind
	Subsystem  string
	Regions    []Region
	Upstream   []NodeID // declared parent plus incoming bridges
	Downstream []NodeID // declared children plus outgoing bridges
	Depth      int      // distance from the root of its own subsystem
}

func (n Node) clone() Node {
	n.Regions = append([]Region(nil), n.Regions...)
	n.Upstream = append([]NodeID(nil), n.Upstream...)
	n.Downstream = append([]NodeID(nil), n.Downstream...)
	return n
}

// Declaration is one entry of a subsystem forest as written in a template.
type Declaration struct {
	ID      string        `json:"id" yaml:"id" validate:"required"`
	Regions []string      `json:"regions" yaml:"regions" validate:"required,min=1,dive,required"`
	Links   []Declaration `json:"links,omitempty" yaml:"links,omitempty" validate:"dive"`
	Bridges []string      `json:"bridges,omitempty" yaml:"bridges,omitempty" validate:"dive,required"`
}

// Count returns the number of declarations in this subtree.
func (d Declaration) Count() int {
	n := 1
	for _, child := range d.Links {
		n += child.Count()
	}
	return n
}

// Spec is the parsed input for one network: subsystem name to root declarations.
type Spec struct {
	Subsystems map[string][]Declaration
}

// Stats summarises a built network.
type Stats struct {
	Nodes   int
	Edges   int // tree edges plus bridges
	Bridges int
	Regions int
}
