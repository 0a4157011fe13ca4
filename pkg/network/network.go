package network

import (
	"slices"

	"github.com/dd0wney/cluso-anatomy/pkg/algorithms"
)

// Network is a finalized anatomical network. It has no mutable state and is
// safe for concurrent reads. Every query returns a copy.
type Network struct {
	topology     Topology
	nodes        []Node
	index        map[string]NodeID
	byKind       map[Kind][]NodeID
	start        []NodeID
	terminal     []NodeID
	preJunction  []NodeID
	postJunction []NodeID
	order        []NodeID
	regions      map[Region][]NodeID
	regionNames  []Region
	maxDepth     map[string]int
	maxCycle     int
	stats        Stats
}

// Type returns the network type name, e.g. "circulation".
func (n *Network) Type() string {
	return n.topology.Name
}

// Topology returns the network type this network was built for.
func (n *Network) Topology() Topology {
	t := n.topology
	t.Subsystems = slices.Clone(t.Subsystems)
	return t
}

// Len returns the number of nodes.
func (n *Network) Len() int {
	return len(n.nodes)
}

func (n *Network) Stats() Stats {
	return n.stats
}

func (n *Network) node(op string, id NodeID) (*Node, error) {
	if int(id) >= len(n.nodes) {
		return nil, unknownNodeError(op, id)
	}
	return &n.nodes[id], nil
}

// Lookup resolves a declared name to its NodeID.
func (n *Network) Lookup(name string) (NodeID, error) {
	id, ok := n.index[name]
	if !ok {
		return 0, NewError("Lookup").Node(name).Cause(ErrUnknownNode).Err()
	}
	return id, nil
}

// Name returns the declared name of a node.
func (n *Network) Name(id NodeID) (string, error) {
	node, err := n.node("Name", id)
	if err != nil {
		return "", err
	}
	return node.Name, nil
}

// Names maps ids to declared names. Unknown ids are skipped.
func (n *Network) Names(ids []NodeID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if int(id) < len(n.nodes) {
			names = append(names, n.nodes[id].Name)
		}
	}
	return names
}

// Node returns a copy of the node record.
func (n *Network) Node(id NodeID) (Node, error) {
	node, err := n.node("Node", id)
	if err != nil {
		return Node{}, err
	}
	return node.clone(), nil
}

// Upstream returns the nodes flow or signal arrives from.
func (n *Network) Upstream(id NodeID) ([]NodeID, error) {
	node, err := n.node("Upstream", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(node.Upstream), nil
}

// Downstream returns the nodes flow or signal proceeds to.
func (n *Network) Downstream(id NodeID) ([]NodeID, error) {
	node, err := n.node("Downstream", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(node.Downstream), nil
}

// FanOut counts outgoing edges, parallel bridges included. A propagation
// engine uses it to split or replicate a quantity across the edges.
func (n *Network) FanOut(id NodeID) (int, error) {
	node, err := n.node("FanOut", id)
	if err != nil {
		return 0, err
	}
	return len(node.Downstream), nil
}

// FanIn counts incoming edges.
func (n *Network) FanIn(id NodeID) (int, error) {
	node, err := n.node("FanIn", id)
	if err != nil {
		return 0, err
	}
	return len(node.Upstream), nil
}

// Regions returns the region tags a node occupies.
func (n *Network) Regions(id NodeID) ([]Region, error) {
	node, err := n.node("Regions", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(node.Regions), nil
}

// NodesInRegion returns every node occupying region, in id order.
func (n *Network) NodesInRegion(region Region) ([]NodeID, error) {
	ids, ok := n.regions[region]
	if !ok {
		return nil, NewError("NodesInRegion").Detail("region %s", region).Cause(ErrUnknownRegion).Err()
	}
	return slices.Clone(ids), nil
}

// RegionNames lists every occupied region, sorted.
func (n *Network) RegionNames() []Region {
	return slices.Clone(n.regionNames)
}

// StartNodes returns the nodes with no upstream: the roots not fed by a bridge.
func (n *Network) StartNodes() []NodeID {
	return slices.Clone(n.start)
}

// TerminalNodes returns the nodes with no downstream.
func (n *Network) TerminalNodes() []NodeID {
	return slices.Clone(n.terminal)
}

// PreJunctionNodes returns the nodes with outgoing bridges.
func (n *Network) PreJunctionNodes() []NodeID {
	return slices.Clone(n.preJunction)
}

// PostJunctionNodes returns the nodes receiving bridges.
func (n *Network) PostJunctionNodes() []NodeID {
	return slices.Clone(n.postJunction)
}

// OfKind returns every node of the given kind, or nil for an unused kind.
func (n *Network) OfKind(kind Kind) []NodeID {
	return slices.Clone(n.byKind[kind])
}

// TopologicalOrder returns all nodes ordered so that every edge points
// forward. Propagation engines walk it once per tick.
func (n *Network) TopologicalOrder() []NodeID {
	return slices.Clone(n.order)
}

// MaxDepth returns the deepest node depth of a subsystem.
func (n *Network) MaxDepth(subsystem string) (int, error) {
	d, ok := n.maxDepth[subsystem]
	if !ok {
		return 0, NewError("MaxDepth").Subsystem(subsystem).Cause(ErrUnknownSubsystem).Err()
	}
	return d, nil
}

// MaxCycle returns the worst-case edge count of one full circuit.
func (n *Network) MaxCycle() int {
	return n.maxCycle
}

// Subsystems lists the subsystem names in build order.
func (n *Network) Subsystems() []string {
	names := make([]string, len(n.topology.Subsystems))
	for i, def := range n.topology.Subsystems {
		names[i] = def.Name
	}
	return names
}

// ValidatePath checks that path is non-empty and every hop follows a
// downstream edge.
func (n *Network) ValidatePath(path []NodeID) error {
	if len(path) == 0 {
		return NewError("ValidatePath").Detail("empty path").Cause(ErrInvalidPath).Err()
	}
	for _, id := range path {
		if _, err := n.node("ValidatePath", id); err != nil {
			return err
		}
	}
	for i, id := range path[:len(path)-1] {
		node := &n.nodes[id]
		if !slices.Contains(node.Downstream, path[i+1]) {
			return NewError("ValidatePath").Node(node.Name).Target(n.nameOf(path[i+1])).
				Detail("hop %d", i).Cause(ErrInvalidPath).Err()
		}
	}
	return nil
}

// Neighbourhood returns the nodes within hops edges of id, nearest first.
func (n *Network) Neighbourhood(id NodeID, hops int, dir algorithms.NeighborDirection) ([]NodeID, error) {
	if _, err := n.node("Neighbourhood", id); err != nil {
		return nil, err
	}
	// no shortest path is longer than the node count
	if hops > len(n.nodes) {
		hops = len(n.nodes)
	}
	result, err := algorithms.KHopNeighbours[NodeID](graphView{n}, id, algorithms.KHopOptions{
		MaxHops:   hops,
		Direction: dir,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]NodeID, 0, result.TotalReachable)
	for hop := 1; hop <= len(result.ByHop); hop++ {
		ids = append(ids, result.ByHop[hop]...)
	}
	return ids, nil
}

func (n *Network) nameOf(id NodeID) string {
	if int(id) < len(n.nodes) {
		return n.nodes[id].Name
	}
	return ""
}

// graphView exposes the network to pkg/algorithms without copying.
type graphView struct {
	n *Network
}

func (g graphView) Order() int                     { return len(g.n.nodes) }
func (g graphView) Successors(v NodeID) []NodeID   { return g.n.nodes[v].Downstream }
func (g graphView) Predecessors(v NodeID) []NodeID { return g.n.nodes[v].Upstream }
