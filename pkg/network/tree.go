package network

import (
	"math"
)

// arena holds the nodes of a network under construction. NodeIDs index
// directly into nodes.
type arena struct {
	nodes    []Node
	index    map[string]NodeID
	bridges  []pendingBridge
	maxDepth map[string]int
}

// pendingBridge is a bridge recorded during tree building and wired by
// resolveBridges once every subsystem exists.
type pendingBridge struct {
	source NodeID
	target string
}

func newArena() *arena {
	return &arena{
		index:    make(map[string]NodeID),
		maxDepth: make(map[string]int),
	}
}

// treeBuilder walks one subsystem's declared forest.
type treeBuilder struct {
	arena *arena
	def   SubsystemDef
	// names on the current recursion path
	path map[string]bool
}

// buildTree adds one node per declaration of the subsystem. Upstream is the
// declared parent, Downstream the declared children, and roots sit at depth 0.
func (a *arena) buildTree(def SubsystemDef, roots []Declaration) error {
	if len(roots) == 0 {
		return NewError("AddSubsystem").Subsystem(def.Name).Detail("no root declarations").Cause(ErrMalformedSpec).Err()
	}

	tb := &treeBuilder{
		arena: a,
		def:   def,
		path:  make(map[string]bool),
	}
	a.maxDepth[def.Name] = 0

	for _, root := range roots {
		if _, err := tb.declare(root, nil, 0); err != nil {
			return err
		}
	}
	return nil
}

func (tb *treeBuilder) declare(decl Declaration, parent *NodeID, depth int) (NodeID, error) {
	if err := tb.checkShape(decl); err != nil {
		return 0, err
	}

	// An ancestor is also already indexed, so this must run before the
	// duplicate check to report the more specific error.
	if tb.path[decl.ID] {
		return 0, tb.fail(decl.ID, ErrCycleDetected).Detail("name repeats an ancestor").Err()
	}
	if prev, dup := tb.arena.index[decl.ID]; dup {
		return 0, tb.fail(decl.ID, ErrDuplicateIdentity).
			Detail("already declared in %s", tb.arena.nodes[prev].Subsystem).Err()
	}
	if uint64(len(tb.arena.nodes)) >= math.MaxUint32 {
		return 0, tb.fail(decl.ID, ErrMalformedSpec).Detail("too many nodes").Err()
	}

	id := NodeID(len(tb.arena.nodes))
	node := Node{
		ID:        id,
		Name:      decl.ID,
		Kind:      tb.def.Kind,
		Subsystem: tb.def.Name,
		Regions:   uniqueRegions(decl.Regions),
		Depth:     depth,
	}
	if parent != nil {
		node.Upstream = []NodeID{*parent}
	}
	tb.arena.nodes = append(tb.arena.nodes, node)
	tb.arena.index[decl.ID] = id

	if depth > tb.arena.maxDepth[tb.def.Name] {
		tb.arena.maxDepth[tb.def.Name] = depth
	}

	for _, target := range decl.Bridges {
		tb.arena.bridges = append(tb.arena.bridges, pendingBridge{source: id, target: target})
	}

	tb.path[decl.ID] = true
	for _, child := range decl.Links {
		childID, err := tb.declare(child, &id, depth+1)
		if err != nil {
			return 0, err
		}
		tb.arena.nodes[id].Downstream = append(tb.arena.nodes[id].Downstream, childID)
	}
	delete(tb.path, decl.ID)

	return id, nil
}

func (tb *treeBuilder) checkShape(decl Declaration) error {
	if decl.ID == "" {
		return tb.fail("", ErrMalformedSpec).Detail("declaration without id").Err()
	}
	if len(decl.Regions) == 0 {
		return tb.fail(decl.ID, ErrMalformedSpec).Detail("no regions").Err()
	}
	for _, r := range decl.Regions {
		if r == "" {
			return tb.fail(decl.ID, ErrMalformedSpec).Detail("empty region tag").Err()
		}
	}
	if len(decl.Bridges) > 0 && tb.def.BridgeTo == "" {
		return tb.fail(decl.ID, ErrMalformedSpec).Detail("subsystem does not bridge").Err()
	}
	for _, b := range decl.Bridges {
		if b == "" {
			return tb.fail(decl.ID, ErrMalformedSpec).Detail("empty bridge id").Err()
		}
	}
	return nil
}

func (tb *treeBuilder) fail(name string, cause error) *ErrorBuilder {
	return NewError("AddSubsystem").Subsystem(tb.def.Name).Node(name).Cause(cause)
}
