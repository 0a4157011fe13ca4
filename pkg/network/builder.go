package network

import (
	"maps"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-anatomy/pkg/algorithms"
	"github.com/dd0wney/cluso-anatomy/pkg/logging"
)

// State is a Builder's position in the construction sequence.
// Transitions only move forward.
type State int

const (
	StateUnbuilt State = iota
	StateTreeBuilt
	StateBridgesResolved
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateTreeBuilt:
		return "tree-built"
	case StateBridgesResolved:
		return "bridges-resolved"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Builder constructs one Network. It is not safe for concurrent use.
//
// AddSubsystem is called once per topology subsystem, in any order; the
// builder moves to StateTreeBuilt after the last one. ResolveBridges and
// Finalize follow. The first construction error poisons the builder and is
// returned by every later call.
type Builder struct {
	topo   Topology
	state  State
	err    error
	arena  *arena
	added  map[string]bool
	junct  junctions
	logger logging.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the logger used for build progress
func WithLogger(logger logging.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder for the given network type.
func NewBuilder(topo Topology, opts ...Option) (*Builder, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		topo:   topo,
		arena:  newArena(),
		added:  make(map[string]bool, len(topo.Subsystems)),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(logging.NetworkType(topo.Name))
	return b, nil
}

// State returns the current construction state.
func (b *Builder) State() State {
	return b.state
}

// Err returns the error that poisoned the builder, if any.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) guard(op string, want State) error {
	if b.err != nil {
		return b.err
	}
	if b.state == StateFinalized {
		return NewError(op).Cause(ErrImmutableGraph).Err()
	}
	if b.state != want {
		return NewError(op).Detail("state %s, expected %s", b.state, want).Cause(ErrInvalidTransition).Err()
	}
	return nil
}

func (b *Builder) poison(err error) error {
	b.err = err
	b.arena = nil
	return err
}

// AddSubsystem builds the forest of one subsystem.
func (b *Builder) AddSubsystem(name string, roots []Declaration) error {
	if err := b.guard("AddSubsystem", StateUnbuilt); err != nil {
		return err
	}

	def, ok := b.topo.Subsystem(name)
	if !ok {
		return b.poison(NewError("AddSubsystem").Subsystem(name).
			Detail("%s has %s", b.topo.Name, strings.Join(b.subsystemNames(), ", ")).
			Cause(ErrUnknownSubsystem).Err())
	}
	if b.added[name] {
		return b.poison(NewError("AddSubsystem").Subsystem(name).Detail("added twice").Cause(ErrMalformedSpec).Err())
	}

	before := len(b.arena.nodes)
	if err := b.arena.buildTree(def, roots); err != nil {
		return b.poison(err)
	}
	b.added[name] = true

	b.logger.Debug("subsystem built",
		logging.Subsystem(name),
		logging.Count(len(b.arena.nodes)-before),
		logging.Int("max_depth", b.arena.maxDepth[name]))

	if len(b.added) == len(b.topo.Subsystems) {
		b.state = StateTreeBuilt
	}
	return nil
}

// ResolveBridges wires every declared bridge.
func (b *Builder) ResolveBridges() error {
	if err := b.guard("ResolveBridges", StateTreeBuilt); err != nil {
		return err
	}

	if cycle, found := algorithms.FindCycle[NodeID](b.arena.adjacency()); found {
		return b.poison(NewError("ResolveBridges").
			Subsystem(b.arena.nodes[cycle[0]].Subsystem).Node(b.arena.nodes[cycle[0]].Name).
			Detail("tree edges loop through %d nodes", len(cycle)).
			Cause(ErrCycleDetected).Err())
	}

	j, err := b.arena.resolveBridges(b.topo)
	if err != nil {
		return b.poison(err)
	}
	b.junct = j
	b.state = StateBridgesResolved

	b.logger.Debug("bridges resolved", logging.Count(len(b.arena.bridges)))
	return nil
}

// Finalize verifies the network and freezes it. The builder cannot be used
// for mutation afterwards.
func (b *Builder) Finalize() (*Network, error) {
	if err := b.guard("Finalize", StateBridgesResolved); err != nil {
		return nil, err
	}

	a := b.arena
	adj := a.adjacency()

	order, err := algorithms.TopologicalSort[NodeID](adj)
	if err != nil {
		cycle, _ := algorithms.FindCycle[NodeID](adj)
		return nil, b.poison(NewError("Finalize").Node(a.nodes[cycle[0]].Name).
			Detail("bridges close a loop of %d nodes", len(cycle)).
			Cause(ErrCycleDetected).Err())
	}

	start := make([]NodeID, 0)
	terminal := make([]NodeID, 0)
	byKind := make(map[Kind][]NodeID)
	edges := 0
	for _, node := range a.nodes {
		if len(node.Upstream) == 0 {
			start = append(start, node.ID)
		}
		if len(node.Downstream) == 0 {
			terminal = append(terminal, node.ID)
		}
		byKind[node.Kind] = append(byKind[node.Kind], node.ID)
		edges += len(node.Downstream)
	}

	if orphans := algorithms.Unreached[NodeID](adj, start); len(orphans) > 0 {
		return nil, b.poison(NewError("Finalize").Node(a.nodes[orphans[0]].Name).
			Detail("%d nodes unreachable from any start node", len(orphans)).
			Cause(ErrMalformedSpec).Err())
	}

	regions, regionNames := indexRegions(a.nodes)

	n := &Network{
		topology:     b.topo,
		nodes:        a.nodes,
		index:        a.index,
		byKind:       byKind,
		start:        start,
		terminal:     terminal,
		preJunction:  b.junct.preJunction(),
		postJunction: b.junct.postJunction(),
		order:        order,
		regions:      regions,
		regionNames:  regionNames,
		maxDepth:     maps.Clone(a.maxDepth),
		maxCycle:     computeMaxCycle(b.topo, a.maxDepth),
		stats: Stats{
			Nodes:   len(a.nodes),
			Edges:   edges,
			Bridges: len(a.bridges),
			Regions: len(regionNames),
		},
	}

	b.arena = nil
	b.state = StateFinalized

	b.logger.Debug("network finalized",
		logging.Count(n.stats.Nodes),
		logging.Int("max_cycle", n.maxCycle))
	return n, nil
}

func (b *Builder) subsystemNames() []string {
	names := make([]string, len(b.topo.Subsystems))
	for i, def := range b.topo.Subsystems {
		names[i] = def.Name
	}
	return names
}

func (a *arena) adjacency() *algorithms.Adjacency[NodeID] {
	adj := algorithms.NewAdjacency[NodeID](len(a.nodes))
	for _, node := range a.nodes {
		for _, next := range node.Downstream {
			adj.AddEdge(node.ID, next)
		}
	}
	return adj
}

// Build runs the whole construction sequence for one network. It returns
// either a finalized Network or the first construction error.
func Build(topo Topology, spec Spec, opts ...Option) (*Network, error) {
	b, err := NewBuilder(topo, opts...)
	if err != nil {
		return nil, err
	}

	for _, name := range slices.Sorted(maps.Keys(spec.Subsystems)) {
		if _, ok := topo.Subsystem(name); !ok {
			return nil, NewError("Build").Subsystem(name).
				Detail("%s has %s", topo.Name, strings.Join(b.subsystemNames(), ", ")).
				Cause(ErrUnknownSubsystem).Err()
		}
	}

	for _, def := range topo.Subsystems {
		if err := b.AddSubsystem(def.Name, spec.Subsystems[def.Name]); err != nil {
			return nil, err
		}
	}
	if err := b.ResolveBridges(); err != nil {
		return nil, err
	}
	return b.Finalize()
}
