package network

// junctions counts bridge edges per node once bridges are resolved.
type junctions struct {
	out []int
	in  []int
}

// resolveBridges wires every recorded bridge in declaration order: the target
// is appended to the source's Downstream and the source to the target's
// Upstream. Bridges are many-to-many and never merged, so a repeated
// declaration yields a parallel edge.
func (a *arena) resolveBridges(topo Topology) (junctions, error) {
	j := junctions{
		out: make([]int, len(a.nodes)),
		in:  make([]int, len(a.nodes)),
	}

	for _, br := range a.bridges {
		source := &a.nodes[br.source]
		def, _ := topo.Subsystem(source.Subsystem)

		target, ok := a.index[br.target]
		if !ok {
			return junctions{}, NewError("ResolveBridges").
				Subsystem(source.Subsystem).Node(source.Name).Target(br.target).
				Detail("target not declared").
				Cause(ErrDanglingBridge).Err()
		}
		if got := a.nodes[target].Subsystem; got != def.BridgeTo {
			return junctions{}, NewError("ResolveBridges").
				Subsystem(source.Subsystem).Node(source.Name).Target(br.target).
				Detail("target is in %s, expected %s", got, def.BridgeTo).
				Cause(ErrDanglingBridge).Err()
		}

		source.Downstream = append(source.Downstream, target)
		a.nodes[target].Upstream = append(a.nodes[target].Upstream, br.source)
		j.out[br.source]++
		j.in[target]++
	}

	return j, nil
}

// preJunction lists nodes with outgoing bridges, in id order.
func (j junctions) preJunction() []NodeID {
	return collect(j.out)
}

// postJunction lists nodes receiving bridges, in id order.
func (j junctions) postJunction() []NodeID {
	return collect(j.in)
}

func collect(counts []int) []NodeID {
	ids := make([]NodeID, 0)
	for id, n := range counts {
		if n > 0 {
			ids = append(ids, NodeID(id))
		}
	}
	return ids
}
