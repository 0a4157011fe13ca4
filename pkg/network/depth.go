package network

// computeMaxCycle returns the worst-case number of edge traversals for one
// full circuit. For each bridged pair it is the depth of the source side plus
// the depth of the target side; the deepest chain of pairs wins. A topology
// without bridges has one root-to-terminal pass per subsystem.
func computeMaxCycle(topo Topology, maxDepth map[string]int) int {
	best := 0
	for _, def := range topo.Subsystems {
		total := maxDepth[def.Name]
		for next := def.BridgeTo; next != ""; {
			total += maxDepth[next]
			nextDef, _ := topo.Subsystem(next)
			next = nextDef.BridgeTo
		}
		if total > best {
			best = total
		}
	}
	return best
}
