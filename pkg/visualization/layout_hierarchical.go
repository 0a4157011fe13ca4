package visualization

import (
	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// HierarchicalLayout places nodes in rows by their longest distance from a
// start node, so flow reads top to bottom and both sides of a bridge land on
// consecutive rows.
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// Levels groups node ids by row. Rows keep topological order.
func Levels(net *network.Network) [][]network.NodeID {
	order := net.TopologicalOrder()
	level := make([]int, net.Len())
	deepest := 0

	for _, id := range order {
		node, err := net.Node(id)
		if err != nil {
			continue
		}
		for _, down := range node.Downstream {
			if level[id]+1 > level[down] {
				level[down] = level[id] + 1
				if level[down] > deepest {
					deepest = level[down]
				}
			}
		}
	}

	if len(order) == 0 {
		return nil
	}
	levels := make([][]network.NodeID, deepest+1)
	for _, id := range order {
		levels[level[id]] = append(levels[level[id]], id)
	}
	return levels
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(net *network.Network) (map[network.NodeID]Position, error) {
	positions := make(map[network.NodeID]Position, net.Len())

	levels := Levels(net)
	if len(levels) == 0 {
		return positions, nil
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, id := range level {
			x := hl.config.Padding + spacing*float64(nodeIdx+1)
			positions[id] = Position{X: x, Y: y}
		}
	}

	return positions, nil
}
