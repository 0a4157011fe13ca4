package visualization

import (
	"math"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// CircularLayout arranges nodes in a circle in topological order, which
// draws a two-sided network as one loop.
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle
func (cl *CircularLayout) ComputeLayout(net *network.Network) (map[network.NodeID]Position, error) {
	order := net.TopologicalOrder()
	positions := make(map[network.NodeID]Position, len(order))

	if len(order) == 0 {
		return positions, nil
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding

	angleStep := 2 * math.Pi / float64(len(order))

	for i, id := range order {
		angle := float64(i) * angleStep
		positions[id] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}

	return positions, nil
}
