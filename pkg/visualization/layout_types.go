// Package visualization computes 2D layouts of finalized networks for
// rendering by external viewers.
package visualization

import (
	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for the initial force-directed placement
}

// DefaultLayoutConfig returns a 1000x800 canvas.
func DefaultLayoutConfig() *LayoutConfig {
	return &LayoutConfig{Width: 1000, Height: 800}
}

// Layout positions every node of a network.
type Layout interface {
	ComputeLayout(net *network.Network) (map[network.NodeID]Position, error)
}

// Visualization represents a network with a computed layout
type Visualization struct {
	Network   *network.Network
	Positions map[network.NodeID]Position
}
