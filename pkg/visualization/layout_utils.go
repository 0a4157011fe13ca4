package visualization

import (
	"fmt"
	"math"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// Layout names accepted by NewLayout
const (
	LayoutHierarchical = "hierarchical"
	LayoutCircular     = "circular"
	LayoutForce        = "force"
)

// NewLayout returns the named layout.
func NewLayout(name string, config *LayoutConfig) (Layout, error) {
	if config == nil {
		config = DefaultLayoutConfig()
	}
	switch name {
	case LayoutHierarchical, "":
		return NewHierarchicalLayout(config), nil
	case LayoutCircular:
		return NewCircularLayout(config), nil
	case LayoutForce:
		return NewForceDirectedLayout(config), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}

// nodeIDs lists every node of net.
func nodeIDs(net *network.Network) []network.NodeID {
	ids := make([]network.NodeID, net.Len())
	for i := range ids {
		ids[i] = network.NodeID(i)
	}
	return ids
}

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[network.NodeID]Position, width, height, padding float64) map[network.NodeID]Position {
	if len(positions) == 0 {
		return positions
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make(map[network.NodeID]Position, len(positions))
	for id, pos := range positions {
		normalized[id] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}

	return normalized
}
