package visualization

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// ForceDirectedLayout implements force-directed graph layout
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm. The same
// Seed gives the same layout.
func (fdl *ForceDirectedLayout) ComputeLayout(net *network.Network) (map[network.NodeID]Position, error) {
	ids := nodeIDs(net)
	if len(ids) == 0 {
		return make(map[network.NodeID]Position), nil
	}

	if len(ids) == 1 {
		return map[network.NodeID]Position{
			ids[0]: {X: fdl.config.Width / 2, Y: fdl.config.Height / 2},
		}, nil
	}

	rng := rand.New(rand.NewSource(fdl.config.Seed))
	positions := make([]Position, len(ids))
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	// Undirected adjacency; every edge is attracted from both ends.
	neighbours := make([][]network.NodeID, len(ids))
	for _, id := range ids {
		node, err := net.Node(id)
		if err != nil {
			return nil, err
		}
		neighbours[id] = append(append(neighbours[id], node.Downstream...), node.Upstream...)
	}

	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(len(ids)))
	temperature := fdl.config.Width / 10.0
	forces := make([]Position, len(ids))

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		clear(forces)

		// Repulsion between all nodes
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		// Attraction between connected nodes
		for i, adj := range neighbours {
			for _, j := range adj {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[i].X -= (dx / dist) * force
				forces[i].Y -= (dy / dist) * force
			}
		}

		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for i := range ids {
			fx, fy := forces[i].X, forces[i].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[i].X += (fx / force) * step
				positions[i].Y += (fy / force) * step
			}
		}

		temperature *= 0.95
	}

	out := make(map[network.NodeID]Position, len(ids))
	for i, id := range ids {
		out[id] = positions[i]
	}
	return normalizePositions(out, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}
