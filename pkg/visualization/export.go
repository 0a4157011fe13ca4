package visualization

import (
	"encoding/json"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

type nodeViz struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Subsystem string   `json:"subsystem"`
	Regions   []string `json:"regions"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
}

type edgeViz struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Bridge bool   `json:"bridge,omitempty"`
}

type vizData struct {
	Type  string    `json:"type"`
	Nodes []nodeViz `json:"nodes"`
	Edges []edgeViz `json:"edges"`
}

// New computes a layout for net.
func New(net *network.Network, layout Layout) (*Visualization, error) {
	positions, err := layout.ComputeLayout(net)
	if err != nil {
		return nil, err
	}
	return &Visualization{Network: net, Positions: positions}, nil
}

// ExportJSON exports the visualization to JSON. Edges that cross
// subsystems are flagged as bridges.
func (v *Visualization) ExportJSON() ([]byte, error) {
	net := v.Network
	data := vizData{
		Type:  net.Type(),
		Nodes: make([]nodeViz, 0, net.Len()),
	}

	for _, id := range nodeIDs(net) {
		node, err := net.Node(id)
		if err != nil {
			return nil, err
		}

		regions := make([]string, len(node.Regions))
		for i, r := range node.Regions {
			regions[i] = string(r)
		}
		pos := v.Positions[id]
		data.Nodes = append(data.Nodes, nodeViz{
			ID:        node.Name,
			Kind:      string(node.Kind),
			Subsystem: node.Subsystem,
			Regions:   regions,
			X:         pos.X,
			Y:         pos.Y,
		})

		for _, down := range node.Downstream {
			target, err := net.Node(down)
			if err != nil {
				return nil, err
			}
			data.Edges = append(data.Edges, edgeViz{
				From:   node.Name,
				To:     target.Name,
				Bridge: target.Subsystem != node.Subsystem,
			})
		}
	}

	return json.Marshal(data)
}
