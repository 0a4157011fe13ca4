// Package nervous defines the nervous network type: a single unbridged
// forest of nerve segments rooted at the brain.
package nervous

import (
	"fmt"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

const (
	TypeName = "nervous"

	Nerves = "nerve"

	Nerve network.Kind = "Nerve"
)

var Topology = network.Topology{
	Name:       TypeName,
	Subsystems: []network.SubsystemDef{{Name: Nerves, Kind: Nerve}},
}

func init() {
	network.MustRegisterTopology(Topology)
}

// Nervous is a read-only view of a nervous network. Uplink points towards
// the brain and Downlink towards the periphery.
type Nervous struct {
	*network.Network
}

func New(n *network.Network) (*Nervous, error) {
	if n == nil || n.Type() != TypeName {
		return nil, fmt.Errorf("%w: expected %s network", network.ErrUnknownTopology, TypeName)
	}
	return &Nervous{Network: n}, nil
}

func Build(spec network.Spec, opts ...network.Option) (*Nervous, error) {
	n, err := network.Build(Topology, spec, opts...)
	if err != nil {
		return nil, err
	}
	return &Nervous{Network: n}, nil
}

// TerminalNerves are the peripheral endings.
func (n *Nervous) TerminalNerves() []network.NodeID {
	return n.TerminalNodes()
}

// Uplink returns the parent segment, or ok=false for a root.
func (n *Nervous) Uplink(id network.NodeID) (parent network.NodeID, ok bool, err error) {
	up, err := n.Upstream(id)
	if err != nil || len(up) == 0 {
		return 0, false, err
	}
	return up[0], true, nil
}

// Downlink returns the child segments.
func (n *Nervous) Downlink(id network.NodeID) ([]network.NodeID, error) {
	return n.Downstream(id)
}

// SignalPath resolves names to ids and checks that a signal can travel
// along them from the first segment to the last.
func (n *Nervous) SignalPath(names ...string) ([]network.NodeID, error) {
	path := make([]network.NodeID, 0, len(names))
	for _, name := range names {
		id, err := n.Lookup(name)
		if err != nil {
			return nil, err
		}
		path = append(path, id)
	}
	if err := n.ValidatePath(path); err != nil {
		return nil, err
	}
	return path, nil
}
