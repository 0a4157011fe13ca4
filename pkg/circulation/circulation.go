// Package circulation defines the circulatory network type: an arterial
// forest bridged through capillary beds into a venous forest.
package circulation

import (
	"fmt"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

const (
	TypeName = "circulation"

	Arterial = "arterial"
	Venous   = "venous"

	Artery network.Kind = "Artery"
	Vein   network.Kind = "Vein"
)

// Topology is the circulatory network type. Arterial bridges land in the
// venous subsystem.
var Topology = network.Topology{
	Name: TypeName,
	Subsystems: []network.SubsystemDef{
		{Name: Arterial, Kind: Artery, BridgeTo: Venous},
		{Name: Venous, Kind: Vein},
	},
}

func init() {
	network.MustRegisterTopology(Topology)
}

// Circulation is a read-only view of a circulatory network.
type Circulation struct {
	*network.Network
}

// New wraps a network built from Topology.
func New(n *network.Network) (*Circulation, error) {
	if n == nil || n.Type() != TypeName {
		return nil, fmt.Errorf("%w: expected %s network", network.ErrUnknownTopology, TypeName)
	}
	return &Circulation{Network: n}, nil
}

// Build builds a circulatory network from a parsed spec.
func Build(spec network.Spec, opts ...network.Option) (*Circulation, error) {
	n, err := network.Build(Topology, spec, opts...)
	if err != nil {
		return nil, err
	}
	return &Circulation{Network: n}, nil
}

func (c *Circulation) Arteries() []network.NodeID {
	return c.OfKind(Artery)
}

func (c *Circulation) Veins() []network.NodeID {
	return c.OfKind(Vein)
}

// StartVessels are the arterial roots, where blood leaves the heart.
func (c *Circulation) StartVessels() []network.NodeID {
	return c.StartNodes()
}

// PreCapillaries are the arteries feeding a capillary bed.
func (c *Circulation) PreCapillaries() []network.NodeID {
	return c.PreJunctionNodes()
}

// PostCapillaries are the veins draining a capillary bed.
func (c *Circulation) PostCapillaries() []network.NodeID {
	return c.PostJunctionNodes()
}

func (c *Circulation) MaxArterialDepth() int {
	d, _ := c.MaxDepth(Arterial)
	return d
}

func (c *Circulation) MaxVenousDepth() int {
	d, _ := c.MaxDepth(Venous)
	return d
}

// VesselType returns Artery or Vein for a vessel.
func (c *Circulation) VesselType(id network.NodeID) (network.Kind, error) {
	node, err := c.Node(id)
	if err != nil {
		return "", err
	}
	return node.Kind, nil
}
