package graphql

import (
	"errors"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-anatomy/pkg/algorithms"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/network"
	"github.com/dd0wney/cluso-anatomy/pkg/templates"
)

// networkView is the source value of a Network object.
type networkView struct {
	lease *templates.Lease
	net   *network.Network
}

// nodeView is the source value of a Node object.
type nodeView struct {
	net  *network.Network
	node network.Node
}

type schemaTypes struct {
	templateKey *graphql.Object
	stats       *graphql.Object
	node        *graphql.Object
	network     *graphql.Object
}

func newTypes() *schemaTypes {
	t := &schemaTypes{}

	t.templateKey = graphql.NewObject(graphql.ObjectConfig{
		Name: "TemplateKey",
		Fields: graphql.Fields{
			"template": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(anatomyspec.Key).Template, nil
				},
			},
			"type": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(anatomyspec.Key).Network, nil
				},
			},
		},
	})

	t.stats = graphql.NewObject(graphql.ObjectConfig{
		Name: "NetworkStats",
		Fields: graphql.Fields{
			"nodes":   statField(func(s network.Stats) int { return s.Nodes }),
			"edges":   statField(func(s network.Stats) int { return s.Edges }),
			"bridges": statField(func(s network.Stats) int { return s.Bridges }),
			"regions": statField(func(s network.Stats) int { return s.Regions }),
		},
	})

	t.node = graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return t.nodeFields()
		}),
	})

	t.network = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Network",
		Fields: t.networkFields(),
	})

	return t
}

func statField(get func(network.Stats) int) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.Int),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return get(p.Source.(network.Stats)), nil
		},
	}
}

func (t *schemaTypes) nodeFields() graphql.Fields {
	str := func(get func(nodeView) string) *graphql.Field {
		return &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return get(p.Source.(nodeView)), nil
			},
		}
	}
	linked := func(get func(network.Node) []network.NodeID) *graphql.Field {
		return &graphql.Field{
			Type: graphql.NewList(t.node),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				v := p.Source.(nodeView)
				return views(v.net, get(v.node))
			},
		}
	}

	return graphql.Fields{
		"id":        str(func(v nodeView) string { return v.node.Name }),
		"kind":      str(func(v nodeView) string { return string(v.node.Kind) }),
		"subsystem": str(func(v nodeView) string { return v.node.Subsystem }),
		"depth": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(nodeView).node.Depth, nil
			},
		},
		"regions": &graphql.Field{
			Type: graphql.NewList(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return regionStrings(p.Source.(nodeView).node.Regions), nil
			},
		},
		"fanOut": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return len(p.Source.(nodeView).node.Downstream), nil
			},
		},
		"fanIn": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return len(p.Source.(nodeView).node.Upstream), nil
			},
		},
		"upstream":   linked(func(n network.Node) []network.NodeID { return n.Upstream }),
		"downstream": linked(func(n network.Node) []network.NodeID { return n.Downstream }),
	}
}

func (t *schemaTypes) networkFields() graphql.Fields {
	nodeList := func(get func(*network.Network) []network.NodeID) *graphql.Field {
		return &graphql.Field{
			Type: graphql.NewList(t.node),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				net := p.Source.(*networkView).net
				return views(net, get(net))
			},
		}
	}

	return graphql.Fields{
		"template": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).lease.Key().Template, nil
			},
		},
		"type": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).net.Type(), nil
			},
		},
		"digest": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).lease.Digest(), nil
			},
		},
		"builtAt": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).lease.BuiltAt().UTC().Format(time.RFC3339), nil
			},
		},
		"stats": &graphql.Field{
			Type: t.stats,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).net.Stats(), nil
			},
		},
		"maxCycle": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).net.MaxCycle(), nil
			},
		},
		"maxDepth": &graphql.Field{
			Type: graphql.Int,
			Args: graphql.FieldConfigArgument{
				"subsystem": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				subsystem, _ := p.Args["subsystem"].(string)
				return p.Source.(*networkView).net.MaxDepth(subsystem)
			},
		},
		"subsystems": &graphql.Field{
			Type: graphql.NewList(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*networkView).net.Subsystems(), nil
			},
		},
		"regions": &graphql.Field{
			Type: graphql.NewList(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return regionStrings(p.Source.(*networkView).net.RegionNames()), nil
			},
		},
		"startNodes":        nodeList((*network.Network).StartNodes),
		"terminalNodes":     nodeList((*network.Network).TerminalNodes),
		"preJunctionNodes":  nodeList((*network.Network).PreJunctionNodes),
		"postJunctionNodes": nodeList((*network.Network).PostJunctionNodes),
		"topologicalOrder":  nodeList((*network.Network).TopologicalOrder),
		"ofKind": &graphql.Field{
			Type: graphql.NewList(t.node),
			Args: graphql.FieldConfigArgument{
				"kind": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				kind, _ := p.Args["kind"].(string)
				net := p.Source.(*networkView).net
				return views(net, net.OfKind(network.Kind(kind)))
			},
		},
		"node": &graphql.Field{
			Type: t.node,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				name, _ := p.Args["id"].(string)
				net := p.Source.(*networkView).net
				id, err := net.Lookup(name)
				if err != nil {
					return nil, err
				}
				return view(net, id)
			},
		},
		"nodesInRegion": &graphql.Field{
			Type: graphql.NewList(t.node),
			Args: graphql.FieldConfigArgument{
				"region": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				region, _ := p.Args["region"].(string)
				net := p.Source.(*networkView).net
				ids, err := net.NodesInRegion(network.Region(region))
				if err != nil {
					return nil, err
				}
				return views(net, ids)
			},
		},
		"neighbourhood": &graphql.Field{
			Type: graphql.NewList(t.node),
			Args: graphql.FieldConfigArgument{
				"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"hops":      &graphql.ArgumentConfig{Type: graphql.Int},
				"direction": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "out"},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				name, _ := p.Args["id"].(string)
				dirName, _ := p.Args["direction"].(string)

				var requested *int
				if h, ok := p.Args["hops"].(int); ok {
					requested = &h
				}
				hops, err := applyLimit(requested, limitsFrom(p.Context))
				if err != nil {
					return nil, err
				}

				dir, err := parseDirection(dirName)
				if err != nil {
					return nil, err
				}
				net := p.Source.(*networkView).net
				id, err := net.Lookup(name)
				if err != nil {
					return nil, err
				}
				ids, err := net.Neighbourhood(id, hops, dir)
				if err != nil {
					return nil, err
				}
				return views(net, ids)
			},
		},
		"validatePath": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.Boolean),
			Description: "Whether each consecutive pair of ids is a downstream edge",
			Args: graphql.FieldConfigArgument{
				"ids": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				raw, _ := p.Args["ids"].([]any)
				net := p.Source.(*networkView).net

				path := make([]network.NodeID, 0, len(raw))
				for _, r := range raw {
					name, _ := r.(string)
					id, err := net.Lookup(name)
					if err != nil {
						return nil, err
					}
					path = append(path, id)
				}
				err := net.ValidatePath(path)
				if errors.Is(err, network.ErrInvalidPath) {
					return false, nil
				}
				return err == nil, err
			},
		},
	}
}

func view(net *network.Network, id network.NodeID) (nodeView, error) {
	node, err := net.Node(id)
	if err != nil {
		return nodeView{}, err
	}
	return nodeView{net: net, node: node}, nil
}

func views(net *network.Network, ids []network.NodeID) ([]nodeView, error) {
	out := make([]nodeView, 0, len(ids))
	for _, id := range ids {
		v, err := view(net, id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func regionStrings(regions []network.Region) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = string(r)
	}
	return out
}

func parseDirection(s string) (algorithms.NeighborDirection, error) {
	switch s {
	case "out", "":
		return algorithms.DirectionOut, nil
	case "in":
		return algorithms.DirectionIn, nil
	case "both":
		return algorithms.DirectionBoth, nil
	default:
		return 0, fmt.Errorf("direction %q: expected out, in or both", s)
	}
}
