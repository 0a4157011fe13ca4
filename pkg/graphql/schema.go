// Package graphql serves finalized networks from the template cache over a
// read-only GraphQL schema.
package graphql

import (
	"context"
	"fmt"
	"sync"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/templates"
)

// Provider hands out leases on cached networks.
type Provider interface {
	GetOrBuild(ctx context.Context, key anatomyspec.Key) (*templates.Lease, error)
	Keys() []anatomyspec.Key
}

// leaseSet collects the leases taken while resolving one request so they
// can be released once the response is complete.
type leaseSet struct {
	mu     sync.Mutex
	leases []*templates.Lease
}

func (s *leaseSet) add(l *templates.Lease) {
	s.mu.Lock()
	s.leases = append(s.leases, l)
	s.mu.Unlock()
}

func (s *leaseSet) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leases {
		l.Release()
	}
	s.leases = nil
}

type leaseSetKey struct{}

func withLeaseSet(ctx context.Context) (context.Context, *leaseSet) {
	set := &leaseSet{}
	return context.WithValue(ctx, leaseSetKey{}, set), set
}

// GenerateSchema builds the query schema over provider.
func GenerateSchema(provider Provider) (graphql.Schema, error) {
	types := newTypes()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"templates": &graphql.Field{
				Type:        graphql.NewList(types.templateKey),
				Description: "Template networks currently cached",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return provider.Keys(), nil
				},
			},
			"network": &graphql.Field{
				Type:        types.network,
				Description: "The finalized network for one template, built on first use",
				Args: graphql.FieldConfigArgument{
					"template": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveNetwork(provider),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func resolveNetwork(provider Provider) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		template, _ := p.Args["template"].(string)
		networkType, _ := p.Args["type"].(string)
		key := anatomyspec.Key{Template: template, Network: networkType}

		ctx := p.Context
		if ctx == nil {
			ctx = context.Background()
		}
		lease, err := provider.GetOrBuild(ctx, key)
		if err != nil {
			return nil, err
		}

		if set, ok := ctx.Value(leaseSetKey{}).(*leaseSet); ok {
			set.add(lease)
		} else {
			// Executed outside Execute: nothing will release it later.
			defer lease.Release()
		}
		return &networkView{lease: lease, net: lease.Network()}, nil
	}
}
