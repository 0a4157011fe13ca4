package templates

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec/sources"
	"github.com/dd0wney/cluso-anatomy/pkg/network"

	// Network types available to every cache.
	_ "github.com/dd0wney/cluso-anatomy/pkg/circulation"
	_ "github.com/dd0wney/cluso-anatomy/pkg/nervous"
)

// Built is the result of one template build.
type Built struct {
	Network *network.Network
	Digest  string
}

// Builder produces the finalized network for a template key.
type Builder interface {
	Build(ctx context.Context, key anatomyspec.Key) (Built, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, key anatomyspec.Key) (Built, error)

func (f BuilderFunc) Build(ctx context.Context, key anatomyspec.Key) (Built, error) {
	return f(ctx, key)
}

// SourceBuilder fetches documents from src and builds them with the network
// type registered under the key's network name.
func SourceBuilder(src sources.Source, opts ...network.Option) Builder {
	return BuilderFunc(func(ctx context.Context, key anatomyspec.Key) (Built, error) {
		doc, err := src.Fetch(ctx, key.Template, key.Network)
		if err != nil {
			return Built{}, err
		}
		digest, err := anatomyspec.Digest(doc)
		if err != nil {
			return Built{}, err
		}
		n, err := doc.Build(opts...)
		if err != nil {
			return Built{}, fmt.Errorf("build %s: %w", key, err)
		}
		return Built{Network: n, Digest: digest}, nil
	})
}
