// Package anatomyspec loads declarative network templates and converts them
// into network.Spec values.
package anatomyspec

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
	"github.com/dd0wney/cluso-anatomy/pkg/validation"
)

// Key identifies one network of one anatomical template.
type Key struct {
	Template string
	Network  string
}

// String returns "<template>/<network>".
func (k Key) String() string {
	return k.Template + "/" + k.Network
}

// Validate checks both names are usable as path segments.
func (k Key) Validate() error {
	if err := validation.ValidateName("template", k.Template); err != nil {
		return err
	}
	return validation.ValidateName("network", k.Network)
}

// ParseKey parses "<template>/<network>".
func ParseKey(s string) (Key, error) {
	template, networkType, ok := strings.Cut(s, "/")
	if !ok {
		return Key{}, fmt.Errorf("key %q: expected <template>/<network>", s)
	}
	k := Key{Template: template, Network: networkType}
	if err := k.Validate(); err != nil {
		return Key{}, fmt.Errorf("key %q: %w", s, err)
	}
	return k, nil
}

// Document is a parsed template file for one network.
type Document struct {
	Template    string                           `json:"template" yaml:"template" validate:"required"`
	Network     string                           `json:"network" yaml:"network" validate:"required"`
	Description string                           `json:"description,omitempty" yaml:"description,omitempty"`
	Subsystems  map[string][]network.Declaration `json:"subsystems" yaml:"subsystems" validate:"required,min=1,dive,keys,required,endkeys,min=1,dive"`
}

// Key returns the document's template key.
func (d *Document) Key() Key {
	return Key{Template: d.Template, Network: d.Network}
}

// Bind fills in the template and network names from where the document was
// found. Names already present in the document must agree.
func (d *Document) Bind(key Key) error {
	if d.Template == "" {
		d.Template = key.Template
	}
	if d.Network == "" {
		d.Network = key.Network
	}
	if d.Template != key.Template || d.Network != key.Network {
		return network.NewError("Bind").
			Detail("document declares %s, stored as %s", d.Key(), key).
			Cause(network.ErrMalformedSpec).Err()
	}
	return nil
}

// Validate checks the document shape. Failures wrap network.ErrMalformedSpec.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d); err != nil {
		return network.NewError("Validate").Detail("%v", err).Cause(network.ErrMalformedSpec).Err()
	}
	if err := d.Key().Validate(); err != nil {
		return network.NewError("Validate").Detail("%v", err).Cause(network.ErrMalformedSpec).Err()
	}
	return nil
}

// Spec converts the document into builder input.
func (d *Document) Spec() network.Spec {
	return network.Spec{Subsystems: d.Subsystems}
}

// Count returns the number of declarations across all subsystems.
func (d *Document) Count() int {
	n := 0
	for _, roots := range d.Subsystems {
		for _, root := range roots {
			n += root.Count()
		}
	}
	return n
}

// Build validates the document and builds its network using the registered
// topology for d.Network.
func (d *Document) Build(opts ...network.Option) (*network.Network, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	topo, err := network.LookupTopology(d.Network)
	if err != nil {
		return nil, err
	}
	return network.Build(topo, d.Spec(), opts...)
}
