package network

import (
	"fmt"
	"sort"
	"sync"
)

// SubsystemDef describes one forest of a network type.
type SubsystemDef struct {
	Name string
	Kind Kind
	// BridgeTo names the subsystem this one's bridges must land in.
	// Empty means the subsystem may not declare bridges.
	BridgeTo string
}

// Topology describes a network type: its subsystems, their kinds and how they
// are bridged. Subsystems are built in the listed order, which fixes NodeID
// assignment.
type Topology struct {
	Name       string
	Subsystems []SubsystemDef
}

// Subsystem returns the definition with the given name.
func (t Topology) Subsystem(name string) (SubsystemDef, bool) {
	for _, def := range t.Subsystems {
		if def.Name == name {
			return def, true
		}
	}
	return SubsystemDef{}, false
}

// Bridged reports whether any subsystem bridges into another.
func (t Topology) Bridged() bool {
	for _, def := range t.Subsystems {
		if def.BridgeTo != "" {
			return true
		}
	}
	return false
}

// Validate checks the topology is usable by a Builder. Bridges between
// subsystems must not loop back, so a built network is always acyclic.
func (t Topology) Validate() error {
	if t.Name == "" {
		return NewError("Topology").Detail("empty name").Cause(ErrMalformedSpec).Err()
	}
	if len(t.Subsystems) == 0 {
		return NewError("Topology").Detail("%s has no subsystems", t.Name).Cause(ErrMalformedSpec).Err()
	}

	seen := make(map[string]bool, len(t.Subsystems))
	for _, def := range t.Subsystems {
		if def.Name == "" || def.Kind == "" {
			return NewError("Topology").Detail("%s: subsystem needs a name and kind", t.Name).Cause(ErrMalformedSpec).Err()
		}
		if seen[def.Name] {
			return NewError("Topology").Subsystem(def.Name).Cause(ErrDuplicateIdentity).Err()
		}
		seen[def.Name] = true
	}

	for _, def := range t.Subsystems {
		if def.BridgeTo == "" {
			continue
		}
		if !seen[def.BridgeTo] || def.BridgeTo == def.Name {
			return NewError("Topology").Subsystem(def.Name).Target(def.BridgeTo).Cause(ErrUnknownSubsystem).Err()
		}
		// follow the bridge chain; it must end without returning here
		visited := map[string]bool{def.Name: true}
		for next := def.BridgeTo; next != ""; {
			if visited[next] {
				return NewError("Topology").Subsystem(def.Name).Detail("bridges loop back").Cause(ErrCycleDetected).Err()
			}
			visited[next] = true
			nextDef, _ := t.Subsystem(next)
			next = nextDef.BridgeTo
		}
	}
	return nil
}

// Kinds lists the node kinds in subsystem order.
func (t Topology) Kinds() []Kind {
	kinds := make([]Kind, 0, len(t.Subsystems))
	seen := make(map[Kind]bool)
	for _, def := range t.Subsystems {
		if !seen[def.Kind] {
			seen[def.Kind] = true
			kinds = append(kinds, def.Kind)
		}
	}
	return kinds
}

// topology registry

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Topology)
)

// RegisterTopology makes a network type available to LookupTopology.
// Registering the same name twice is an error.
func RegisterTopology(t Topology) error {
	if err := t.Validate(); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[t.Name]; exists {
		return fmt.Errorf("network type %q already registered", t.Name)
	}
	registry[t.Name] = t
	return nil
}

// MustRegisterTopology is RegisterTopology for package init.
func MustRegisterTopology(t Topology) {
	if err := RegisterTopology(t); err != nil {
		panic(err)
	}
}

// LookupTopology returns the registered network type with the given name.
func LookupTopology(name string) (Topology, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	if !ok {
		return Topology{}, fmt.Errorf("%w: %q", ErrUnknownTopology, name)
	}
	return t, nil
}

// Topologies returns the registered network type names, sorted.
func Topologies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
