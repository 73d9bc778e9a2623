package script

import (
	"fmt"
	"sort"
	"sync"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// Registry is an in-memory Factory of scripts registered by the host.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]any)}
}

// Register adds a script. Registering an identifier twice is an error.
func (r *Registry) Register(identifier string, script any) error {
	if identifier == "" {
		return fmt.Errorf("script identifier is required")
	}
	if script == nil {
		return fmt.Errorf("script %q is nil", identifier)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scripts[identifier]; exists {
		return fmt.Errorf("script already registered: %s", identifier)
	}
	r.scripts[identifier] = script
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(identifier string, script any) {
	if err := r.Register(identifier, script); err != nil {
		panic(err)
	}
}

// Load implements Factory.
func (r *Registry) Load(identifier string, capability handler.Capability) (any, error) {
	r.mu.RLock()
	script, exists := r.scripts[identifier]
	r.mu.RUnlock()

	if !exists {
		return nil, notFound(identifier)
	}
	if !capability.Implements(script) {
		return nil, &CapabilityError{Identifier: identifier, Capability: capability}
	}
	return script, nil
}

// Identifiers returns the registered identifiers, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.scripts))
	for id := range r.scripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
