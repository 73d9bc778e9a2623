package script

import (
	"errors"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// Chain tries factories in order. A factory reporting ErrNotFound passes the
// lookup on; any other error stops the chain.
type Chain []Factory

// Load implements Factory.
func (c Chain) Load(identifier string, capability handler.Capability) (any, error) {
	for _, f := range c {
		if f == nil {
			continue
		}
		script, err := f.Load(identifier, capability)
		if err == nil {
			return script, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, notFound(identifier)
}
