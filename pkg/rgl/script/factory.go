// Package script provides script factories for the "script" operation kind
// and action type.
//
// A Factory loads a user script by identifier and returns a value
// implementing the requested capability. Three implementations are provided:
//
//	Registry     scripts registered in process by the host application
//	FileFactory  expr-lang scripts read from <dir>/<identifier>.expr, compiled
//	             once and cached until the file changes
//	Chain        tries several factories in order
package script

import (
	"errors"
	"fmt"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// ErrNotFound is returned when no script exists for an identifier.
var ErrNotFound = errors.New("script not found")

// Factory loads user scripts.
type Factory interface {
	// Load returns the script named identifier. It fails if the script
	// cannot be loaded or does not implement capability.
	Load(identifier string, capability handler.Capability) (any, error)
}

// CapabilityError is returned when a script exists but does not implement
// the requested capability.
type CapabilityError struct {
	Identifier string
	Capability handler.Capability
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("script %q does not implement the %s capability", e.Identifier, e.Capability)
}

func notFound(identifier string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, identifier)
}
