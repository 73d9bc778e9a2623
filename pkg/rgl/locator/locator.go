// Package locator resolves dotted class paths to registered native
// constructors for the "class" operation kind and action type.
//
// Paths split on the last "." into a container and a name:
//
//	"billing.handlers.Discount" -> container "billing.handlers", name "Discount"
//	"Discount"                  -> container "" (the default container), name "Discount"
//
// Every lookup failure collapses to not-found, including paths that refer to
// types outside this process (for example "java:com.acme.Rule").
package locator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultContainer holds constructors registered without a container.
const DefaultContainer = ""

// Constructor creates a new handler instance.
type Constructor func() (any, error)

// Locator is a registry of constructors keyed by container and name.
type Locator struct {
	mu         sync.RWMutex
	containers map[string]map[string]Constructor
}

// New creates an empty locator.
func New() *Locator {
	return &Locator{containers: make(map[string]map[string]Constructor)}
}

// Split separates path into container and name. It reports false for
// malformed paths.
func Split(path string) (container, name string, ok bool) {
	if path == "" || strings.TrimSpace(path) != path || strings.ContainsAny(path, " \t\r\n:/\\") {
		return "", "", false
	}

	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return DefaultContainer, path, true
	}

	container, name = path[:idx], path[idx+1:]
	if name == "" {
		return "", "", false
	}
	for _, segment := range strings.Split(container, ".") {
		if segment == "" {
			return "", "", false
		}
	}
	return container, name, true
}

// Register adds a constructor under path. Registering the same path twice
// is an error.
func (l *Locator) Register(path string, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("constructor for %q is nil", path)
	}
	container, name, ok := Split(path)
	if !ok {
		return fmt.Errorf("invalid class path: %q", path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	names, exists := l.containers[container]
	if !exists {
		names = make(map[string]Constructor)
		l.containers[container] = names
	}
	if _, exists := names[name]; exists {
		return fmt.Errorf("class already registered: %s", path)
	}
	names[name] = ctor
	return nil
}

// MustRegister is like Register but panics on error. It is intended for
// package init functions.
func (l *Locator) MustRegister(path string, ctor Constructor) {
	if err := l.Register(path, ctor); err != nil {
		panic(err)
	}
}

// Unregister removes the constructor registered under path.
func (l *Locator) Unregister(path string) {
	container, name, ok := Split(path)
	if !ok {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if names, exists := l.containers[container]; exists {
		delete(names, name)
		if len(names) == 0 {
			delete(l.containers, container)
		}
	}
}

// Resolve returns the constructor registered under path.
func (l *Locator) Resolve(path string) (Constructor, bool) {
	container, name, ok := Split(path)
	if !ok {
		return nil, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	names, exists := l.containers[container]
	if !exists {
		return nil, false
	}
	ctor, exists := names[name]
	return ctor, exists
}

// Paths returns every registered path, sorted.
func (l *Locator) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var paths []string
	for container, names := range l.containers {
		for name := range names {
			if container == DefaultContainer {
				paths = append(paths, name)
			} else {
				paths = append(paths, container+"."+name)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// Default is the process-wide locator used when none is configured.
var Default = New()

// Register adds a constructor to Default.
func Register(path string, ctor Constructor) error {
	return Default.Register(path, ctor)
}

// MustRegister adds a constructor to Default and panics on error.
func MustRegister(path string, ctor Constructor) {
	Default.MustRegister(path, ctor)
}

// Resolve looks path up in Default.
func Resolve(path string) (Constructor, bool) {
	return Default.Resolve(path)
}
