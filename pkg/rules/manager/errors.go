package manager

import (
	"fmt"
	"strings"
)

// LoadError reports a rule path that could not be listed or read.
type LoadError struct {
	Path string // file or directory as configured
	Op   string // "stat" or "walk"
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rule path %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DocumentError attaches the document path to a compile failure.
type DocumentError struct {
	File string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("rule document %s: %v", e.File, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// RegistryError reports a rejected registry operation.
type RegistryError struct {
	Key    string // project/name, empty when unknown
	Op     string // "register" or "unregister"
	Reason string
	Err    error
}

func (e *RegistryError) Error() string {
	msg := fmt.Sprintf("cannot %s rule group", e.Op)
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// ErrorList collects the per-document failures of LoadPaths. A load with
// one failure returns that failure directly.
type ErrorList struct {
	Errors []error
}

func (e *ErrorList) Error() string {
	lines := make([]string, 0, len(e.Errors)+1)
	lines = append(lines, fmt.Sprintf("%d rule document(s) failed:", len(e.Errors)))
	for _, err := range e.Errors {
		lines = append(lines, "  - "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add appends err unless it is nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ToError returns nil, the only error, or the list.
func (e *ErrorList) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
