package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"mercator-hq/rulec/pkg/rgl/ast"
)

// ConfigurationError is the single error kind produced while building,
// validating and resolving rule groups. It names the violated invariant and,
// where applicable, the offending group, rule and element.
type ConfigurationError struct {
	Message    string       // What is wrong
	Group      string       // Offending rule group, if known
	Rule       string       // Offending rule, if known
	Path       string       // Element path inside the rule, e.g. "when[0].subs[1]"
	Location   ast.Location // Source location, if known
	Context    string       // Surrounding source lines (optional)
	Suggestion string       // Suggested fix (optional)
	Cause      error        // Underlying error (optional)
}

// Error implements the error interface. The message is a single line.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration error: ")
	sb.WriteString(e.Message)

	var where []string
	if e.Group != "" {
		where = append(where, fmt.Sprintf("group %q", e.Group))
	}
	if e.Rule != "" {
		where = append(where, fmt.Sprintf("rule %q", e.Rule))
	}
	if e.Path != "" {
		where = append(where, e.Path)
	}
	if len(where) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(where, ", "))
		sb.WriteString(")")
	}
	if e.Location.IsValid() {
		sb.WriteString(" at ")
		sb.WriteString(e.Location.String())
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Detailed returns a multi-line rendering with location, source context and
// suggestion, for terminal output.
func (e *ConfigurationError) Detailed() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[configuration] %s\n", e.Error()))

	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("  --> %s\n", e.Location.String()))
	}

	if e.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(e.Context)
		sb.WriteString("  |\n")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}

	return sb.String()
}

// New creates a ConfigurationError with a formatted message.
func New(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a ConfigurationError with a cause.
func Wrap(cause error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithGroup sets the group name and returns the error.
func (e *ConfigurationError) WithGroup(name string) *ConfigurationError {
	e.Group = name
	return e
}

// WithRule sets the rule name and returns the error.
func (e *ConfigurationError) WithRule(name string) *ConfigurationError {
	e.Rule = name
	return e
}

// WithPath sets the element path and returns the error.
func (e *ConfigurationError) WithPath(path string) *ConfigurationError {
	e.Path = path
	return e
}

// WithLocation sets the source location and returns the error.
func (e *ConfigurationError) WithLocation(loc ast.Location) *ConfigurationError {
	e.Location = loc
	return e
}

// WithSuggestion sets the suggestion and returns the error.
func (e *ConfigurationError) WithSuggestion(s string) *ConfigurationError {
	e.Suggestion = s
	return e
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return stderrors.As(err, &cfgErr)
}

// AsConfigurationError returns the ConfigurationError in err's chain, if any.
func AsConfigurationError(err error) (*ConfigurationError, bool) {
	var cfgErr *ConfigurationError
	if stderrors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}
