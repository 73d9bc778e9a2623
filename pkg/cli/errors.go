package cli

import (
	"errors"
	"fmt"

	"mercator-hq/rulec/pkg/config"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidRules = 2
	ExitBadConfig    = 3
)

// ConfigError represents an error in command-line or file configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps err to a process exit code. Rejected rule documents exit
// with ExitInvalidRules so CI jobs can tell them apart from crashes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	var validationErr config.ValidationError
	switch {
	case rglErrors.IsConfigurationError(err):
		return ExitInvalidRules
	case errors.As(err, &cfgErr), errors.As(err, &validationErr):
		return ExitBadConfig
	default:
		return ExitFailure
	}
}
