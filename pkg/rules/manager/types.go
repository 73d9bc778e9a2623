package manager

import (
	"time"

	"mercator-hq/rulec/pkg/rgl/ast"
)

// Registrar receives fully resolved rule groups, one at a time.
type Registrar interface {
	RegisterRuleGroup(group *ast.RuleGroup) error
}

// Recorder receives compile metrics. It is implemented by
// telemetry/metrics.Collector.
type Recorder interface {
	// RecordCompile records one rule group compile attempt.
	RecordCompile(source, status string, duration time.Duration)

	// SetRegisteredGroups updates the number of registered rule groups.
	SetRegisteredGroups(count int)
}

// Compile statuses recorded in the journal and metrics.
const (
	StatusRegistered = "registered"
	StatusFailed     = "failed"
)

// Sources of rule groups.
const (
	SourceObject = "object"
	SourceText   = "text"
)

// CompileRecord describes one compile attempt of a rule group.
type CompileRecord struct {
	// ID is the compile identifier (UUID)
	ID string

	// Source is the document the group came from: a file path, a remote
	// URL, SourceText or SourceObject
	Source string

	// Group and Project identify the rule group. Both may be empty when the
	// group failed validation for lack of them.
	Group   string
	Project string

	// Rules is the number of rules in the group
	Rules int

	// Status is StatusRegistered or StatusFailed
	Status string

	// Error is the failure message, empty on success
	Error string

	// Duration is the time spent validating, resolving and registering
	Duration time.Duration

	// CompiledAt is when the attempt finished
	CompiledAt time.Time
}

// Entry is a rule group held by a GroupRegistry.
type Entry struct {
	Group        *ast.RuleGroup
	Revision     string // changes on every registration
	RegisteredAt time.Time
}

// Key returns the registry key of a rule group.
func Key(project, name string) string {
	return project + "/" + name
}

// RegistryStats contains statistics about the registered rule groups.
type RegistryStats struct {
	Groups        int
	EnabledGroups int
	Rules         int
	EnabledRules  int
	UpdatedAt     time.Time
	Version       string
}

// Status reports the outcome of the last document load.
type Status struct {
	LastLoadTime  time.Time
	LastLoadError error
	Registered    int
	Failed        int
}
