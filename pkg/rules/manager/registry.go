package manager

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/rulec/pkg/rgl/ast"
)

// GroupRegistry is a thread-safe in-memory Registrar. Groups are keyed by
// project and name; registering a group with an existing key replaces it.
type GroupRegistry struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	version   string
	updatedAt time.Time
}

// NewGroupRegistry creates a new empty registry.
func NewGroupRegistry() *GroupRegistry {
	r := &GroupRegistry{
		entries:   make(map[string]Entry),
		updatedAt: time.Now(),
	}
	r.updateVersion()
	return r
}

// RegisterRuleGroup adds a resolved rule group to the registry.
// Groups with unbound condition leaves or actions are rejected.
func (r *GroupRegistry) RegisterRuleGroup(group *ast.RuleGroup) error {
	if group == nil {
		return &RegistryError{
			Op:     "register",
			Reason: "rule group cannot be nil",
		}
	}

	key := Key(group.Project, group.Name)
	if group.Name == "" || group.Project == "" {
		return &RegistryError{
			Key:    key,
			Op:     "register",
			Reason: "rule group name and project cannot be empty",
		}
	}

	if err := ast.Walk(group, boundChecker{}); err != nil {
		return &RegistryError{
			Key:    key,
			Op:     "register",
			Reason: "rule group is not resolved",
			Err:    err,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.entries[key] = Entry{
		Group:        group,
		Revision:     uuid.NewString(),
		RegisteredAt: now,
	}
	r.updatedAt = now
	r.updateVersion()

	return nil
}

// Unregister removes a rule group from the registry.
func (r *GroupRegistry) Unregister(project, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(project, name)
	if _, ok := r.entries[key]; !ok {
		return &RegistryError{
			Key:    key,
			Op:     "unregister",
			Reason: "rule group not found",
		}
	}

	delete(r.entries, key)
	r.updatedAt = time.Now()
	r.updateVersion()

	return nil
}

// Get retrieves a rule group entry by project and name.
func (r *GroupRegistry) Get(project, name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[Key(project, name)]
	return entry, ok
}

// Entries returns all entries sorted by key.
func (r *GroupRegistry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.sortedKeys()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, r.entries[key])
	}
	return entries
}

// Groups returns all rule groups sorted by key.
func (r *GroupRegistry) Groups() []*ast.RuleGroup {
	entries := r.Entries()
	groups := make([]*ast.RuleGroup, 0, len(entries))
	for _, entry := range entries {
		groups = append(groups, entry.Group)
	}
	return groups
}

// Keys returns the sorted registry keys.
func (r *GroupRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedKeys()
}

// Count returns the number of registered rule groups.
func (r *GroupRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Clear removes all rule groups.
func (r *GroupRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]Entry)
	r.updatedAt = time.Now()
	r.updateVersion()
}

// Version returns a hash of the registered keys and revisions. It changes
// whenever a group is registered, replaced or removed.
func (r *GroupRegistry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// Stats returns statistics about the registered rule groups.
func (r *GroupRegistry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		Groups:    len(r.entries),
		UpdatedAt: r.updatedAt,
		Version:   r.version,
	}

	for _, entry := range r.entries {
		if entry.Group.IsEnabled() {
			stats.EnabledGroups++
		}
		for _, rule := range entry.Group.Rules {
			stats.Rules++
			if rule.IsEnabled() {
				stats.EnabledRules++
			}
		}
	}

	return stats
}

// sortedKeys must be called with the lock held.
func (r *GroupRegistry) sortedKeys() []string {
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// updateVersion must be called with the write lock held.
func (r *GroupRegistry) updateVersion() {
	h := sha256.New()
	for _, key := range r.sortedKeys() {
		h.Write([]byte(key))
		h.Write([]byte(r.entries[key].Revision))
	}
	r.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// boundChecker rejects condition leaves and actions without a handler.
type boundChecker struct{}

func (boundChecker) VisitGroup(*ast.RuleGroup) error { return nil }

func (boundChecker) VisitRule(*ast.Rule) error { return nil }

func (boundChecker) VisitCondition(cond *ast.ConditionNode) error {
	if cond.IsLeaf() && cond.Handler == nil {
		return fmt.Errorf("condition %q at %s has no handler", cond.Operation, cond.Location)
	}
	return nil
}

func (boundChecker) VisitAction(action *ast.Action) error {
	if action.Handler == nil {
		return fmt.Errorf("action %q at %s has no handler", action.Type, action.Location)
	}
	return nil
}
