package ast

// RuleGroup is the root node: a named bundle of rules for one project.
type RuleGroup struct {
	Name        string
	Project     string
	MatchAll    *bool  // nil when the attribute is absent
	Enable      *bool  // nil when the attribute is absent
	DefaultRule string // empty when unset
	Rules       []*Rule
	Location    Location
}

// IsMatchAll reports whether every rule must match. Defaults to false.
func (g *RuleGroup) IsMatchAll() bool {
	return g.MatchAll != nil && *g.MatchAll
}

// IsEnabled reports whether the group is enabled. Defaults to true.
func (g *RuleGroup) IsEnabled() bool {
	return g.Enable == nil || *g.Enable
}

// GetRule returns the first rule with the given name, or nil.
func (g *RuleGroup) GetRule(name string) *Rule {
	for _, rule := range g.Rules {
		if rule.Name == name {
			return rule
		}
	}
	return nil
}

// HasRule returns true if a rule with the given name exists.
func (g *RuleGroup) HasRule(name string) bool {
	return g.GetRule(name) != nil
}

// RuleNames returns the rule names in document order.
func (g *RuleGroup) RuleNames() []string {
	names := make([]string, 0, len(g.Rules))
	for _, rule := range g.Rules {
		names = append(names, rule.Name)
	}
	return names
}

// Bool returns a pointer to b, for building flag fields.
func Bool(b bool) *bool {
	return &b
}
