package ast

// Rule is a single rule: a condition tree ("when") and an ordered action
// list ("then"). A rule owns its conditions and actions exclusively.
type Rule struct {
	Name        string
	Description string
	Enable      *bool
	When        []*ConditionNode
	Then        []*Action
	Location    Location
}

// IsEnabled reports whether the rule is enabled. Defaults to true.
func (r *Rule) IsEnabled() bool {
	return r.Enable == nil || *r.Enable
}
