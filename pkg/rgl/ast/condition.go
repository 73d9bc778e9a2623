package ast

import "mercator-hq/rulec/pkg/rgl/handler"

// ConditionNode is either a leaf (Operation set, no Subs) or a compound node
// (Subs set, no Operation). Relation is carried through for the runtime and
// is not interpreted by the compiler.
type ConditionNode struct {
	Source    string
	Target    string
	Operation OperationKind
	Enable    *bool
	Relation  string
	Subs      []*ConditionNode

	// Handler is bound by the resolver. It stays nil on compound nodes.
	Handler handler.Condition

	Location Location
}

// IsLeaf returns true if the node has no children.
func (c *ConditionNode) IsLeaf() bool {
	return len(c.Subs) == 0
}

// IsEnabled reports whether the condition is enabled. Defaults to true.
func (c *ConditionNode) IsEnabled() bool {
	return c.Enable == nil || *c.Enable
}

// Relation tags commonly used between sibling conditions.
const (
	RelationAnd = "and"
	RelationOr  = "or"
)
