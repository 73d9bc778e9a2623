package handler

import "context"

// Capability names the interface an extensible handler must implement to be
// bound to a condition or an action.
type Capability string

const (
	// CapabilityCondition is implemented by values satisfying Condition.
	CapabilityCondition Capability = "condition"

	// CapabilityAction is implemented by values satisfying Action.
	CapabilityAction Capability = "action"
)

// Implements reports whether v provides the capability.
func (c Capability) Implements(v any) bool {
	switch c {
	case CapabilityCondition:
		_, ok := v.(Condition)
		return ok
	case CapabilityAction:
		_, ok := v.(Action)
		return ok
	default:
		return false
	}
}

// ConditionInput carries everything a condition handler sees at evaluation time.
type ConditionInput struct {
	// Facts is the fact set the rule group is evaluated against.
	Facts map[string]any

	// Source is the field reference of the condition (dot notation).
	Source string

	// Target is the comparison operand, expression text, component name or
	// script identifier, depending on the operation kind.
	Target string

	// Components resolves named components for the component kind.
	Components ComponentLookup
}

// ActionInput carries everything an action handler sees at execution time.
type ActionInput struct {
	Facts      map[string]any
	Payload    string
	Params     map[string]any
	Components ComponentLookup
}

// Condition evaluates one leaf of a rule's condition tree.
type Condition interface {
	Evaluate(ctx context.Context, in ConditionInput) (bool, error)
}

// Action performs one step of a rule's action list.
type Action interface {
	Execute(ctx context.Context, in ActionInput) (any, error)
}

// Checker is implemented by intrinsic handlers that can check the
// well-formedness of the text they will receive (an expression, a component
// name) without evaluating it.
type Checker interface {
	Check(text string) error
}

// ComponentLookup resolves named components supplied by the runtime.
type ComponentLookup interface {
	LookupComponent(name string) (any, bool)
}

// Components is a map-backed ComponentLookup.
type Components map[string]any

// LookupComponent implements ComponentLookup.
func (c Components) LookupComponent(name string) (any, bool) {
	v, ok := c[name]
	return v, ok
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(ctx context.Context, in ConditionInput) (bool, error)

// Evaluate implements Condition.
func (f ConditionFunc) Evaluate(ctx context.Context, in ConditionInput) (bool, error) {
	return f(ctx, in)
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func(ctx context.Context, in ActionInput) (any, error)

// Execute implements Action.
func (f ActionFunc) Execute(ctx context.Context, in ActionInput) (any, error) {
	return f(ctx, in)
}
