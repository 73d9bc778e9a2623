package handler

import "context"

// Always is the condition bound to leaves that carry no operation.
type Always struct{}

// Evaluate implements Condition.
func (Always) Evaluate(context.Context, ConditionInput) (bool, error) {
	return true, nil
}

// None is the action bound to actions that carry no type.
type None struct{}

// Execute implements Action.
func (None) Execute(context.Context, ActionInput) (any, error) {
	return nil, nil
}
