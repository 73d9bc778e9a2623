package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoComponents is returned when a component handler runs without a lookup.
var ErrNoComponents = errors.New("no component lookup configured")

// ComponentCondition delegates to a named component supplied by the runtime.
// The component must implement Condition.
type ComponentCondition struct{}

// Check implements Checker.
func (ComponentCondition) Check(text string) error {
	return checkComponentName(text)
}

// Evaluate implements Condition.
func (ComponentCondition) Evaluate(ctx context.Context, in ConditionInput) (bool, error) {
	v, err := lookupComponent(in.Components, in.Target)
	if err != nil {
		return false, err
	}
	cond, ok := v.(Condition)
	if !ok {
		return false, fmt.Errorf("component %q does not implement %s", in.Target, CapabilityCondition)
	}
	return cond.Evaluate(ctx, in)
}

// ComponentAction delegates to a named component supplied by the runtime.
// The component must implement Action.
type ComponentAction struct{}

// Check implements Checker.
func (ComponentAction) Check(text string) error {
	return checkComponentName(text)
}

// Execute implements Action.
func (ComponentAction) Execute(ctx context.Context, in ActionInput) (any, error) {
	v, err := lookupComponent(in.Components, in.Payload)
	if err != nil {
		return nil, err
	}
	act, ok := v.(Action)
	if !ok {
		return nil, fmt.Errorf("component %q does not implement %s", in.Payload, CapabilityAction)
	}
	return act.Execute(ctx, in)
}

func checkComponentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("component name is empty")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("component name %q contains whitespace", name)
	}
	return nil
}

func lookupComponent(lookup ComponentLookup, name string) (any, error) {
	if lookup == nil {
		return nil, ErrNoComponents
	}
	v, ok := lookup.LookupComponent(name)
	if !ok {
		return nil, fmt.Errorf("component %q not found", name)
	}
	return v, nil
}
