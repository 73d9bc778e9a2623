package ast

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// Dispatch tells the resolver where the handler of a kind comes from.
type Dispatch int

const (
	// DispatchIntrinsic kinds own a ready-made handler.
	DispatchIntrinsic Dispatch = iota

	// DispatchScript kinds load a named user script through the script factory.
	DispatchScript

	// DispatchNative kinds construct a registered native type through the
	// class locator.
	DispatchNative
)

// String returns the dispatch name.
func (d Dispatch) String() string {
	switch d {
	case DispatchIntrinsic:
		return "intrinsic"
	case DispatchScript:
		return "script"
	case DispatchNative:
		return "native"
	default:
		return fmt.Sprintf("dispatch(%d)", int(d))
	}
}

// IsExtensible returns true for dispatches that resolve a handler dynamically.
func (d Dispatch) IsExtensible() bool {
	return d == DispatchScript || d == DispatchNative
}

// OperationKind selects how a condition leaf is evaluated.
type OperationKind string

// Built-in operation kinds.
const (
	OperationEqual        OperationKind = handler.OpEqual
	OperationNotEqual     OperationKind = handler.OpNotEqual
	OperationGreater      OperationKind = handler.OpGreater
	OperationGreaterEqual OperationKind = handler.OpGreaterEqual
	OperationLess         OperationKind = handler.OpLess
	OperationLessEqual    OperationKind = handler.OpLessEqual
	OperationContains     OperationKind = handler.OpContains
	OperationNotContains  OperationKind = handler.OpNotContains
	OperationIn           OperationKind = handler.OpIn
	OperationNotIn        OperationKind = handler.OpNotIn
	OperationStartsWith   OperationKind = handler.OpStartsWith
	OperationEndsWith     OperationKind = handler.OpEndsWith
	OperationMatches      OperationKind = handler.OpMatches

	OperationCEL       OperationKind = "cel"
	OperationExpr      OperationKind = "expr"
	OperationComponent OperationKind = "component"
	OperationAlways    OperationKind = "always"
	OperationScript    OperationKind = "script"
	OperationClass     OperationKind = "class"
)

// ParseOperationKind normalizes an operation tag. Tags are case-insensitive.
func ParseOperationKind(s string) OperationKind {
	return OperationKind(strings.ToLower(strings.TrimSpace(s)))
}

// ActionType selects how an action is performed.
type ActionType string

// Built-in action types.
const (
	ActionNone      ActionType = "none"
	ActionCEL       ActionType = "cel"
	ActionExpr      ActionType = "expr"
	ActionComponent ActionType = "component"
	ActionScript    ActionType = "script"
	ActionClass     ActionType = "class"
)

// ParseActionType normalizes an action type tag. Tags are case-insensitive.
func ParseActionType(s string) ActionType {
	return ActionType(strings.ToLower(strings.TrimSpace(s)))
}

// OperationSpec is one variant of the operation kind table.
type OperationSpec struct {
	Kind     OperationKind
	Dispatch Dispatch

	// SelfDescribing kinds evaluate an expression, a script, a class or a
	// component rather than a named field, so Source may be empty.
	SelfDescribing bool

	// Intrinsic is the handler owned by an intrinsic kind. It is the same
	// value on every lookup and must be nil for extensible kinds.
	Intrinsic handler.Condition
}

// ActionSpec is one variant of the action type table.
type ActionSpec struct {
	Type     ActionType
	Dispatch Dispatch

	// NoOp types accept an empty payload.
	NoOp bool

	// Intrinsic is the handler owned by an intrinsic type. It must be nil
	// for extensible types.
	Intrinsic handler.Action
}

var (
	kindsMu     sync.RWMutex
	operations  = map[OperationKind]OperationSpec{}
	actionTypes = map[ActionType]ActionSpec{}
)

func init() {
	celEngine, err := handler.NewCELEngine()
	if err != nil {
		panic(fmt.Sprintf("ast: %v", err))
	}

	for _, op := range []OperationKind{
		OperationEqual, OperationNotEqual,
		OperationGreater, OperationGreaterEqual, OperationLess, OperationLessEqual,
		OperationContains, OperationNotContains, OperationIn, OperationNotIn,
		OperationStartsWith, OperationEndsWith, OperationMatches,
	} {
		operations[op] = OperationSpec{
			Kind:      op,
			Dispatch:  DispatchIntrinsic,
			Intrinsic: handler.NewComparator(string(op)),
		}
	}

	for _, spec := range []OperationSpec{
		{Kind: OperationCEL, Dispatch: DispatchIntrinsic, SelfDescribing: true, Intrinsic: &handler.CELCondition{Engine: celEngine}},
		{Kind: OperationExpr, Dispatch: DispatchIntrinsic, SelfDescribing: true, Intrinsic: handler.NewExprCondition()},
		{Kind: OperationComponent, Dispatch: DispatchIntrinsic, SelfDescribing: true, Intrinsic: handler.ComponentCondition{}},
		{Kind: OperationAlways, Dispatch: DispatchIntrinsic, SelfDescribing: true, Intrinsic: handler.Always{}},
		{Kind: OperationScript, Dispatch: DispatchScript, SelfDescribing: true},
		{Kind: OperationClass, Dispatch: DispatchNative, SelfDescribing: true},
	} {
		operations[spec.Kind] = spec
	}

	for _, spec := range []ActionSpec{
		{Type: ActionNone, Dispatch: DispatchIntrinsic, NoOp: true, Intrinsic: handler.None{}},
		{Type: ActionCEL, Dispatch: DispatchIntrinsic, Intrinsic: &handler.CELAction{Engine: celEngine}},
		{Type: ActionExpr, Dispatch: DispatchIntrinsic, Intrinsic: handler.NewExprAction()},
		{Type: ActionComponent, Dispatch: DispatchIntrinsic, Intrinsic: handler.ComponentAction{}},
		{Type: ActionScript, Dispatch: DispatchScript},
		{Type: ActionClass, Dispatch: DispatchNative},
	} {
		actionTypes[spec.Type] = spec
	}
}

// LookupOperation returns the table entry for kind.
func LookupOperation(kind OperationKind) (OperationSpec, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	spec, ok := operations[ParseOperationKind(string(kind))]
	return spec, ok
}

// LookupActionType returns the table entry for t.
func LookupActionType(t ActionType) (ActionSpec, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	spec, ok := actionTypes[ParseActionType(string(t))]
	return spec, ok
}

// RegisterOperationKind adds a kind to the operation table.
// Registering an existing kind is an error.
func RegisterOperationKind(spec OperationSpec) error {
	kind := ParseOperationKind(string(spec.Kind))
	if kind == "" {
		return fmt.Errorf("operation kind is required")
	}
	spec.Kind = kind

	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, exists := operations[kind]; exists {
		return fmt.Errorf("operation kind %q already registered", kind)
	}
	operations[kind] = spec
	return nil
}

// RegisterActionType adds a type to the action table.
// Registering an existing type is an error.
func RegisterActionType(spec ActionSpec) error {
	t := ParseActionType(string(spec.Type))
	if t == "" {
		return fmt.Errorf("action type is required")
	}
	spec.Type = t

	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, exists := actionTypes[t]; exists {
		return fmt.Errorf("action type %q already registered", t)
	}
	actionTypes[t] = spec
	return nil
}

// OperationKinds returns all registered operation kinds, sorted.
func OperationKinds() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	kinds := make([]string, 0, len(operations))
	for k := range operations {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return kinds
}

// ActionTypes returns all registered action types, sorted.
func ActionTypes() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	types := make([]string, 0, len(actionTypes))
	for t := range actionTypes {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return types
}
