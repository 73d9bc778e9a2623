// Package resolver binds every condition and action of a rule group to a
// concrete handler.
//
// Intrinsic kinds bind the handler owned by the kind table entry. Script
// kinds load a handler through a script.Factory and native kinds construct
// one through a class locator. The resolver runs after validation but does
// not rely on it: leaves without an operation become "always" and actions
// without a type become "none".
package resolver

import (
	"fmt"
	"log/slog"

	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/handler"
	"mercator-hq/rulec/pkg/rgl/locator"
	"mercator-hq/rulec/pkg/rgl/script"
)

// ClassLocator resolves class paths to constructors.
type ClassLocator interface {
	Resolve(path string) (locator.Constructor, bool)
}

// Resolver binds handlers to rule group entities.
type Resolver struct {
	scripts script.Factory
	classes ClassLocator
	logger  *slog.Logger
}

// New creates a resolver. A nil scripts factory makes every script kind
// unresolvable; a nil classes locator falls back to locator.Default.
func New(scripts script.Factory, classes ClassLocator) *Resolver {
	if classes == nil {
		classes = locator.Default
	}
	return &Resolver{
		scripts: scripts,
		classes: classes,
		logger:  slog.Default().With("component", "rgl.resolver"),
	}
}

// WithLogger sets the logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger.With("component", "rgl.resolver")
	}
	return r
}

// Load obtains an extensible handler for identifier and checks that it
// implements capability. Every failure is a ConfigurationError naming the
// identifier.
func (r *Resolver) Load(dispatch ast.Dispatch, identifier string, capability handler.Capability) (any, error) {
	switch dispatch {
	case ast.DispatchScript:
		return r.loadScript(identifier, capability)
	case ast.DispatchNative:
		return r.loadClass(identifier, capability)
	default:
		return nil, rglErrors.New("dispatch %s does not load handlers", dispatch)
	}
}

func (r *Resolver) loadScript(identifier string, capability handler.Capability) (any, error) {
	if r.scripts == nil {
		return nil, rglErrors.New("script %q cannot be loaded: no script factory configured", identifier)
	}
	h, err := r.scripts.Load(identifier, capability)
	if err != nil {
		return nil, rglErrors.Wrap(err, "script %q cannot be loaded", identifier)
	}
	if h == nil {
		return nil, rglErrors.New("script %q loaded as nil", identifier)
	}
	if !capability.Implements(h) {
		return nil, rglErrors.New("script %q does not implement the %s capability", identifier, capability)
	}
	return h, nil
}

func (r *Resolver) loadClass(path string, capability handler.Capability) (any, error) {
	ctor, ok := r.classes.Resolve(path)
	if !ok {
		return nil, rglErrors.New("class path %q not found", path)
	}

	h, err := instantiate(ctor)
	if err != nil {
		return nil, rglErrors.Wrap(err, "class %q cannot be instantiated", path)
	}
	if h == nil {
		return nil, rglErrors.New("class %q constructed nil", path)
	}
	if !capability.Implements(h) {
		return nil, rglErrors.New("class %q does not implement the %s capability", path, capability)
	}
	return h, nil
}

// instantiate calls ctor, turning a panic into an error.
func instantiate(ctor locator.Constructor) (h any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("constructor panicked: %v", p)
		}
	}()
	return ctor()
}

// Resolve binds a handler to every condition leaf and action of group.
// Intrinsic kinds bind the same handler on every call; extensible kinds
// call the script factory or class locator again each time.
func (r *Resolver) Resolve(group *ast.RuleGroup) error {
	if group == nil {
		return rglErrors.New("rule group is nil")
	}

	for _, rule := range group.Rules {
		if rule == nil {
			return rglErrors.New("rule is nil").WithGroup(group.Name)
		}
		for i, cond := range rule.When {
			if err := r.resolveCondition(cond, fmt.Sprintf("when[%d]", i)); err != nil {
				return annotate(err, group, rule)
			}
		}
		for i, action := range rule.Then {
			if err := r.resolveAction(action, fmt.Sprintf("then[%d]", i)); err != nil {
				return annotate(err, group, rule)
			}
		}
	}

	r.logger.Debug("Rule group resolved",
		"group", group.Name,
		"project", group.Project,
		"rules", len(group.Rules),
	)
	return nil
}

func (r *Resolver) resolveCondition(cond *ast.ConditionNode, path string) error {
	if cond == nil {
		return rglErrors.New("condition is nil").WithPath(path)
	}

	if cond.Operation == "" {
		if cond.IsLeaf() {
			cond.Operation = ast.OperationAlways
		} else {
			cond.Handler = nil
		}
	}

	if cond.Operation != "" {
		h, err := r.bindCondition(cond)
		if err != nil {
			return withPath(err, path, cond.Location)
		}
		cond.Handler = h
	}

	for i, sub := range cond.Subs {
		if err := r.resolveCondition(sub, fmt.Sprintf("%s.subs[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) bindCondition(cond *ast.ConditionNode) (handler.Condition, error) {
	spec, ok := ast.LookupOperation(cond.Operation)
	if !ok {
		return nil, rglErrors.New("unknown operation kind %q", cond.Operation).
			WithSuggestion(rglErrors.SuggestKind(string(cond.Operation), ast.OperationKinds()))
	}

	switch spec.Dispatch {
	case ast.DispatchIntrinsic:
		if spec.Intrinsic == nil {
			return nil, rglErrors.New("intrinsic operation kind %q has no handler", spec.Kind)
		}
		return spec.Intrinsic, nil

	case ast.DispatchScript, ast.DispatchNative:
		if spec.Intrinsic != nil {
			return nil, rglErrors.New("operation kind %q owns an intrinsic handler and cannot load a %s handler", spec.Kind, spec.Dispatch)
		}
		h, err := r.Load(spec.Dispatch, cond.Target, handler.CapabilityCondition)
		if err != nil {
			return nil, err
		}
		return h.(handler.Condition), nil

	default:
		return nil, rglErrors.New("operation kind %q has unknown dispatch %s", spec.Kind, spec.Dispatch)
	}
}

func (r *Resolver) resolveAction(action *ast.Action, path string) error {
	if action == nil {
		return rglErrors.New("action is nil").WithPath(path)
	}

	if action.Type == "" {
		action.Type = ast.ActionNone
	}

	h, err := r.bindAction(action)
	if err != nil {
		return withPath(err, path, action.Location)
	}
	action.Handler = h
	return nil
}

func (r *Resolver) bindAction(action *ast.Action) (handler.Action, error) {
	spec, ok := ast.LookupActionType(action.Type)
	if !ok {
		return nil, rglErrors.New("unknown action type %q", action.Type).
			WithSuggestion(rglErrors.SuggestKind(string(action.Type), ast.ActionTypes()))
	}

	switch spec.Dispatch {
	case ast.DispatchIntrinsic:
		if spec.Intrinsic == nil {
			return nil, rglErrors.New("intrinsic action type %q has no handler", spec.Type)
		}
		return spec.Intrinsic, nil

	case ast.DispatchScript, ast.DispatchNative:
		if spec.Intrinsic != nil {
			return nil, rglErrors.New("action type %q owns an intrinsic handler and cannot load a %s handler", spec.Type, spec.Dispatch)
		}
		h, err := r.Load(spec.Dispatch, action.Action, handler.CapabilityAction)
		if err != nil {
			return nil, err
		}
		return h.(handler.Action), nil

	default:
		return nil, rglErrors.New("action type %q has unknown dispatch %s", spec.Type, spec.Dispatch)
	}
}

// withPath sets the element path and location on a ConfigurationError.
func withPath(err error, path string, loc ast.Location) error {
	if cfgErr, ok := rglErrors.AsConfigurationError(err); ok {
		if cfgErr.Path == "" {
			cfgErr.Path = path
		}
		if !cfgErr.Location.IsValid() {
			cfgErr.Location = loc
		}
	}
	return err
}

// annotate sets the group and rule names on a ConfigurationError.
func annotate(err error, group *ast.RuleGroup, rule *ast.Rule) error {
	if cfgErr, ok := rglErrors.AsConfigurationError(err); ok {
		if cfgErr.Group == "" {
			cfgErr.Group = group.Name
		}
		if cfgErr.Rule == "" {
			cfgErr.Rule = rule.Name
		}
	}
	return err
}
