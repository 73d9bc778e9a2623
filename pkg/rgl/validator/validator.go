package validator

import (
	"fmt"

	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/handler"
)

// Loader obtains extensible handlers. The resolver implements it, so the
// eager probe performed here is the same lookup that later binds the handler.
type Loader interface {
	Load(dispatch ast.Dispatch, identifier string, capability handler.Capability) (any, error)
}

// Validator checks rule groups depth-first and stops at the first violation.
type Validator struct {
	loader Loader
}

// NewValidator creates a validator that probes extensible handlers through
// loader. With a nil loader every extensible kind fails validation.
func NewValidator(loader Loader) *Validator {
	return &Validator{loader: loader}
}

// Validate returns a *errors.ConfigurationError describing the first
// violation found in group, or nil.
func (v *Validator) Validate(group *ast.RuleGroup) error {
	if group == nil {
		return rglErrors.New("rule group is nil")
	}
	if err := v.validateGroup(group); err != nil {
		return err
	}

	for _, rule := range group.Rules {
		if err := v.validateRule(group, rule); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateGroup(group *ast.RuleGroup) error {
	if group.Name == "" {
		return rglErrors.New("rule group name is required").
			WithLocation(group.Location).
			WithSuggestion(rglErrors.SuggestMissingField("name", "my-group"))
	}
	if group.Project == "" {
		return rglErrors.New("rule group project is required").
			WithGroup(group.Name).
			WithLocation(group.Location).
			WithSuggestion(rglErrors.SuggestMissingField("project", "my-project"))
	}
	if len(group.Rules) == 0 {
		return rglErrors.New("rule group must contain at least one rule").
			WithGroup(group.Name).
			WithLocation(group.Location)
	}
	if group.DefaultRule != "" && !group.HasRule(group.DefaultRule) {
		return rglErrors.New("default rule %q does not name a rule in the group", group.DefaultRule).
			WithGroup(group.Name).
			WithLocation(group.Location).
			WithSuggestion(rglErrors.SuggestRuleName(group.DefaultRule, group.RuleNames()))
	}

	seen := make(map[string]bool, len(group.Rules))
	for _, rule := range group.Rules {
		if rule == nil || rule.Name == "" {
			continue
		}
		if seen[rule.Name] {
			return rglErrors.New("duplicate rule name %q", rule.Name).
				WithGroup(group.Name).
				WithRule(rule.Name).
				WithLocation(rule.Location)
		}
		seen[rule.Name] = true
	}
	return nil
}

func (v *Validator) validateRule(group *ast.RuleGroup, rule *ast.Rule) error {
	if rule == nil {
		return rglErrors.New("rule is nil").WithGroup(group.Name)
	}
	if rule.Name == "" {
		return rglErrors.New("rule name is required").
			WithGroup(group.Name).
			WithLocation(rule.Location).
			WithSuggestion(rglErrors.SuggestMissingField("name", "my-rule"))
	}
	if len(rule.When) == 0 {
		return rglErrors.New("rule must have at least one condition").
			WithGroup(group.Name).
			WithRule(rule.Name).
			WithLocation(rule.Location)
	}

	for i, cond := range rule.When {
		if err := v.validateCondition(cond, fmt.Sprintf("when[%d]", i)); err != nil {
			return annotate(err, group, rule)
		}
	}
	for i, action := range rule.Then {
		if err := v.validateAction(action, fmt.Sprintf("then[%d]", i)); err != nil {
			return annotate(err, group, rule)
		}
	}
	return nil
}

// annotate sets the group and rule names on a ConfigurationError.
func annotate(err *rglErrors.ConfigurationError, group *ast.RuleGroup, rule *ast.Rule) error {
	if err.Group == "" {
		err.Group = group.Name
	}
	if err.Rule == "" {
		err.Rule = rule.Name
	}
	return err
}

// probe eagerly loads an extensible handler so that unresolvable references
// fail validation instead of surfacing at resolve time.
func (v *Validator) probe(dispatch ast.Dispatch, identifier string, capability handler.Capability) *rglErrors.ConfigurationError {
	if v.loader == nil {
		return rglErrors.New("%s handler %q cannot be checked: no loader configured", dispatch, identifier)
	}
	if _, err := v.loader.Load(dispatch, identifier, capability); err != nil {
		if cfgErr, ok := rglErrors.AsConfigurationError(err); ok {
			return cfgErr
		}
		return rglErrors.Wrap(err, "%s handler %q cannot be loaded", dispatch, identifier)
	}
	return nil
}

// check runs the well-formedness check of an intrinsic handler, if it has one.
func check(h any, text string) error {
	if checker, ok := h.(handler.Checker); ok {
		return checker.Check(text)
	}
	return nil
}
