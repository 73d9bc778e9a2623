package validator

import (
	"fmt"

	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/handler"
)

// validateCondition checks one node of a condition tree and recurses into
// its subs.
func (v *Validator) validateCondition(cond *ast.ConditionNode, path string) *rglErrors.ConfigurationError {
	if cond == nil {
		return rglErrors.New("condition is nil").WithPath(path)
	}

	hasOperation := cond.Operation != ""
	hasSubs := len(cond.Subs) > 0

	switch {
	case hasOperation && hasSubs:
		return rglErrors.New("condition has both an operation and subs; a condition is either a leaf or a compound").
			WithPath(path).WithLocation(cond.Location)
	case !hasOperation && !hasSubs:
		return rglErrors.New("condition has neither an operation nor subs").
			WithPath(path).WithLocation(cond.Location).
			WithSuggestion("Add 'operation' for a leaf or 'subs' for a compound condition")
	}

	if hasSubs {
		for i, sub := range cond.Subs {
			if err := v.validateCondition(sub, fmt.Sprintf("%s.subs[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}

	spec, ok := ast.LookupOperation(cond.Operation)
	if !ok {
		return rglErrors.New("unknown operation kind %q", cond.Operation).
			WithPath(path).WithLocation(cond.Location).
			WithSuggestion(rglErrors.SuggestKind(string(cond.Operation), ast.OperationKinds()))
	}

	if !spec.SelfDescribing && cond.Source == "" {
		return rglErrors.New("operation %q compares a field and requires a source", spec.Kind).
			WithPath(path).WithLocation(cond.Location).
			WithSuggestion(rglErrors.SuggestMissingField("source", "order.total"))
	}

	if spec.Dispatch.IsExtensible() {
		if cond.Target == "" {
			return rglErrors.New("operation %q requires a target naming the %s handler", spec.Kind, spec.Dispatch).
				WithPath(path).WithLocation(cond.Location)
		}
		if err := v.probe(spec.Dispatch, cond.Target, handler.CapabilityCondition); err != nil {
			return err.WithPath(path).WithLocation(cond.Location)
		}
		return nil
	}

	if err := check(spec.Intrinsic, cond.Target); err != nil {
		return rglErrors.Wrap(err, "target of operation %q is not well-formed", spec.Kind).
			WithPath(path).WithLocation(cond.Location)
	}
	return nil
}
