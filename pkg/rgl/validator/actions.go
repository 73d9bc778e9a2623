package validator

import (
	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/handler"
)

// validateAction checks one action of a rule.
func (v *Validator) validateAction(action *ast.Action, path string) *rglErrors.ConfigurationError {
	if action == nil {
		return rglErrors.New("action is nil").WithPath(path)
	}

	if action.Type == "" {
		return rglErrors.New("action type is required").
			WithPath(path).WithLocation(action.Location).
			WithSuggestion(rglErrors.SuggestMissingField("type", string(ast.ActionNone)))
	}

	spec, ok := ast.LookupActionType(action.Type)
	if !ok {
		return rglErrors.New("unknown action type %q", action.Type).
			WithPath(path).WithLocation(action.Location).
			WithSuggestion(rglErrors.SuggestKind(string(action.Type), ast.ActionTypes()))
	}

	if action.Action == "" {
		if spec.NoOp {
			return nil
		}
		return rglErrors.New("action of type %q requires a non-empty action payload", spec.Type).
			WithPath(path).WithLocation(action.Location).
			WithSuggestion(rglErrors.SuggestMissingField("action", ""))
	}

	if spec.Dispatch.IsExtensible() {
		if err := v.probe(spec.Dispatch, action.Action, handler.CapabilityAction); err != nil {
			return err.WithPath(path).WithLocation(action.Location)
		}
		return nil
	}

	if err := check(spec.Intrinsic, action.Action); err != nil {
		return rglErrors.Wrap(err, "payload of action type %q is not well-formed", spec.Type).
			WithPath(path).WithLocation(action.Location)
	}
	return nil
}
