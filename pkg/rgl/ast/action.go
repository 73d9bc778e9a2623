package ast

import "mercator-hq/rulec/pkg/rgl/handler"

// Action is one step of a rule's action list. The meaning of the payload
// (Action field) depends on Type: expression text, component name, script
// identifier or class path.
type Action struct {
	Action string
	Type   ActionType
	Params map[string]any

	// Handler is bound by the resolver.
	Handler handler.Action

	Location Location
}
