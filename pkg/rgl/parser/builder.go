package parser

import (
	"mercator-hq/rulec/pkg/rgl/ast"
	"mercator-hq/rulec/pkg/rgl/document"
)

// Build converts one rule group node into a RuleGroup. It never fails:
// absent optional attributes keep their zero value, flags stay nil unless
// present, and ordering is preserved exactly.
func Build(node *document.Node) *ast.RuleGroup {
	group := &ast.RuleGroup{
		Name:        text(node, "name"),
		Project:     text(node, "project"),
		MatchAll:    flag(node, "matchAll"),
		Enable:      flag(node, "enable"),
		DefaultRule: text(node, "defaultRule"),
		Location:    node.Location(),
	}

	for _, ruleNode := range node.List("rules") {
		group.Rules = append(group.Rules, buildRule(ruleNode))
	}

	return group
}

func buildRule(node *document.Node) *ast.Rule {
	rule := &ast.Rule{
		Name:        text(node, "name"),
		Description: text(node, "description"),
		Enable:      flag(node, "enable"),
		Location:    node.Location(),
	}

	for _, condNode := range node.List("when") {
		rule.When = append(rule.When, buildCondition(condNode))
	}
	for _, actionNode := range node.List("then") {
		rule.Then = append(rule.Then, buildAction(actionNode))
	}

	return rule
}

func buildCondition(node *document.Node) *ast.ConditionNode {
	cond := &ast.ConditionNode{
		Source:    text(node, "source"),
		Target:    text(node, "target"),
		Operation: ast.ParseOperationKind(text(node, "operation")),
		Enable:    flag(node, "enable"),
		Relation:  text(node, "relation"),
		Location:  node.Location(),
	}

	for _, sub := range node.List("subs") {
		cond.Subs = append(cond.Subs, buildCondition(sub))
	}

	return cond
}

func buildAction(node *document.Node) *ast.Action {
	action := &ast.Action{
		Action:   text(node, "action"),
		Type:     ast.ParseActionType(text(node, "type")),
		Location: node.Location(),
	}

	if params, ok := node.Get("params"); ok && params.IsMapping() {
		var decoded map[string]any
		if err := params.Decode(&decoded); err == nil {
			action.Params = decoded
		}
	}

	return action
}

// text returns the scalar at key, or "" when absent.
func text(node *document.Node, key string) string {
	v, _ := node.String(key)
	return v
}

// flag returns a pointer to the boolean at key, or nil when absent.
func flag(node *document.Node, key string) *bool {
	if v, ok := node.Bool(key); ok {
		return &v
	}
	return nil
}
