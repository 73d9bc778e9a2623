package ast

// Visitor provides an interface for traversing a rule group.
type Visitor interface {
	VisitGroup(*RuleGroup) error
	VisitRule(*Rule) error
	VisitCondition(*ConditionNode) error
	VisitAction(*Action) error
}

// Walk traverses the group depth-first in document order: the group, then
// each rule followed by its condition trees and its actions. It returns the
// first error encountered.
func Walk(group *RuleGroup, visitor Visitor) error {
	if err := visitor.VisitGroup(group); err != nil {
		return err
	}

	for _, rule := range group.Rules {
		if err := visitor.VisitRule(rule); err != nil {
			return err
		}

		for _, cond := range rule.When {
			if err := walkCondition(cond, visitor); err != nil {
				return err
			}
		}

		for _, action := range rule.Then {
			if err := visitor.VisitAction(action); err != nil {
				return err
			}
		}
	}

	return nil
}

// walkCondition recursively walks a condition tree.
func walkCondition(cond *ConditionNode, visitor Visitor) error {
	if err := visitor.VisitCondition(cond); err != nil {
		return err
	}
	for _, sub := range cond.Subs {
		if err := walkCondition(sub, visitor); err != nil {
			return err
		}
	}
	return nil
}
