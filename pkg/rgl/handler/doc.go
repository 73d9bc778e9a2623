// Package handler defines the capabilities that bound rule handlers provide
// and the intrinsic handlers shipped with the compiler.
//
// A condition handler implements Condition and an action handler implements
// Action. Capability names these two interfaces so that extensible handlers,
// loaded through a script factory or constructed through the class locator,
// can be checked before they are bound.
//
// # Intrinsic Handlers
//
//	Comparator       eq, ne, gt, gte, lt, lte, contains, not_contains,
//	                 in, not_in, starts_with, ends_with, matches
//	CELCondition     CEL expression (github.com/google/cel-go)
//	ExprCondition    expr-lang expression (github.com/expr-lang/expr)
//	ComponentCondition / ComponentAction
//	                 named component supplied by the runtime
//	Always / None    the defaults for unset kinds
//
// Handlers that implement Checker can verify the text they will receive
// (an expression, a component name) without evaluating it.
//
// The compiler only binds handlers. Evaluate and Execute exist so that a
// runtime holding a compiled rule group can use them directly.
package handler
