// Package ast provides the typed entities of the Rule Group Language (RGL).
//
// # Core Types
//
// RuleGroup: named bundle of rules for one project
//
// Rule: a condition tree ("when") and an ordered action list ("then")
//
// ConditionNode: a leaf with an operation kind, or a compound node with subs
//
// Action: a payload interpreted according to its action type
//
// Location: source location (file, line, column)
//
// # Kind Tables
//
// OperationKind and ActionType are tags into two closed-but-extensible tables.
// Every entry is tagged with a Dispatch:
//
//	DispatchIntrinsic  the entry owns its handler (comparators, cel, expr,
//	                   component, always, none)
//	DispatchScript     the handler is a named user script
//	DispatchNative     the handler is a registered native type
//
// Hosts may add entries with RegisterOperationKind and RegisterActionType.
//
// # Structure
//
//	RuleGroup
//	└── Rules ([]*Rule)
//	    ├── When ([]*ConditionNode)
//	    │   └── Subs ([]*ConditionNode, recursive)
//	    └── Then ([]*Action)
//
// Entities are built once by the parser and are only mutated by the resolver,
// which fills defaulted kinds and attaches handlers.
package ast
