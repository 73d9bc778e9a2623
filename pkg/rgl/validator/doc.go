// Package validator checks rule groups before they are resolved.
//
// Validation is depth-first and fail-fast: the first violation is returned
// as a *errors.ConfigurationError and nothing else is checked.
//
//  1. Group: name, project and at least one rule; the default rule, if set,
//     names a rule of the group; rule names are unique.
//  2. Rule: name and at least one condition.
//  3. Condition: exactly one of operation and subs; a known operation kind;
//     a source for kinds that compare a field; for extensible kinds an eager
//     load of the handler with the condition capability; for intrinsic kinds
//     a well-formedness check of the target. Subs are validated recursively.
//  4. Action: a known type; a payload unless the type is a no-op; the same
//     eager load or well-formedness check with the action capability.
package validator
