// Package rgl compiles rule groups: declarative trees of conditions and
// actions authored as YAML or JSON documents.
//
// Compilation runs in three steps:
//
//   - build: parser.Build turns a document node into an ast.RuleGroup and
//     never fails; absent optional fields keep their zero value
//   - validate: validator.Validator checks the group depth-first and stops
//     at the first violation, loading script and class handlers eagerly
//   - resolve: resolver.Resolver binds a handler to every condition leaf
//     and action
//
// All failures are *errors.ConfigurationError values. Registering compiled
// groups and reloading documents live in package pkg/rules/manager.
//
// Example:
//
//	groups, err := rgl.ParseAndCompile("orders.yaml", text, scripts, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
package rgl
