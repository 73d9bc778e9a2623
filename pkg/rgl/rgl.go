package rgl

import (
	"mercator-hq/rulec/pkg/rgl/ast"
	"mercator-hq/rulec/pkg/rgl/parser"
	"mercator-hq/rulec/pkg/rgl/resolver"
	"mercator-hq/rulec/pkg/rgl/script"
	"mercator-hq/rulec/pkg/rgl/validator"
)

// Compile validates group and binds its handlers. A nil classes locator
// falls back to locator.Default.
func Compile(group *ast.RuleGroup, scripts script.Factory, classes resolver.ClassLocator) error {
	r := resolver.New(scripts, classes)

	if err := validator.NewValidator(r).Validate(group); err != nil {
		return err
	}

	return r.Resolve(group)
}

// ParseAndCompile parses a rule document and compiles every group under
// parser.GroupsPath. It stops at the first group that fails and returns the
// groups compiled before it.
func ParseAndCompile(name, text string, scripts script.Factory, classes resolver.ClassLocator) ([]*ast.RuleGroup, error) {
	groups, parseErr := parser.NewParser().ParseGroups(name, text)

	compiled := make([]*ast.RuleGroup, 0, len(groups))
	for _, group := range groups {
		if err := Compile(group, scripts, classes); err != nil {
			return compiled, err
		}
		compiled = append(compiled, group)
	}
	return compiled, parseErr
}

// Lint builds and validates every group of a rule document without binding
// handlers. Script and class references are still loaded once to prove
// they resolve.
func Lint(name, text string, scripts script.Factory, classes resolver.ClassLocator) ([]*ast.RuleGroup, error) {
	groups, parseErr := parser.NewParser().ParseGroups(name, text)

	v := validator.NewValidator(resolver.New(scripts, classes))
	for _, group := range groups {
		if err := v.Validate(group); err != nil {
			return groups, err
		}
	}
	return groups, parseErr
}
