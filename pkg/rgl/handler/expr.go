package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEnv is the environment expr-lang expressions are compiled against.
type ExprEnv struct {
	Facts  map[string]any `expr:"facts"`
	Source any            `expr:"source"`
	Params map[string]any `expr:"params"`
}

// CompileExpr compiles an expr-lang program for the given capability.
// Condition programs must produce a boolean.
func CompileExpr(text string, capability Capability) (*vm.Program, error) {
	opts := []expr.Option{expr.Env(ExprEnv{})}
	if capability == CapabilityCondition {
		opts = append(opts, expr.AsBool())
	}
	program, err := expr.Compile(text, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return program, nil
}

type exprCache struct {
	capability Capability
	mu         sync.RWMutex
	programs   map[string]*vm.Program
}

func newExprCache(capability Capability) *exprCache {
	return &exprCache{capability: capability, programs: make(map[string]*vm.Program)}
}

func (c *exprCache) program(text string) (*vm.Program, error) {
	c.mu.RLock()
	program, ok := c.programs[text]
	c.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := CompileExpr(text, c.capability)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.programs[text] = program
	c.mu.Unlock()
	return program, nil
}

// ExprCondition evaluates the condition target as an expr-lang expression.
type ExprCondition struct {
	cache *exprCache
}

// NewExprCondition returns an expr-lang condition handler.
func NewExprCondition() *ExprCondition {
	return &ExprCondition{cache: newExprCache(CapabilityCondition)}
}

// Check implements Checker.
func (c *ExprCondition) Check(text string) error {
	_, err := c.cache.program(text)
	return err
}

// Evaluate implements Condition.
func (c *ExprCondition) Evaluate(_ context.Context, in ConditionInput) (bool, error) {
	program, err := c.cache.program(in.Target)
	if err != nil {
		return false, err
	}
	source, _ := LookupField(in.Facts, in.Source)
	return RunExprCondition(program, ExprEnv{Facts: nonNilFacts(in.Facts), Source: source})
}

// RunExprCondition runs a boolean program.
func RunExprCondition(program *vm.Program, env ExprEnv) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluation error: %w", err)
	}
	matched, _ := out.(bool)
	return matched, nil
}

// ExprAction evaluates the action payload as an expr-lang expression.
type ExprAction struct {
	cache *exprCache
}

// NewExprAction returns an expr-lang action handler.
func NewExprAction() *ExprAction {
	return &ExprAction{cache: newExprCache(CapabilityAction)}
}

// Check implements Checker.
func (a *ExprAction) Check(text string) error {
	_, err := a.cache.program(text)
	return err
}

// Execute implements Action.
func (a *ExprAction) Execute(_ context.Context, in ActionInput) (any, error) {
	program, err := a.cache.program(in.Payload)
	if err != nil {
		return nil, err
	}
	out, err := expr.Run(program, ExprEnv{Facts: nonNilFacts(in.Facts), Params: in.Params})
	if err != nil {
		return nil, fmt.Errorf("evaluation error: %w", err)
	}
	return out, nil
}
