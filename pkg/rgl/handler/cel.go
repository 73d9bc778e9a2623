package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// DefaultCELCostLimit bounds the runtime cost of a single CEL evaluation.
const DefaultCELCostLimit = 1000000

// CELEngine compiles and caches CEL programs. Expressions see three
// variables: facts (the fact map), source (the value of the condition's
// source field, or null) and params (action parameters).
type CELEngine struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]celProgram
}

type celProgram struct {
	prog cel.Program
	out  *cel.Type
}

// NewCELEngine creates an engine with the standard variable declarations.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("facts", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("source", cel.DynType),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &CELEngine{
		env:      env,
		programs: make(map[string]celProgram),
	}, nil
}

// Check parses and type-checks an expression without evaluating it.
func (e *CELEngine) Check(text string) error {
	_, err := e.program(text)
	return err
}

// CheckBool is Check for expressions used as conditions: the checked output
// type must be bool or dyn.
func (e *CELEngine) CheckBool(text string) error {
	p, err := e.program(text)
	if err != nil {
		return err
	}
	if !p.out.IsExactType(cel.BoolType) && !p.out.IsExactType(cel.DynType) {
		return fmt.Errorf("condition must evaluate to bool, got %s", p.out)
	}
	return nil
}

func (e *CELEngine) program(text string) (celProgram, error) {
	e.mu.RLock()
	p, ok := e.programs[text]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	ast, issues := e.env.Compile(text)
	if issues != nil && issues.Err() != nil {
		return celProgram{}, fmt.Errorf("compile error: %w", issues.Err())
	}
	prog, err := e.env.Program(ast, cel.CostLimit(DefaultCELCostLimit))
	if err != nil {
		return celProgram{}, fmt.Errorf("program creation error: %w", err)
	}
	p = celProgram{prog: prog, out: ast.OutputType()}

	e.mu.Lock()
	e.programs[text] = p
	e.mu.Unlock()
	return p, nil
}

func (e *CELEngine) eval(ctx context.Context, text string, vars map[string]any) (any, error) {
	p, err := e.program(text)
	if err != nil {
		return nil, err
	}
	out, _, err := p.prog.ContextEval(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluation error: %w", err)
	}
	return out.Value(), nil
}

// CELCondition evaluates the condition target as a CEL expression. Check
// rejects expressions whose checked type is not bool; a dyn expression that
// yields a non-boolean at runtime is treated as false.
type CELCondition struct {
	Engine *CELEngine
}

// Check implements Checker.
func (c *CELCondition) Check(text string) error {
	return c.Engine.CheckBool(text)
}

// Evaluate implements Condition.
func (c *CELCondition) Evaluate(ctx context.Context, in ConditionInput) (bool, error) {
	source, _ := LookupField(in.Facts, in.Source)
	out, err := c.Engine.eval(ctx, in.Target, map[string]any{
		"facts":  nonNilFacts(in.Facts),
		"source": source,
		"params": map[string]any{},
	})
	if err != nil {
		return false, err
	}
	matched, _ := out.(bool)
	return matched, nil
}

// CELAction evaluates the action payload as a CEL expression and returns the
// resulting value.
type CELAction struct {
	Engine *CELEngine
}

// Check implements Checker.
func (a *CELAction) Check(text string) error {
	return a.Engine.Check(text)
}

// Execute implements Action.
func (a *CELAction) Execute(ctx context.Context, in ActionInput) (any, error) {
	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	return a.Engine.eval(ctx, in.Payload, map[string]any{
		"facts":  nonNilFacts(in.Facts),
		"source": nil,
		"params": params,
	})
}

func nonNilFacts(facts map[string]any) map[string]any {
	if facts == nil {
		return map[string]any{}
	}
	return facts
}
