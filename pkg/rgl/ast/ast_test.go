package ast

import (
	"strings"
	"testing"

	"mercator-hq/rulec/pkg/rgl/handler"
)

// TestRuleGroup_Flags tests flag defaults
func TestRuleGroup_Flags(t *testing.T) {
	g := &RuleGroup{}
	if g.IsMatchAll() {
		t.Error("IsMatchAll() = true, want false by default")
	}
	if !g.IsEnabled() {
		t.Error("IsEnabled() = false, want true by default")
	}

	g.MatchAll = Bool(true)
	g.Enable = Bool(false)
	if !g.IsMatchAll() {
		t.Error("IsMatchAll() = false, want true")
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
}

// TestRuleGroup_GetRule tests rule lookup by name
func TestRuleGroup_GetRule(t *testing.T) {
	g := &RuleGroup{Rules: []*Rule{{Name: "a"}, {Name: "b"}}}
	if r := g.GetRule("b"); r == nil || r.Name != "b" {
		t.Errorf("GetRule(b) = %v, want rule b", r)
	}
	if g.HasRule("c") {
		t.Error("HasRule(c) = true, want false")
	}
	if got := strings.Join(g.RuleNames(), ","); got != "a,b" {
		t.Errorf("RuleNames() = %q, want %q", got, "a,b")
	}
}

// TestLookupOperation tests the built-in operation table
func TestLookupOperation(t *testing.T) {
	tests := []struct {
		kind           OperationKind
		wantDispatch   Dispatch
		selfDescribing bool
		hasIntrinsic   bool
	}{
		{kind: OperationEqual, wantDispatch: DispatchIntrinsic, hasIntrinsic: true},
		{kind: OperationMatches, wantDispatch: DispatchIntrinsic, hasIntrinsic: true},
		{kind: OperationCEL, wantDispatch: DispatchIntrinsic, selfDescribing: true, hasIntrinsic: true},
		{kind: OperationExpr, wantDispatch: DispatchIntrinsic, selfDescribing: true, hasIntrinsic: true},
		{kind: OperationComponent, wantDispatch: DispatchIntrinsic, selfDescribing: true, hasIntrinsic: true},
		{kind: OperationAlways, wantDispatch: DispatchIntrinsic, selfDescribing: true, hasIntrinsic: true},
		{kind: OperationScript, wantDispatch: DispatchScript, selfDescribing: true},
		{kind: OperationClass, wantDispatch: DispatchNative, selfDescribing: true},
		{kind: "CEL", wantDispatch: DispatchIntrinsic, selfDescribing: true, hasIntrinsic: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec, ok := LookupOperation(tt.kind)
			if !ok {
				t.Fatalf("LookupOperation(%q) not found", tt.kind)
			}
			if spec.Dispatch != tt.wantDispatch {
				t.Errorf("Dispatch = %v, want %v", spec.Dispatch, tt.wantDispatch)
			}
			if spec.SelfDescribing != tt.selfDescribing {
				t.Errorf("SelfDescribing = %v, want %v", spec.SelfDescribing, tt.selfDescribing)
			}
			if (spec.Intrinsic != nil) != tt.hasIntrinsic {
				t.Errorf("Intrinsic = %v, want present %v", spec.Intrinsic, tt.hasIntrinsic)
			}
		})
	}

	if _, ok := LookupOperation("between"); ok {
		t.Error("LookupOperation(between) found, want not found")
	}
}

// TestLookupOperation_IntrinsicIsStable tests that intrinsic handlers are a pure function of the kind
func TestLookupOperation_IntrinsicIsStable(t *testing.T) {
	for _, kind := range []OperationKind{OperationEqual, OperationCEL, OperationExpr, OperationAlways} {
		first, _ := LookupOperation(kind)
		second, _ := LookupOperation(kind)
		if first.Intrinsic != second.Intrinsic {
			t.Errorf("LookupOperation(%q) returned different intrinsic handlers", kind)
		}
	}
}

// TestLookupActionType tests the built-in action table
func TestLookupActionType(t *testing.T) {
	spec, ok := LookupActionType("None")
	if !ok || !spec.NoOp || spec.Intrinsic == nil {
		t.Errorf("LookupActionType(None) = %+v, %v, want no-op intrinsic", spec, ok)
	}
	spec, ok = LookupActionType(ActionScript)
	if !ok || spec.Dispatch != DispatchScript || spec.Intrinsic != nil {
		t.Errorf("LookupActionType(script) = %+v, %v, want extensible script type", spec, ok)
	}
	if _, ok := LookupActionType("email"); ok {
		t.Error("LookupActionType(email) found, want not found")
	}
}

// TestRegisterOperationKind tests registration and duplicate rejection
func TestRegisterOperationKind(t *testing.T) {
	err := RegisterOperationKind(OperationSpec{
		Kind:           "Test_Custom_Kind",
		Dispatch:       DispatchIntrinsic,
		SelfDescribing: true,
		Intrinsic:      handler.Always{},
	})
	if err != nil {
		t.Fatalf("RegisterOperationKind() error = %v", err)
	}
	if _, ok := LookupOperation("test_custom_kind"); !ok {
		t.Error("registered kind not found")
	}
	if err := RegisterOperationKind(OperationSpec{Kind: "test_custom_kind"}); err == nil {
		t.Error("RegisterOperationKind(duplicate) expected error, got nil")
	}
	if err := RegisterOperationKind(OperationSpec{Kind: OperationEqual}); err == nil {
		t.Error("RegisterOperationKind(built-in) expected error, got nil")
	}
	if err := RegisterOperationKind(OperationSpec{Kind: " "}); err == nil {
		t.Error("RegisterOperationKind(blank) expected error, got nil")
	}
}

// TestRegisterActionType tests registration and duplicate rejection
func TestRegisterActionType(t *testing.T) {
	if err := RegisterActionType(ActionSpec{Type: "test_custom_action", Intrinsic: handler.None{}}); err != nil {
		t.Fatalf("RegisterActionType() error = %v", err)
	}
	if err := RegisterActionType(ActionSpec{Type: ActionNone}); err == nil {
		t.Error("RegisterActionType(built-in) expected error, got nil")
	}
}

type countingVisitor struct {
	groups, rules, conditions, actions int
	order                              []string
}

func (v *countingVisitor) VisitGroup(g *RuleGroup) error {
	v.groups++
	v.order = append(v.order, "g:"+g.Name)
	return nil
}

func (v *countingVisitor) VisitRule(r *Rule) error {
	v.rules++
	v.order = append(v.order, "r:"+r.Name)
	return nil
}

func (v *countingVisitor) VisitCondition(c *ConditionNode) error {
	v.conditions++
	v.order = append(v.order, "c:"+c.Source)
	return nil
}

func (v *countingVisitor) VisitAction(a *Action) error {
	v.actions++
	v.order = append(v.order, "a:"+a.Action)
	return nil
}

// TestWalk tests depth-first traversal order
func TestWalk(t *testing.T) {
	g := &RuleGroup{
		Name: "g",
		Rules: []*Rule{
			{
				Name: "r1",
				When: []*ConditionNode{
					{Source: "outer", Subs: []*ConditionNode{
						{Source: "inner1"},
						{Source: "inner2", Subs: []*ConditionNode{{Source: "deep"}}},
					}},
				},
				Then: []*Action{{Action: "act1"}},
			},
			{Name: "r2", When: []*ConditionNode{{Source: "leaf"}}},
		},
	}

	v := &countingVisitor{}
	if err := Walk(g, v); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := "g:g r:r1 c:outer c:inner1 c:inner2 c:deep a:act1 r:r2 c:leaf"
	if got := strings.Join(v.order, " "); got != want {
		t.Errorf("Walk() order = %q, want %q", got, want)
	}
	if v.conditions != 5 || v.actions != 1 || v.rules != 2 {
		t.Errorf("Walk() counts = %d/%d/%d, want 2/5/1", v.rules, v.conditions, v.actions)
	}
}

// TestLocation_String tests location formatting
func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{loc: Location{File: "rules.yaml", Line: 3, Column: 5}, want: "rules.yaml:3:5"},
		{loc: Location{Line: 2, Column: 1}, want: "2:1"},
		{loc: Location{}, want: "<unknown>"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("Location.String() = %q, want %q", got, tt.want)
		}
	}
}
