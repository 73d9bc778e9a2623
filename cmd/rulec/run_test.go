package main

import (
	"context"
	"strings"
	"testing"

	"mercator-hq/rulec/pkg/config"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rules/manager"
)

const looseEnableDocument = `ruleengine:
  groups:
    - name: g
      project: p
      enable: maybe
      rules:
        - name: r
          when:
            - operation: always
`

func newTestService(t *testing.T) *service {
	t.Helper()

	registry := manager.NewGroupRegistry()
	mgr, err := manager.NewManager(registry, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return &service{registry: registry, manager: mgr, errs: make(chan error, 1)}
}

// TestService_ApplyRulesParser tests that parser settings follow the rules config
func TestService_ApplyRulesParser(t *testing.T) {
	tests := []struct {
		name     string
		rules    config.RulesConfig
		wantErr  string
		wantPath string
	}{
		{name: "size limit", rules: config.RulesConfig{MaxDocumentSize: 16}, wantErr: "exceeds maximum"},
		{name: "schema check", rules: config.RulesConfig{}, wantErr: "schema", wantPath: "/enable"},
		{name: "schema check skipped", rules: config.RulesConfig{SkipSchemaValidation: true}},
	}

	svc := newTestService(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.applyRules(ctx, tt.rules)

			_, err := svc.manager.InitializeFromText(looseEnableDocument)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("InitializeFromText() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("InitializeFromText() error = %v, want %q", err, tt.wantErr)
			}
			if tt.wantPath == "" {
				return
			}
			cfgErr, ok := rglErrors.AsConfigurationError(err)
			if !ok || cfgErr.Path != tt.wantPath {
				t.Errorf("InitializeFromText() error = %v, want path %q", err, tt.wantPath)
			}
		})
	}
}

// TestService_ApplyRulesWatch tests that the rules watcher is replaced on reapply
func TestService_ApplyRulesWatch(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.applyRules(ctx, config.RulesConfig{Watch: true, Paths: []string{t.TempDir()}})
	first := svc.rulesWatch
	if first == nil {
		t.Fatal("applyRules() with watch on started no watcher")
	}

	svc.applyRules(ctx, config.RulesConfig{Watch: true, Paths: []string{t.TempDir()}})
	select {
	case <-first.done:
	default:
		t.Error("previous rules watcher still running after reapply")
	}
	second := svc.rulesWatch
	if second == nil || second == first {
		t.Fatal("applyRules() did not start a new watcher")
	}

	svc.applyRules(ctx, config.RulesConfig{})
	if svc.rulesWatch != nil {
		t.Error("rules watcher kept after watch was turned off")
	}
	select {
	case <-second.done:
	default:
		t.Error("rules watcher still running after watch was turned off")
	}

	select {
	case err := <-svc.errs:
		t.Errorf("watcher reported error = %v", err)
	default:
	}
}
