// Package manager compiles rule groups and hands them to a registry.
//
// Manager is the entry point. It accepts rule groups from four sources:
//
//	mgr.InitializeFromObject(group)          // caller-built ast.RuleGroup
//	mgr.InitializeFromText(text)             // YAML or JSON document
//	mgr.InitializeFromFile("rules.yaml")     // document on disk
//	mgr.InitializeFromRemote(remote.Default) // remotely managed snapshot
//
// Each rule group is validated, resolved and registered on its own. A
// failing group aborts the call, but groups of the same document that were
// registered before it are not rolled back.
//
// GroupRegistry is the in-memory Registrar used by the CLI. Journal records
// every compile attempt in SQLite, and FileWatcher reloads rule documents
// when they change on disk.
//
// # Hot Reload
//
//	mgr, err := manager.NewManager(manager.NewGroupRegistry(), scripts, nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := mgr.LoadPaths([]string{"rules/"}); err != nil {
//	    log.Printf("some rule documents failed: %v", err)
//	}
//	go mgr.Watch(ctx, []string{"rules/"}, 200*time.Millisecond)
package manager
