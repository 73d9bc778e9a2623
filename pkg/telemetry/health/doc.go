// Package health provides liveness and readiness probes for the rule
// service.
//
// Readiness is the conjunction of named checks. The run command registers
// one for the last rule load, one for the compile journal and, when remote
// polling is enabled, one for the first remote snapshot:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("rules", health.RulesLoaded(status))
//	checker.RegisterCheck("journal", health.Reachable(journal))
//	health.Register(mux, checker, version, commit, buildTime)
//
// The endpoints are:
//
//   - /healthz: the process is running
//   - /readyz: every check passes, otherwise 503
//   - /version: build information
package health
