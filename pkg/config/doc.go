// Package config provides configuration management for rulec.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("rulec.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RULEC_SECTION_FIELD:
//
//   - RULEC_RULES_PATHS overrides rules.paths (comma-separated)
//   - RULEC_REMOTE_URL overrides remote.url
//   - RULEC_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	rules:
//	  paths: ["./rules"]
//	  watch: true
//	scripts:
//	  dir: "./scripts"
//	remote:
//	  enabled: true
//	  url: "https://config.example.com/rules.yaml"
//	  schedule: "@every 30s"
//	journal:
//	  enabled: true
//	  path: "data/journal.db"
//	  retention_days: 30
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    enabled: true
//
// For process-wide access, Initialize stores the loaded configuration and
// GetConfig returns it.
package config
