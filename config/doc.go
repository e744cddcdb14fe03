// Package config provides configuration loading and validation for this
// system's process: platform identity, the WebSocket transport listener,
// and the optional metrics/health/log side-channels.
//
// # Core Components
//
// Config: the main configuration structure, containing platform identity,
// transport listener settings, and optional metrics/health/NATS endpoints.
//
// SafeConfig: thread-safe wrapper using RWMutex and deep cloning to prevent
// concurrent access issues and accidental mutations.
//
// Loader: loads configuration with layer merging (base + overrides) and
// environment variable substitution for flexible deployment scenarios.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	export INTERCOM_PLATFORM_ID="prod-cluster-01"
//	export INTERCOM_TRANSPORT_LISTEN_ADDR=":9090"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"platform": {"id": "dev"}, "transport": {"listen_addr": ":8080"}}
//
//	production.json:
//	  {"platform": {"id": "prod"}}
//
//	Result:
//	  {"platform": {"id": "prod"}, "transport": {"listen_addr": ":8080"}}
//
// # Security
//
// The package includes file-loading hardening carried over unchanged:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
package config
