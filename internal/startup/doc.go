// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is layered: built-in defaults, then the optional TOML file
// named by QUICKOPEN_CONFIG, then environment variables. [LoadConfig]
// resolves all three. The following environment variables are supported:
//
//   - PORT: HTTP API port (default: 10248)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATABASE_DIR: Directory holding settings.db (default: ~/.quickopen)
//   - INDEX_INTERVAL: Periodic full rescan interval as Go duration (default: 10m)
//   - STEP_INTERVAL: Pause between indexing steps (default: 50ms)
//   - STEP_BUDGET: Time budget of one indexing step (default: 250ms)
//   - INITIAL_DIRS: Colon-separated directories added when none are configured
//   - REINDEX_RATE: Manual reindex requests allowed per minute (default: 6)
//   - LOG_FILE: Rotating log file path (default: stderr only)
//   - LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS: Log rotation
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// The TOML file uses snake_case keys of the same names, for example:
//
//	port = "10248"
//	initial_dirs = ["/home/me/src"]
//	index_interval = "5m"
//
// # Build Information
//
// Version, Commit and BuildTime are injected at build time via -ldflags:
//
//	go build -ldflags "-X quickopen/internal/startup.Version=1.0.0"
package startup
