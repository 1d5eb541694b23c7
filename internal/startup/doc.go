// Package startup handles configuration loading, build information and
// startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads configuration with cleanenv, from the YAML file named by
// CONFIG_PATH when set, then from environment variables, which take
// precedence. Supported variables ([Usage] prints the same list):
//
//   - SNAPSHOT_PATH: Path of the JSON index snapshot (default: ./disk_cache.json)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - INDEX_WORKERS: Directory walk workers, 0 for automatic (default: 0)
//   - INDEX_SKIP_HIDDEN: Leave dot-files out of the index (default: false)
//   - INDEX_ON_START: Initialize the index at startup (default: false)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit in bytes for GOMEMLIMIT
//   - MEMORY_RATIO: Share of MEMORY_LIMIT for the Go heap (default: 0.9)
//
// The snapshot path is made absolute and its directory must exist and be
// writable; the snapshot file itself is created on first build.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X volume-index/internal/startup.Version=1.2.0 \
//	  -X volume-index/internal/startup.Commit=$(git rev-parse --short HEAD)"
//
// # Lifecycle Logging
//
// Each startup phase logs a banner section: [LogMemoryConfig],
// [LogIndexInit], [LogHTTPRoutes] and [LogServerStarted], followed on exit by
// [LogShutdownInitiated] and [LogShutdownComplete].
package startup
