package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volume_index_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_index_indexer_runs_total",
			Help: "Total number of volume walks",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_indexer_last_run_timestamp",
			Help: "Unix timestamp of the last completed walk",
		},
	)

	IndexerLastRunDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volume_index_indexer_last_run_duration_seconds",
			Help: "Duration of the last walk of each volume in seconds",
		},
		[]string{"volume"},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_index_indexer_files_processed_total",
			Help: "Total number of files recorded by the indexer",
		},
	)

	IndexerFoldersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_index_indexer_folders_processed_total",
			Help: "Total number of directories recorded by the indexer",
		},
	)

	IndexerSkippedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_index_indexer_skipped_entries_total",
			Help: "Total number of unreadable paths skipped during walks",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_indexer_running",
			Help: "Whether a walk is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_indexer_parallel_workers",
			Help: "Number of workers used by the last walk",
		},
	)
)

// Snapshot and cache metrics
var (
	SnapshotOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_snapshot_operations_total",
			Help: "Total number of snapshot loads and saves by outcome",
		},
		[]string{"operation", "status"},
	)

	SnapshotOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volume_index_snapshot_operation_duration_seconds",
			Help:    "Snapshot load/save duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	SnapshotSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_snapshot_size_bytes",
			Help: "Size of the snapshot file last read or written",
		},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volume_index_cache_entries",
			Help: "Number of cached entries per volume",
		},
		[]string{"volume"},
	)

	CacheNames = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volume_index_cache_names",
			Help: "Number of distinct base names per volume",
		},
		[]string{"volume"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_cache_lookups_total",
			Help: "Total number of name lookups by result",
		},
		[]string{"result"}, // "hit" or "miss"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volume_index_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_filesystem_retry_attempts_total",
			Help: "Total number of retries after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volume_index_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "volume_index_memory_paused",
			Help: "Whether directory walks are paused for memory (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_index_memory_gc_pauses_total",
			Help: "Total number of times walks were paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volume_index_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
