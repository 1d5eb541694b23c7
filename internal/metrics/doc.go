// Package metrics provides Prometheus instrumentation for the volume index
// service. All metrics are prefixed with "volume_index_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerFilesProcessed, IndexerFoldersProcessed: entries recorded
//   - IndexerSkippedEntries: unreadable paths the walk stepped over
//   - IndexerIsRunning, IndexerParallelWorkers
//
// ## Snapshot and Cache Metrics
//
//   - SnapshotOperationsTotal: loads and saves by status
//   - SnapshotOperationDuration, SnapshotSizeBytes
//   - CacheEntries, CacheNames: per-volume gauges refreshed by Collector
//   - CacheLookupsTotal: name lookups by hit/miss
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer implemented by
// NewFilesystemObserver, labelled by the volume resolver:
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess,
//     FilesystemRetryFailures, FilesystemStaleErrors
//
// # Usage
//
// Metrics register with the default registry on package init (promauto).
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package metrics
