package metrics

// InitializeMetrics pre-populates the known label combinations so every
// series is exported from the first scrape. volumes are the labels produced
// by the filesystem volume resolver.
func InitializeMetrics(volumes []string) {
	volumes = append(volumes, "unknown")

	for _, vol := range volumes {
		for _, op := range []string{"stat", "lstat", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"load", "save"} {
		SnapshotOperationsTotal.WithLabelValues(op, "success")
		SnapshotOperationsTotal.WithLabelValues(op, "io_error")
		SnapshotOperationDuration.WithLabelValues(op)
	}

	SnapshotOperationsTotal.WithLabelValues("load", "corrupt")
	SnapshotOperationsTotal.WithLabelValues("save", "serialization_error")

	CacheLookupsTotal.WithLabelValues("hit")
	CacheLookupsTotal.WithLabelValues("miss")
}
