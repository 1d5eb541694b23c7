package indexer

import (
	"context"
	"time"

	"volume-index/internal/cache"
	"volume-index/internal/logging"
	"volume-index/internal/metrics"
)

// IndexVolume walks root into a fresh bucket and records run metrics. The
// bucket is returned whatever the outcome; callers should only publish it
// when the report is not Canceled.
func IndexVolume(ctx context.Context, root string, config ParallelWalkerConfig) (*cache.Bucket, WalkReport) {
	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	bucket := cache.NewBucket()
	walker := NewParallelWalker(root, bucket, config)
	report := walker.Walk(ctx)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.WithLabelValues(root).Set(report.Duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(report.Files))
	metrics.IndexerFoldersProcessed.Add(float64(report.Directories))
	metrics.IndexerSkippedEntries.Add(float64(len(report.Skipped)))

	if err := report.Err(); err != nil {
		logging.Warn("Index of %s is partial: %v", root, err)
	}
	return bucket, report
}
