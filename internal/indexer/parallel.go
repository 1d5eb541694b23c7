package indexer

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"volume-index/internal/cache"
	"volume-index/internal/filesystem"
	"volume-index/internal/logging"
	"volume-index/internal/memory"
	"volume-index/internal/metrics"
	"volume-index/internal/workers"
)

// maxDefaultWorkers caps the auto-sized pool. An explicit worker count is not capped.
const maxDefaultWorkers = 8

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of parallel workers
	NumWorkers int
	// ChannelBuffer is the size of the job and result channel buffers
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// RetryConfig controls retries of stale NFS handles during directory reads
	RetryConfig filesystem.RetryConfig
	// Memory, when set, pauses workers while heap usage is critical
	Memory *memory.Monitor
}

// DefaultParallelWalkerConfig returns defaults sized for I/O-bound work.
// A positive workerCount is used as the worker count; zero or less sizes
// the pool from GOMAXPROCS.
func DefaultParallelWalkerConfig(workerCount int) ParallelWalkerConfig {
	override := max(workerCount, 0)
	limit := maxDefaultWorkers
	if override > 0 {
		limit = 0
	}

	return ParallelWalkerConfig{
		NumWorkers:    workers.ForIO(override, limit),
		ChannelBuffer: 1000,
		SkipHidden:    false,
		RetryConfig:   filesystem.DefaultRetryConfig(),
	}
}

// dirResult is what a worker reports after listing one directory
type dirResult struct {
	path    string
	subdirs []string
	err     error
}

// ParallelWalker walks one directory tree in parallel into a bucket
type ParallelWalker struct {
	config ParallelWalkerConfig
	root   string
	bucket *cache.Bucket

	ctx    context.Context
	cancel context.CancelFunc

	filesProcessed   atomic.Int64
	foldersProcessed atomic.Int64
	skippedCount     atomic.Int64
}

// NewParallelWalker creates a walker that records everything below root in bucket
func NewParallelWalker(root string, bucket *cache.Bucket, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.ChannelBuffer < 0 {
		config.ChannelBuffer = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ParallelWalker{
		config: config,
		root:   root,
		bucket: bucket,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Walk performs the walk and blocks until it finishes or is canceled via ctx
// or Stop. It never fails; unreadable directories are listed in the report.
func (pw *ParallelWalker) Walk(ctx context.Context) WalkReport {
	logging.Info("Starting parallel directory walk of %s with %d workers", pw.root, pw.config.NumWorkers)
	startTime := time.Now()

	metrics.IndexerParallelWorkers.Set(float64(pw.config.NumWorkers))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(pw.ctx, cancel)
	defer stop()
	if pw.ctx.Err() != nil {
		cancel()
	}

	jobs := make(chan string, pw.config.ChannelBuffer)
	results := make(chan dirResult, pw.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < pw.config.NumWorkers; i++ {
		wg.Add(1)
		go pw.worker(ctx, i, jobs, results, &wg)
	}

	report := WalkReport{Root: pw.root}

	pending := []string{pw.root}
	inFlight := 0
	done := ctx.Done()

	for len(pending) > 0 || inFlight > 0 {
		if done != nil && ctx.Err() != nil {
			pending = nil
			done = nil
			report.Canceled = true
			if inFlight == 0 {
				break
			}
		}

		// A nil channel disables the send case while nothing is pending.
		var send chan<- string
		var next string
		if len(pending) > 0 {
			send = jobs
			next = pending[len(pending)-1]
		}

		select {
		case send <- next:
			pending = pending[:len(pending)-1]
			inFlight++
		case res := <-results:
			inFlight--
			if res.err != nil {
				pw.skippedCount.Add(1)
				report.Skipped = append(report.Skipped, SkippedEntry{Path: res.path, Err: res.err})
				logging.Warn("Skipping unreadable directory %s: %v", res.path, res.err)
			}
			if done != nil {
				pending = append(pending, res.subdirs...)
			}
		case <-done:
			// Handled at the top of the loop.
		}
	}

	close(jobs)
	wg.Wait()

	report.Files = pw.filesProcessed.Load()
	report.Directories = pw.foldersProcessed.Load()
	report.Duration = time.Since(startTime)

	if report.Canceled {
		logging.Warn("Parallel walk of %s canceled after %v", pw.root, report.Duration)
	}
	logging.Info("Parallel walk complete: %d files, %d folders in %v (skipped: %d)",
		report.Files,
		report.Directories,
		report.Duration,
		len(report.Skipped))

	return report
}

// worker lists directories from jobs until the channel is closed
func (pw *ParallelWalker) worker(ctx context.Context, id int, jobs <-chan string, results chan<- dirResult, wg *sync.WaitGroup) {
	defer wg.Done()

	logging.Debug("Worker %d started", id)

	for dir := range jobs {
		// A canceled wait still lists the directory; the dispatcher stops
		// handing out new ones.
		pw.config.Memory.WaitIfPaused(ctx)
		results <- pw.processDirectory(dir)
	}

	logging.Debug("Worker %d finished", id)
}

// processDirectory records the immediate children of dir and returns the
// child directories. Entries read before a listing error are kept.
func (pw *ParallelWalker) processDirectory(dir string) dirResult {
	entries, err := filesystem.ReadDirWithRetry(dir, pw.config.RetryConfig)

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		if pw.config.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(dir, name)

		// DirEntry types come from lstat, so a symlink is never a directory.
		isDir := entry.IsDir()
		pw.bucket.Insert(name, cache.NewEntry(fullPath, isDir))

		if isDir {
			pw.foldersProcessed.Add(1)
			subdirs = append(subdirs, fullPath)
		} else {
			pw.filesProcessed.Add(1)
		}
	}

	return dirResult{path: dir, subdirs: subdirs, err: err}
}

// Stop cancels the walk. Safe to call more than once.
func (pw *ParallelWalker) Stop() {
	pw.cancel()
}

// Stats returns current processing statistics
func (pw *ParallelWalker) Stats() (files, folders, skipped int64) {
	return pw.filesProcessed.Load(), pw.foldersProcessed.Load(), pw.skippedCount.Load()
}
