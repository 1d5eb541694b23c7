package disks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"volume-index/internal/cache"
	"volume-index/internal/indexer"
	"volume-index/internal/logging"
	"volume-index/internal/volumes"
)

// State is where the service is in its one-shot initialization.
type State int

const (
	// Uninitialized: no Disks call has completed initialization yet.
	Uninitialized State = iota
	// Loaded: the index came from the snapshot.
	Loaded
	// Built: the index was built by walking every volume.
	Built
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loaded:
		return "loaded"
	case Built:
		return "built"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const defaultDiskName = "Local Disk"

// Disk is one mounted volume as reported to clients.
type Disk struct {
	Name        string          `json:"name"`
	MountPoint  string          `json:"mount_point"`
	FSType      string          `json:"fs_type"`
	AvailableGB uint64          `json:"available_gb"`
	UsedGB      uint64          `json:"used_gb"`
	TotalGB     uint64          `json:"total_gb"`
	Folders     volumes.Folders `json:"fs"`
}

// Config holds the service's dependencies.
type Config struct {
	Store        *cache.Store
	Enumerator   volumes.Enumerator
	Folders      volumes.FolderResolver
	SnapshotPath string
	Walker       indexer.ParallelWalkerConfig

	// Lifetime bounds initialization. Only its cancellation (process
	// shutdown) stops a build; callers' contexts never do. Defaults to
	// context.Background().
	Lifetime context.Context
}

// Service is the volume indexing service.
type Service struct {
	store        *cache.Store
	enumerator   volumes.Enumerator
	folders      volumes.FolderResolver
	snapshotPath string
	walker       indexer.ParallelWalkerConfig
	lifetime     context.Context

	// walk indexes one volume; replaced in tests.
	walk func(ctx context.Context, root string, config indexer.ParallelWalkerConfig) (*cache.Bucket, indexer.WalkReport)

	mu          sync.RWMutex
	state       State
	running     *initRun
	lastReports []indexer.WalkReport
	initTime    time.Time
	lastErr     error
}

// initRun is one initialization attempt shared by every caller that
// arrives while it is in progress.
type initRun struct {
	done chan struct{}
	err  error
}

// New creates a service. Nothing is read from disk until the first Disks call.
func New(cfg Config) *Service {
	if cfg.Store == nil {
		cfg.Store = cache.NewStore()
	}
	if cfg.Lifetime == nil {
		cfg.Lifetime = context.Background()
	}
	return &Service{
		store:        cfg.Store,
		enumerator:   cfg.Enumerator,
		folders:      cfg.Folders,
		snapshotPath: cfg.SnapshotPath,
		walker:       cfg.Walker,
		lifetime:     cfg.Lifetime,
		walk:         indexer.IndexVolume,
	}
}

// Disks enumerates the mounted volumes, initializing the index on the first call.
func (s *Service) Disks(ctx context.Context) ([]Disk, error) {
	vols, err := s.enumerator.Volumes(ctx)
	if err != nil {
		return nil, cache.NewError(cache.IoFailure, "", fmt.Errorf("enumerate volumes: %w", err))
	}

	if err := s.ensureInitialized(ctx, vols); err != nil {
		return nil, err
	}

	folders, err := s.folders.Resolve()
	if err != nil {
		return nil, cache.NewError(cache.IoFailure, "", err)
	}

	disks := make([]Disk, 0, len(vols))
	for _, v := range vols {
		disks = append(disks, newDisk(v, folders))
	}
	return disks, nil
}

// EnsureInitialized runs initialization against the current volumes if it
// has not run yet. Disks calls it implicitly.
func (s *Service) EnsureInitialized(ctx context.Context) error {
	if s.State() != Uninitialized {
		return nil
	}
	vols, err := s.enumerator.Volumes(ctx)
	if err != nil {
		return cache.NewError(cache.IoFailure, "", fmt.Errorf("enumerate volumes: %w", err))
	}
	return s.ensureInitialized(ctx, vols)
}

// ensureInitialized starts initialization, or joins the one in progress,
// and waits for it. ctx only bounds the wait: a caller that gives up leaves
// the build running under the service lifetime.
func (s *Service) ensureInitialized(ctx context.Context, vols []volumes.Volume) error {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return nil
	}
	run := s.running
	if run == nil {
		run = &initRun{done: make(chan struct{})}
		s.running = run
		go s.runInit(run, vols)
	}
	s.mu.Unlock()

	select {
	case <-run.done:
		return run.err
	case <-ctx.Done():
		return fmt.Errorf("waiting for volume index: %w", context.Cause(ctx))
	}
}

func (s *Service) runInit(run *initRun, vols []volumes.Volume) {
	err := s.initialize(s.lifetime, vols, time.Now())

	s.mu.Lock()
	s.lastErr = err
	s.running = nil
	s.mu.Unlock()

	run.err = err
	close(run.done)
}

func (s *Service) initialize(ctx context.Context, vols []volumes.Volume, start time.Time) error {
	if cache.SnapshotExists(s.snapshotPath) {
		err := s.store.Load(s.snapshotPath)
		if err == nil {
			s.setState(Loaded, nil, start)
			logging.Info("Volume index loaded from %s (%d volumes)", s.snapshotPath, len(s.store.Volumes()))
			return nil
		}
		logging.Error("Failed to load snapshot %s, rebuilding: %v", s.snapshotPath, err)
	}

	if err := cache.CreateSnapshotFile(s.snapshotPath); err != nil {
		return err
	}

	reports, err := s.build(ctx, vols)
	if err != nil {
		// Leave no placeholder behind, so the next start builds without
		// first failing to load it.
		if rmErr := cache.RemoveSnapshot(s.snapshotPath); rmErr != nil {
			logging.Warn("Failed to remove unfinished snapshot: %v", rmErr)
		}
		return err
	}

	if err := s.store.Save(s.snapshotPath); err != nil {
		// The in-memory index is complete and stays usable.
		s.setState(Built, reports, start)
		return err
	}

	s.setState(Built, reports, start)
	logging.Info("Volume index built for %d volumes in %v", len(reports), time.Since(start))
	return nil
}

// build walks each volume in turn. Buckets are published only once every
// volume is walked, so a build canceled part way publishes nothing.
func (s *Service) build(ctx context.Context, vols []volumes.Volume) ([]indexer.WalkReport, error) {
	reports := make([]indexer.WalkReport, 0, len(vols))
	buckets := make([]*cache.Bucket, 0, len(vols))
	for _, v := range vols {
		logging.Info("Indexing volume %s", v.MountPoint)

		bucket, report := s.walk(ctx, v.MountPoint, s.walker)
		if report.Canceled {
			return nil, fmt.Errorf("indexing %s: %w", v.MountPoint, context.Cause(ctx))
		}
		buckets = append(buckets, bucket)
		reports = append(reports, report)
	}

	for i, v := range vols {
		s.store.Put(v.MountPoint, buckets[i])
	}
	return reports, nil
}

func (s *Service) setState(state State, reports []indexer.WalkReport, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastReports = reports
	s.initTime = start
}

// Search returns the entries named name on one volume. Never nil.
func (s *Service) Search(volumeID, name string) []cache.CachedEntry {
	return s.store.Lookup(volumeID, name)
}

// SearchAll returns the entries named name on every volume that has any.
func (s *Service) SearchAll(name string) map[string][]cache.CachedEntry {
	return s.store.Search(name)
}

// State returns the current initialization state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastReports returns the walk reports of the build, if the service built.
func (s *Service) LastReports() []indexer.WalkReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]indexer.WalkReport(nil), s.lastReports...)
}

// InitializedAt returns when initialization started, or the zero time.
func (s *Service) InitializedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initTime
}

// LastError returns the error of the most recent initialization attempt.
// It is nil before the first attempt and after a clean one.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// VolumeStats returns per-volume name and entry counts.
func (s *Service) VolumeStats() []cache.VolumeStats {
	return s.store.VolumeStats()
}

// Store returns the underlying cache store.
func (s *Service) Store() *cache.Store {
	return s.store
}

// SnapshotPath returns the path of the snapshot file.
func (s *Service) SnapshotPath() string {
	return s.snapshotPath
}

func newDisk(v volumes.Volume, folders volumes.Folders) Disk {
	name := v.Name
	if name == "" {
		name = defaultDiskName
	}
	return Disk{
		Name:        name,
		MountPoint:  v.MountPoint,
		FSType:      v.FSType,
		AvailableGB: bytesToGB(v.AvailableBytes),
		UsedGB:      bytesToGB(v.UsedBytes),
		TotalGB:     bytesToGB(v.TotalBytes),
		Folders:     folders,
	}
}

// bytesToGB converts to whole gibibytes, rounding down.
func bytesToGB(b uint64) uint64 {
	return b >> 30
}
