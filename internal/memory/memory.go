package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"volume-index/internal/logging"
	"volume-index/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// LimitBytes is the memory limit (0 = use GOMEMLIMIT, if any)
	LimitBytes int64

	// HighWaterMark is the usage ratio below which paused work resumes
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which work pauses
	CriticalWaterMark float64

	// CheckInterval is how often usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor samples heap usage and pauses callers of WaitIfPaused while it is
// critical. A nil *Monitor never pauses.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	stopOnce sync.Once
	done     chan struct{}

	mu        sync.RWMutex
	lastAlloc uint64
	paused    bool
	resumed   chan struct{}
}

// NewMonitor creates a monitor. Without an explicit limit it uses GOMEMLIMIT.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", FormatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		done:      make(chan struct{}),
		resumed:   make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling. It does nothing when no limit is configured.
func (m *Monitor) Start() {
	if m == nil || m.limit == 0 {
		return
	}
	go m.run()
}

// Stop ends sampling and releases any paused callers.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.readAlloc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastAlloc = alloc
	if m.limit <= 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing directory walks", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming directory walks", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumed)
		m.resumed = make(chan struct{})
	}
}

// WaitIfPaused blocks while memory is critical. It returns false if ctx is
// done or the monitor is stopped while waiting.
func (m *Monitor) WaitIfPaused(ctx context.Context) bool {
	if m == nil {
		return true
	}

	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resumed := m.resumed
	m.mu.RUnlock()

	select {
	case <-resumed:
		return true
	case <-ctx.Done():
		return false
	case <-m.done:
		return false
	}
}

// IsPaused reports whether work is currently paused
func (m *Monitor) IsPaused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Stats returns the last sampled heap allocation, the limit and their ratio
func (m *Monitor) Stats() (current, limit int64, usage float64) {
	if m == nil {
		return 0, 0, 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = int64(min(m.lastAlloc, uint64(1<<63-1)))
	if m.limit > 0 {
		usage = float64(m.lastAlloc) / float64(m.limit)
	}
	return current, m.limit, usage
}
