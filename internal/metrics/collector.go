package metrics

import (
	"time"

	"volume-index/internal/logging"
)

// VolumeStats is the per-volume summary the collector publishes.
type VolumeStats struct {
	Volume  string `json:"volume"`
	Names   int    `json:"names"`
	Entries int    `json:"entries"`
}

// StatsProvider reports the current contents of the cache
type StatsProvider interface {
	VolumeStats() []VolumeStats
}

// Collector periodically copies cache statistics into gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	total := 0
	for _, s := range c.statsProvider.VolumeStats() {
		CacheEntries.WithLabelValues(s.Volume).Set(float64(s.Entries))
		CacheNames.WithLabelValues(s.Volume).Set(float64(s.Names))
		total += s.Entries
	}

	logging.Debug("Metrics collected: %d cached entries", total)
}
