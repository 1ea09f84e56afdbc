package metrics

import (
	"runtime"
	"time"

	"quickopen/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	IndexedFiles   int
	WatchedDirs    int
	IgnorePatterns int
	Shards         int
}

// Collector periodically collects and updates metrics
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
	// Collect immediately on start
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
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	IndexedFiles.Set(float64(stats.IndexedFiles))
	WatchedDirectories.Set(float64(stats.WatchedDirs))
	IgnorePatterns.Set(float64(stats.IgnorePatterns))
	ShardCount.Set(float64(stats.Shards))

	logging.Debug("Metrics collected: files=%d, dirs=%d, ignores=%d, shards=%d",
		stats.IndexedFiles, stats.WatchedDirs, stats.IgnorePatterns, stats.Shards)
}
