package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"quickopen/internal/logging"
	"quickopen/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// LimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	LimitBytes int64

	// PauseAt is the fraction of the limit at which indexing pauses (0.0-1.0)
	PauseAt float64

	// ResumeAt is the fraction below which paused indexing resumes (0.0-1.0)
	ResumeAt float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() Config {
	return Config{
		PauseAt:       0.85,
		ResumeAt:      0.7,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage and tells the index loop to hold off while
// usage is above the pause watermark. Searches are never paused.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	current uint64
	paused  bool
}

// NewMonitor creates a memory monitor. Without an explicit limit it falls
// back to GOMEMLIMIT; with neither, it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, indexing backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		stopChan: make(chan struct{}),
	}
}

// Start begins sampling in the background. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.monitorLoop()
}

// Stop stops sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stopChan:
			return
		}
	}
}

// observe records a heap sample and moves between the paused and running
// states. Between the two watermarks the current state is kept.
func (m *Monitor) observe(alloc uint64) {
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.config.PauseAt && !m.paused:
		logging.Warn("Memory at %.1f%% of limit, pausing indexing", usage*100)
		m.paused = true
		metrics.MemoryIndexingPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case usage < m.config.ResumeAt && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming indexing", usage*100)
		m.paused = false
		metrics.MemoryIndexingPaused.Set(0)
	}
}

// IsPaused reports whether indexing should hold off.
func (m *Monitor) IsPaused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap size, the limit, and their ratio.
// The ratio is 0 when no limit is configured.
func (m *Monitor) Usage() (current, limit int64, ratio float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = math.MaxInt64
	if m.current <= math.MaxInt64 {
		current = int64(m.current)
	}
	if m.limit > 0 {
		ratio = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, ratio
}
