package dircache

import (
	"path/filepath"
	"slices"
	"sync"
	"time"

	"quickopen/internal/filesystem"
	"quickopen/internal/logging"
	"quickopen/internal/metrics"
)

type dirEntry struct {
	modTime time.Time
	names   []string
}

// Cache memoizes directory listings by real path.
type Cache struct {
	mu sync.Mutex

	entries   map[string]dirEntry
	realpaths map[string]string

	ignores  []string
	patterns []pattern

	retry filesystem.RetryConfig
}

// New creates a Cache filtering listings through the given ignore patterns.
func New(ignores []string) *Cache {
	c := &Cache{
		entries:   make(map[string]dirEntry),
		realpaths: make(map[string]string),
		retry:     filesystem.DefaultRetryConfig(),
	}
	c.setIgnoresLocked(ignores)
	return c
}

// SetRetryConfig replaces the stat/readdir retry policy.
func (c *Cache) SetRetryConfig(cfg filesystem.RetryConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = cfg
}

// SetIgnores replaces the ignore patterns and invalidates every listing.
func (c *Cache) SetIgnores(patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.entries); n > 0 {
		metrics.DirCacheInvalidations.WithLabelValues("ignores").Add(float64(n))
	}
	c.entries = make(map[string]dirEntry)
	c.setIgnoresLocked(patterns)
}

func (c *Cache) setIgnoresLocked(patterns []string) {
	c.ignores = slices.Clone(patterns)
	c.patterns = compilePatterns(patterns)
}

// Ignores returns a copy of the current ignore patterns.
func (c *Cache) Ignores() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ignores)
}

// IsIgnored reports whether the entry name inside dir is excluded.
func (c *Cache) IsIgnored(dir, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isIgnoredLocked(dir, name)
}

func (c *Cache) isIgnoredLocked(dir, name string) bool {
	var full string
	for _, p := range c.patterns {
		if !p.path {
			if p.glob.Match(name) {
				return true
			}
			continue
		}
		if full == "" {
			full = filepath.Join(dir, name)
		}
		if p.glob.Match(full) {
			return true
		}
	}
	return false
}

// ListDir returns the non-ignored entry names of path in sorted order.
// Missing or unreadable directories yield an empty listing.
func (c *Cache) ListDir(path string) []string {
	real := c.Realpath(path)

	c.mu.Lock()
	retry := c.retry
	c.mu.Unlock()

	info, err := filesystem.StatWithRetry(real, retry)
	if err != nil || !info.IsDir() {
		c.mu.Lock()
		if _, ok := c.entries[real]; ok {
			delete(c.entries, real)
			metrics.DirCacheInvalidations.WithLabelValues("vanished").Inc()
		}
		c.mu.Unlock()
		if err != nil {
			logging.Debug("dircache: stat %s: %v", real, err)
		}
		return nil
	}

	c.mu.Lock()
	if cached, ok := c.entries[real]; ok {
		if cached.modTime.Equal(info.ModTime()) {
			c.mu.Unlock()
			metrics.DirCacheHits.Inc()
			return cached.names
		}
		delete(c.entries, real)
		metrics.DirCacheInvalidations.WithLabelValues("modified").Inc()
	}
	c.mu.Unlock()

	metrics.DirCacheMisses.Inc()

	names, err := filesystem.ReadDirNamesWithRetry(real, retry)
	if err != nil {
		logging.Debug("dircache: readdir %s: %v", real, err)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := names[:0]
	for _, name := range names {
		if !c.isIgnoredLocked(real, name) {
			kept = append(kept, name)
		}
	}
	c.entries[real] = dirEntry{modTime: info.ModTime(), names: kept}
	return kept
}

// Realpath resolves symlinks and makes path absolute. Results are memoized
// until ResetRealpaths. Paths that cannot be resolved fall back to their
// cleaned absolute form.
func (c *Cache) Realpath(path string) string {
	c.mu.Lock()
	if r, ok := c.realpaths[path]; ok {
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	r := resolve(path)

	c.mu.Lock()
	c.realpaths[path] = r
	c.mu.Unlock()
	return r
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	r, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return r
}

// ResetRealpaths forgets memoized real paths.
func (c *Cache) ResetRealpaths() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.realpaths = make(map[string]string)
}

// IsDir reports whether path (following symlinks) is a directory.
func (c *Cache) IsDir(path string) bool {
	c.mu.Lock()
	retry := c.retry
	c.mu.Unlock()

	info, err := filesystem.StatWithRetry(path, retry)
	return err == nil && info.IsDir()
}

// Len returns the number of cached listings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
