package database

import (
	"time"

	"quickopen/internal/metrics"
)

// Status values reported by Status.
const (
	StatusSynchronized    = "synchronized"
	StatusIndexing        = "indexing"
	StatusNotSynchronized = "not_synchronized"
)

// Status describes the database for the status endpoint.
type Status struct {
	Status      string    `json:"status"`
	Ready       bool      `json:"ready"`
	Dirty       bool      `json:"dirty"`
	Indexing    bool      `json:"indexing"`
	Progress    string    `json:"progress,omitempty"`
	RunID       string    `json:"runId,omitempty"`
	NumFiles    int       `json:"numFiles"`
	NumShards   int       `json:"numShards"`
	Dirs        []string  `json:"dirs"`
	Ignores     []string  `json:"ignores"`
	LastIndexed time.Time `json:"lastIndexed,omitempty"`
	BuildTime   string    `json:"buildTime,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// Status returns a snapshot of the database state.
func (d *Database) Status() Status {
	dirs, _ := d.Dirs()
	ignores, _ := d.Ignores()
	if dirs == nil {
		dirs = []string{}
	}
	if ignores == nil {
		ignores = []string{}
	}

	st := Status{
		Dirty:   d.dirty.Load(),
		Dirs:    dirs,
		Ignores: ignores,
	}

	if snap := d.snap.Load(); snap != nil {
		st.Ready = true
		st.NumFiles = snap.numFiles
		st.NumShards = snap.manager.NumShards()
		st.LastIndexed = snap.builtAt
		st.RunID = snap.runID
		st.BuildTime = snap.buildTime.String()
	}

	d.mu.Lock()
	if d.indexer != nil {
		p := d.indexer.Progress()
		st.Indexing = true
		st.Progress = p.String()
		st.RunID = p.RunID
	}
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
	}
	d.mu.Unlock()

	switch {
	case st.Ready && !st.Indexing && !st.Dirty:
		st.Status = StatusSynchronized
	case st.Indexing || st.Dirty:
		st.Status = StatusIndexing
	default:
		st.Status = StatusNotSynchronized
	}
	return st
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	st := d.Status()
	return metrics.Stats{
		IndexedFiles:   st.NumFiles,
		WatchedDirs:    len(st.Dirs),
		IgnorePatterns: len(st.Ignores),
		Shards:         st.NumShards,
	}
}
