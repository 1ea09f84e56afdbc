package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"quickopen/internal/dircache"
	"quickopen/internal/logging"
	"quickopen/internal/metrics"
)

const (
	// Directories listed between wall clock checks
	batchSize = 16

	// DefaultStepBudget bounds a single Step call.
	DefaultStepBudget = 250 * time.Millisecond
)

var (
	// ErrNotADirectory is returned by New when a root is missing or not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIncomplete is returned by Freeze before the walk has finished.
	ErrIncomplete = errors.New("indexing incomplete")
)

// Progress is a snapshot of an in-flight or finished walk.
type Progress struct {
	RunID       string    `json:"runId"`
	FilesFound  int       `json:"filesFound"`
	DirsVisited int       `json:"dirsVisited"`
	DirsPending int       `json:"dirsPending"`
	Complete    bool      `json:"complete"`
	StartedAt   time.Time `json:"startedAt"`
}

// String renders the progress the way the status endpoint reports it.
func (p Progress) String() string {
	if p.Complete {
		return fmt.Sprintf("%d files indexed", p.FilesFound)
	}
	return fmt.Sprintf("%d files found, %d dirs pending", p.FilesFound, p.DirsPending)
}

// Indexer is a resumable depth-first walk over a set of root directories.
// It is not safe for concurrent use.
type Indexer struct {
	runID string
	cache *dircache.Cache

	filesByBasename map[string][]string
	pending         []string
	visited         map[string]struct{}

	complete    bool
	numFiles    int
	dirsVisited int
	startTime   time.Time
}

// New creates an Indexer over dirs, listing directories through cache.
// Every root must be an existing directory.
func New(dirs []string, cache *dircache.Cache) (*Indexer, error) {
	cache.ResetRealpaths()

	idx := &Indexer{
		runID:           uuid.NewString(),
		cache:           cache,
		filesByBasename: make(map[string][]string),
		visited:         make(map[string]struct{}),
		startTime:       time.Now(),
	}

	for _, dir := range dirs {
		if !cache.IsDir(dir) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotADirectory)
		}
	}

	// Reverse order onto a LIFO stack so the first root is walked first.
	for i := len(dirs) - 1; i >= 0; i-- {
		idx.push(cache.Realpath(dirs[i]))
	}

	metrics.IndexerRunsTotal.Inc()
	metrics.IndexerIsRunning.Set(1)
	metrics.IndexerDirsPending.Set(float64(len(idx.pending)))

	logging.Info("Indexer run %s started: %d root(s)", idx.runID, len(idx.pending))

	if len(idx.pending) == 0 {
		idx.finish()
	}
	return idx, nil
}

func (idx *Indexer) push(realpath string) {
	if _, seen := idx.visited[realpath]; seen {
		return
	}
	idx.visited[realpath] = struct{}{}
	idx.pending = append(idx.pending, realpath)
}

func (idx *Indexer) pop() string {
	last := len(idx.pending) - 1
	dir := idx.pending[last]
	idx.pending = idx.pending[:last]
	return dir
}

// RunID identifies this walk in logs.
func (idx *Indexer) RunID() string {
	return idx.runID
}

// Complete reports whether the walk has finished.
func (idx *Indexer) Complete() bool {
	return idx.complete
}

// Step walks directories until the pending stack is empty or budget has
// elapsed, checking the clock between batches. It reports whether the walk
// is complete. A non-positive budget processes a single batch.
func (idx *Indexer) Step(budget time.Duration) bool {
	if idx.complete {
		return true
	}

	start := time.Now()
	filesBefore := idx.numFiles

	for len(idx.pending) > 0 {
		for n := 0; n < batchSize && len(idx.pending) > 0; n++ {
			idx.visit(idx.pop())
		}
		if time.Since(start) >= budget {
			break
		}
	}

	elapsed := time.Since(start)
	metrics.IndexerStepsTotal.Inc()
	metrics.IndexerStepDuration.Observe(elapsed.Seconds())
	metrics.IndexerFilesFound.Add(float64(idx.numFiles - filesBefore))
	metrics.IndexerDirsPending.Set(float64(len(idx.pending)))

	logging.Debug("Indexer run %s step: %s (%v)", idx.runID, idx.Progress(), elapsed)

	if len(idx.pending) == 0 {
		idx.finish()
	}
	return idx.complete
}

// visit lists one directory and files its entries. Subdirectories are
// pushed in reverse listing order so they pop alphabetically.
func (idx *Indexer) visit(dir string) {
	idx.dirsVisited++

	names := idx.cache.ListDir(dir)
	var subdirs []string

	for _, name := range names {
		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil {
			logging.Debug("Indexer: skipping %s: %v", full, err)
			continue
		}
		if info.IsDir() {
			subdirs = append(subdirs, idx.cache.Realpath(full))
			continue
		}
		idx.filesByBasename[name] = append(idx.filesByBasename[name], full)
		idx.numFiles++
	}

	for i := len(subdirs) - 1; i >= 0; i-- {
		idx.push(subdirs[i])
	}
}

func (idx *Indexer) finish() {
	idx.complete = true
	duration := time.Since(idx.startTime)

	metrics.IndexerIsRunning.Set(0)
	metrics.IndexerDirsPending.Set(0)
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	metrics.IndexerLastRunTimestamp.SetToCurrentTime()

	logging.Info("Indexer run %s complete: %d files in %d dirs (%v)",
		idx.runID, idx.numFiles, idx.dirsVisited, duration)
}

// Abandon records that this walk was discarded before completing.
func (idx *Indexer) Abandon() {
	if idx.complete {
		return
	}
	metrics.IndexerRunsDiscarded.Inc()
	metrics.IndexerIsRunning.Set(0)
	logging.Info("Indexer run %s discarded: %s", idx.runID, idx.Progress())
}

// Progress returns a snapshot of the walk.
func (idx *Indexer) Progress() Progress {
	return Progress{
		RunID:       idx.runID,
		FilesFound:  idx.numFiles,
		DirsVisited: idx.dirsVisited,
		DirsPending: len(idx.pending),
		Complete:    idx.complete,
		StartedAt:   idx.startTime,
	}
}

// Visited reports whether realpath has been queued or walked.
func (idx *Indexer) Visited(realpath string) bool {
	_, ok := idx.visited[realpath]
	return ok
}

// Freeze hands the finished basename to paths mapping to the caller. The
// Indexer must not be used afterwards.
func (idx *Indexer) Freeze() (map[string][]string, error) {
	if !idx.complete {
		return nil, ErrIncomplete
	}
	files := idx.filesByBasename
	idx.filesByBasename = nil
	return files, nil
}

// Basenames returns the basenames found so far in sorted order.
func (idx *Indexer) Basenames() []string {
	names := make([]string, 0, len(idx.filesByBasename))
	for name := range idx.filesByBasename {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
