package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"quickopen/internal/dircache"
	"quickopen/internal/filesystem"
	"quickopen/internal/indexer"
	"quickopen/internal/logging"
	"quickopen/internal/metrics"
	"quickopen/internal/query"
	"quickopen/internal/settings"
	"quickopen/internal/shard"
	"quickopen/internal/workers"
)

const (
	// Upper bound on search shards
	maxShards = 4

	// Basenames below which another shard is not worth a goroutine
	minBasenamesPerShard = 2048
)

// Options tune a Database.
type Options struct {
	// StepBudget bounds each StepSync call. Zero selects the indexer default.
	StepBudget time.Duration

	// MaxShards caps the shard count. Zero selects 4.
	MaxShards int

	// MinBasenamesPerShard stops tiny indexes from fanning out. Zero
	// selects the default; a negative value disables the floor.
	MinBasenamesPerShard int

	// Backpressure, when set, makes Run skip indexing steps while it
	// reports paused.
	Backpressure interface{ IsPaused() bool }
}

// snapshot is the immutable state a search reads.
type snapshot struct {
	manager   *shard.Manager
	cache     *query.Cache
	builtAt   time.Time
	runID     string
	numFiles  int
	buildTime time.Duration
}

// Database coordinates settings, indexing and search.
type Database struct {
	store settings.Store
	opts  Options

	// mu guards the indexing state and serializes settings mutations.
	mu       sync.Mutex
	dirCache *dircache.Cache
	indexer  *indexer.Indexer
	lastErr  error

	dirty atomic.Bool
	snap  atomic.Pointer[snapshot]
}

// New creates a Database over store, registering the dirs and ignores
// settings. The database starts dirty so the first StepSync begins a walk.
func New(store settings.Store, opts Options) (*Database, error) {
	if opts.StepBudget <= 0 {
		opts.StepBudget = indexer.DefaultStepBudget
	}
	if opts.MaxShards <= 0 {
		opts.MaxShards = maxShards
	}
	if opts.MinBasenamesPerShard == 0 {
		opts.MinBasenamesPerShard = minBasenamesPerShard
	}

	d := &Database{store: store, opts: opts}

	if err := store.Register(settings.Dirs, []string{}, d.onSettingChanged); err != nil {
		return nil, err
	}
	if err := store.Register(settings.Ignores, settings.DefaultIgnores, d.onSettingChanged); err != nil {
		return nil, err
	}

	ignores, err := d.Ignores()
	if err != nil {
		return nil, err
	}
	d.dirCache = dircache.New(ignores)
	d.dirty.Store(true)
	return d, nil
}

func (d *Database) onSettingChanged(name string) {
	logging.Debug("Setting %s changed; index marked dirty", name)
	d.dirty.Store(true)
}

// MarkDirty schedules a full rescan on the next step.
func (d *Database) MarkDirty() {
	d.dirty.Store(true)
}

// requestRescan marks the database dirty unless a walk is already in
// flight. Periodic rescans must not restart a walk that has not finished.
func (d *Database) requestRescan() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexer != nil {
		return false
	}
	d.dirty.Store(true)
	return true
}

// Dirs returns the watched directories.
func (d *Database) Dirs() ([]string, error) {
	var dirs []string
	if err := d.store.Get(settings.Dirs, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// Ignores returns the ignore patterns.
func (d *Database) Ignores() ([]string, error) {
	var ignores []string
	if err := d.store.Get(settings.Ignores, &ignores); err != nil {
		return nil, err
	}
	return ignores, nil
}

// AddDir starts watching path. The path is made absolute and must be an
// existing directory.
func (d *Database) AddDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &ConfigError{Op: "add_dir", Value: path, Err: err}
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return &ConfigError{Op: "add_dir", Value: abs, Err: ErrNotADirectory}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dirs, err := d.Dirs()
	if err != nil {
		return err
	}
	if slices.Contains(dirs, abs) {
		return &ConfigError{Op: "add_dir", Value: abs, Err: ErrDuplicateDir}
	}

	logging.Info("Watching directory %s", abs)
	return d.store.Set(settings.Dirs, append(dirs, abs))
}

// DeleteDir stops watching path.
func (d *Database) DeleteDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &ConfigError{Op: "delete_dir", Value: path, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dirs, err := d.Dirs()
	if err != nil {
		return err
	}
	i := slices.Index(dirs, abs)
	if i < 0 {
		return &ConfigError{Op: "delete_dir", Value: abs, Suggestion: suggest(abs, dirs), Err: ErrUnknownDir}
	}

	logging.Info("No longer watching directory %s", abs)
	return d.store.Set(settings.Dirs, slices.Delete(dirs, i, i+1))
}

// Ignore adds a glob pattern to the ignore list.
func (d *Database) Ignore(pattern string) error {
	if pattern == "" {
		return &ConfigError{Op: "ignore", Value: pattern, Err: ErrBadPattern}
	}
	if _, err := dircache.CompilePattern(pattern); err != nil {
		return &ConfigError{Op: "ignore", Value: pattern, Err: fmt.Errorf("%w: %v", ErrBadPattern, err)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ignores, err := d.Ignores()
	if err != nil {
		return err
	}
	if slices.Contains(ignores, pattern) {
		return &ConfigError{Op: "ignore", Value: pattern, Err: ErrDuplicateIgnore}
	}
	return d.store.Set(settings.Ignores, append(ignores, pattern))
}

// Unignore removes a glob pattern from the ignore list.
func (d *Database) Unignore(pattern string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ignores, err := d.Ignores()
	if err != nil {
		return err
	}
	i := slices.Index(ignores, pattern)
	if i < 0 {
		return &ConfigError{Op: "unignore", Value: pattern, Suggestion: suggest(pattern, ignores), Err: ErrUnknownIgnore}
	}
	return d.store.Set(settings.Ignores, slices.Delete(ignores, i, i+1))
}

// NeedsStep reports whether StepSync has work to do.
func (d *Database) NeedsStep() bool {
	if d.dirty.Load() {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.indexer != nil
}

// StepSync advances indexing by one bounded step and reports whether the
// database is synchronized afterwards.
func (d *Database) StepSync() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dirty.Swap(false) {
		if err := d.restartLocked(); err != nil {
			d.lastErr = err
			return false, err
		}
	}

	if d.indexer == nil {
		return d.snap.Load() != nil, nil
	}

	if !d.indexer.Step(d.opts.StepBudget) {
		return false, nil
	}

	idx := d.indexer
	d.indexer = nil

	files, err := idx.Freeze()
	if err != nil {
		d.lastErr = err
		return false, err
	}

	start := time.Now()
	numFiles := idx.Progress().FilesFound
	n := workers.ForShards(len(files), d.opts.MinBasenamesPerShard, d.opts.MaxShards)
	mgr := shard.NewManager(files, n)

	d.snap.Store(&snapshot{
		manager:   mgr,
		cache:     query.NewCache(query.DefaultCacheSize),
		builtAt:   time.Now(),
		runID:     idx.RunID(),
		numFiles:  numFiles,
		buildTime: time.Since(start),
	})
	d.lastErr = nil
	metrics.IndexedFiles.Set(float64(numFiles))

	logging.Info("Index ready: %d files across %d shard(s)", numFiles, mgr.NumShards())
	return true, nil
}

// restartLocked discards any in-flight walk and starts a new one from the
// current settings.
func (d *Database) restartLocked() error {
	if d.indexer != nil {
		d.indexer.Abandon()
		d.indexer = nil
	}

	dirs, err := d.Dirs()
	if err != nil {
		return err
	}
	ignores, err := d.Ignores()
	if err != nil {
		return err
	}

	if !slices.Equal(ignores, d.dirCache.Ignores()) {
		d.dirCache.SetIgnores(ignores)
	}

	var roots []string
	for _, dir := range dirs {
		if d.dirCache.IsDir(dir) {
			roots = append(roots, dir)
		} else {
			logging.Warn("Watched directory %s is missing; skipping", dir)
		}
	}

	retry := filesystem.DefaultRetryConfig()
	retry.VolumeResolver = filesystem.VolumesForDirs(roots)
	d.dirCache.SetRetryConfig(retry)

	idx, err := indexer.New(roots, d.dirCache)
	if err != nil {
		return err
	}
	d.indexer = idx
	return nil
}

// Sync drives indexing to completion.
func (d *Database) Sync(ctx context.Context) error {
	for {
		done, err := d.StepSync()
		if err != nil {
			return err
		}
		if done && !d.dirty.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Search runs q against the current index. If no index exists, one
// indexing step is attempted first; ErrNotSynchronized is returned if
// that does not produce one.
func (d *Database) Search(ctx context.Context, q query.Query) (query.Result, error) {
	start := time.Now()

	snap := d.snap.Load()
	if snap == nil {
		if _, err := d.StepSync(); err != nil {
			logging.Debug("Search-triggered step failed: %v", err)
		}
		snap = d.snap.Load()
	}
	if snap == nil {
		metrics.SearchesTotal.WithLabelValues("not_synchronized").Inc()
		return query.Result{}, ErrNotSynchronized
	}

	res, err := q.Execute(ctx, snap.manager, snap.cache)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return query.Result{}, err
	}

	status := "success"
	if res.Len() == 0 {
		status = "empty"
	}
	metrics.SearchesTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(res.Len()))
	return res, nil
}

// Ready reports whether an index is available for searching.
func (d *Database) Ready() bool {
	return d.snap.Load() != nil
}

// Run drives indexing until ctx is cancelled: StepSync every stepInterval
// while there is work, and a full rescan every rescanInterval unless a walk
// is still running. A non-positive rescanInterval disables periodic rescans.
func (d *Database) Run(ctx context.Context, stepInterval, rescanInterval time.Duration) {
	step := time.NewTicker(stepInterval)
	defer step.Stop()

	var rescan <-chan time.Time
	if rescanInterval > 0 {
		t := time.NewTicker(rescanInterval)
		defer t.Stop()
		rescan = t.C
	}

	logging.Info("Index loop started (step every %v, rescan every %v)", stepInterval, rescanInterval)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Index loop stopped")
			return
		case <-rescan:
			if d.requestRescan() {
				logging.Debug("Periodic rescan")
			} else {
				logging.Debug("Periodic rescan skipped; walk still in progress")
			}
		case <-step.C:
			if !d.NeedsStep() {
				continue
			}
			if d.opts.Backpressure != nil && d.opts.Backpressure.IsPaused() {
				continue
			}
			if _, err := d.StepSync(); err != nil {
				logging.Error("Indexing step failed: %v", err)
			}
		}
	}
}

// ErrorIsConfig reports whether err is a rejected settings change.
func ErrorIsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
