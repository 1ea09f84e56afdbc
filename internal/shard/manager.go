package shard

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"quickopen/internal/logging"
	"quickopen/internal/metrics"
	"quickopen/internal/ranker"
)

// WorkerError reports a shard whose search failed or panicked.
type WorkerError struct {
	Shard int
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("shard %d: %v", e.Shard, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// Manager owns the shards built from one finished index along with the
// lookups needed to expand basename hits back into paths.
type Manager struct {
	shards  []*Shard
	byLower map[string][]string
	files   []string
}

// NewManager partitions filesByBasename into n shards. Basenames are sorted
// and cut into contiguous chunks; the remainder of an uneven split goes to
// the first chunk. n is clamped to [1, number of basenames].
func NewManager(filesByBasename map[string][]string, n int) *Manager {
	start := time.Now()

	basenames := make([]string, 0, len(filesByBasename))
	for name := range filesByBasename {
		basenames = append(basenames, name)
	}
	sort.Strings(basenames)

	m := &Manager{
		byLower: make(map[string][]string, len(basenames)),
	}
	for _, name := range basenames {
		paths := filesByBasename[name]
		lower := ranker.Lower(name)
		m.byLower[lower] = append(m.byLower[lower], paths...)
		m.files = append(m.files, paths...)
	}

	if n > len(basenames) {
		n = len(basenames)
	}
	if n < 1 {
		n = 1
	}

	per := len(basenames) / n
	first := per + len(basenames)%n
	m.shards = append(m.shards, New(0, basenames[:first]))
	for i, lo := 1, first; i < n; i, lo = i+1, lo+per {
		m.shards = append(m.shards, New(i, basenames[lo:lo+per]))
	}

	elapsed := time.Since(start)
	metrics.ShardCount.Set(float64(len(m.shards)))
	metrics.ShardBuildDuration.Set(elapsed.Seconds())
	logging.Debug("Built %d shard(s) over %d basenames, %d files in %v",
		len(m.shards), len(basenames), len(m.files), elapsed)

	return m
}

// NumShards returns the number of shards.
func (m *Manager) NumShards() int {
	return len(m.shards)
}

// ShardSizes returns the number of basenames held by each shard.
func (m *Manager) ShardSizes() []int {
	sizes := make([]int, len(m.shards))
	for i, s := range m.shards {
		sizes[i] = s.Len()
	}
	return sizes
}

// Files returns every indexed path. The slice must not be modified.
func (m *Manager) Files() []string {
	return m.files
}

// PathsFor expands a lowercase basename into its full paths.
func (m *Manager) PathsFor(lower string) []string {
	return m.byLower[lower]
}

// SearchBasenames searches every shard for query and unions the hits.
// Truncated is set when any shard reached hint.
func (m *Manager) SearchBasenames(ctx context.Context, query string, hint int) (Result, error) {
	if len(m.shards) == 1 {
		return searchShard(ctx, m.shards[0], query, hint)
	}

	results := make([]Result, len(m.shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range m.shards {
		g.Go(func() error {
			r, err := searchShard(gctx, s, query, hint)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var merged Result
	for _, r := range results {
		merged.Basenames = append(merged.Basenames, r.Basenames...)
		merged.Truncated = merged.Truncated || r.Truncated
	}
	sort.Strings(merged.Basenames)
	merged.Basenames = slices.Compact(merged.Basenames)
	return merged, nil
}

// searchShard runs one shard search, converting errors and panics into a
// WorkerError.
func searchShard(ctx context.Context, s *Shard, query string, hint int) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Shard %d panicked searching %q: %v\n%s", s.id, query, r, debug.Stack())
			metrics.ShardWorkerFailures.Inc()
			res, err = Result{}, &WorkerError{Shard: s.id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = s.SearchBasenames(ctx, query, hint)
	if err != nil {
		metrics.ShardWorkerFailures.Inc()
		return Result{}, &WorkerError{Shard: s.id, Err: err}
	}
	return res, nil
}
