package query

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Result holds parallel filename and rank slices. len(Filenames) always
// equals len(Ranks).
type Result struct {
	Filenames []string  `json:"filenames"`
	Ranks     []float64 `json:"ranks"`
	Truncated bool      `json:"truncated"`
}

func emptyResult() Result {
	return Result{Filenames: []string{}, Ranks: []float64{}}
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	return Result{
		Filenames: slices.Clone(r.Filenames),
		Ranks:     slices.Clone(r.Ranks),
		Truncated: r.Truncated,
	}
}

// Len returns the number of hits.
func (r Result) Len() int {
	return len(r.Filenames)
}

// WithMaxHits returns a copy holding at most n hits. Truncated is set if
// hits were dropped.
func (r Result) WithMaxHits(n int) Result {
	if n < 0 {
		n = 0
	}
	out := Result{Truncated: r.Truncated}
	if len(r.Filenames) > n {
		out.Truncated = true
	} else {
		n = len(r.Filenames)
	}
	out.Filenames = append(make([]string, 0, n), r.Filenames[:n]...)
	out.Ranks = append(make([]float64, 0, n), r.Ranks[:n]...)
	return out
}

type hit struct {
	path     string
	basename string
	rank     float64
}

// applyGlobalRankAdjustment sorts by rank descending, then basename, then
// full path.
func (r *Result) applyGlobalRankAdjustment() {
	hits := make([]hit, len(r.Filenames))
	for i, path := range r.Filenames {
		hits[i] = hit{path: path, basename: filepath.Base(path), rank: r.Ranks[i]}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.rank != b.rank {
			return a.rank > b.rank
		}
		if a.basename != b.basename {
			return a.basename < b.basename
		}
		return a.path < b.path
	})

	for i, h := range hits {
		r.Filenames[i] = h.path
		r.Ranks[i] = h.rank
	}
}

// exactMatches keeps hits whose path ends with text at a separator boundary.
func (r Result) exactMatches(text string) Result {
	out := emptyResult()
	out.Truncated = r.Truncated
	for i, path := range r.Filenames {
		if isExactMatch(path, text) {
			out.Filenames = append(out.Filenames, path)
			out.Ranks = append(out.Ranks, r.Ranks[i])
		}
	}
	return out
}

func isExactMatch(path, text string) bool {
	if !strings.HasSuffix(path, text) {
		return false
	}
	if len(path) == len(text) {
		return true
	}
	c := path[len(path)-len(text)-1]
	return c == '/' || c == filepath.Separator
}
