package shard

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"quickopen/internal/metrics"
	"quickopen/internal/ranker"
)

const (
	// Minimum word-start prefix length registered for pass 1
	minPrefixLen = 2

	// A hit ranking above this suppresses the superfuzzy pass
	goodRankThreshold = 2.0
)

// Result is the outcome of a basename search.
type Result struct {
	// Basenames holds matched lowercase basenames, sorted and unique.
	Basenames []string
	Truncated bool
}

// Shard is an immutable, searchable slice of the basename space.
type Shard struct {
	id int

	buffer    string
	starts    []int
	basenames []string
	lower     []string
	prefixes  map[string][]uint32
}

// New builds a shard over basenames. Basenames must not contain newlines.
func New(id int, basenames []string) *Shard {
	s := &Shard{
		id:        id,
		basenames: basenames,
		lower:     make([]string, len(basenames)),
		starts:    make([]int, len(basenames)),
		prefixes:  make(map[string][]uint32),
	}

	var b strings.Builder
	size := 1
	for _, name := range basenames {
		size += len(name) + 1
	}
	b.Grow(size)
	b.WriteByte('\n')

	for i, name := range basenames {
		lower := ranker.Lower(name)
		s.lower[i] = lower
		s.starts[i] = b.Len()
		b.WriteString(lower)
		b.WriteByte('\n')

		letters := ranker.WordStartLetters(name)
		for n := minPrefixLen; n <= len(letters); n++ {
			key := letters[:n]
			s.prefixes[key] = append(s.prefixes[key], uint32(i))
		}
	}
	s.buffer = b.String()
	return s
}

// ID returns the shard's position within its Manager.
func (s *Shard) ID() int {
	return s.id
}

// Len returns the number of basenames in the shard.
func (s *Shard) Len() int {
	return len(s.basenames)
}

// lineAt maps a buffer offset to the index of the basename containing it.
func (s *Shard) lineAt(offset int) int {
	return sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset }) - 1
}

// SearchBasenames runs the three search passes for query. hint bounds the
// number of hits collected; reaching it sets Truncated. A hint of zero or
// less means no bound.
func (s *Shard) SearchBasenames(ctx context.Context, query string, hint int) (Result, error) {
	lq := ranker.Lower(query)
	if lq == "" || strings.ContainsRune(lq, '\n') {
		return Result{}, nil
	}

	hits := roaring.New()
	full := func() bool {
		return hint > 0 && hits.GetCardinality() >= uint64(hint)
	}

	s.pass("wordstart", hits, func() { s.wordStartPass(lq, hits, full) })
	if !full() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s.pass("substring", hits, func() { s.substringPass(lq, hits, full) })
	}
	if !full() && !s.anyGoodHit(query, hits) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s.pass("superfuzzy", hits, func() { s.superfuzzyPass(lq, hits, full) })
	}

	return Result{Basenames: s.lowerNames(hits), Truncated: full()}, nil
}

func (s *Shard) pass(name string, hits *roaring.Bitmap, fn func()) {
	before := hits.GetCardinality()
	start := time.Now()
	fn()
	metrics.ShardPassDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.ShardHits.WithLabelValues(name).Add(float64(hits.GetCardinality() - before))
}

func (s *Shard) wordStartPass(lq string, hits *roaring.Bitmap, full func() bool) {
	for _, i := range s.prefixes[lq] {
		if full() {
			return
		}
		hits.Add(i)
	}
}

// substringPass resumes one byte past each match start so overlapping
// candidates are all found.
func (s *Shard) substringPass(lq string, hits *roaring.Bitmap, full func() bool) {
	pos := 0
	for !full() {
		off := strings.Index(s.buffer[pos:], lq)
		if off < 0 {
			return
		}
		off += pos
		hits.Add(uint32(s.lineAt(off)))
		pos = off + 1
	}
}

func (s *Shard) superfuzzyPass(lq string, hits *roaring.Bitmap, full func() bool) {
	re := superfuzzyRegexp(lq)
	pos := 0
	for pos < len(s.buffer) && !full() {
		loc := re.FindStringIndex(s.buffer[pos:])
		if loc == nil {
			return
		}
		off := pos + loc[1] - 1
		line := s.lineAt(off)
		hits.Add(uint32(line))

		// Skip the rest of the matched line.
		if line+1 < len(s.starts) {
			pos = s.starts[line+1]
		} else {
			return
		}
	}
}

// superfuzzyRegexp matches the query's characters in order within one line.
func superfuzzyRegexp(lq string) *regexp.Regexp {
	var b strings.Builder
	for _, r := range lq {
		b.WriteString(`[^\n]*`)
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return regexp.MustCompile(b.String())
}

func (s *Shard) anyGoodHit(query string, hits *roaring.Bitmap) bool {
	it := hits.Iterator()
	for it.HasNext() {
		if ranker.Rank(query, s.basenames[it.Next()]) > goodRankThreshold {
			return true
		}
	}
	return false
}

func (s *Shard) lowerNames(hits *roaring.Bitmap) []string {
	if hits.IsEmpty() {
		return nil
	}
	names := make([]string, 0, hits.GetCardinality())
	seen := make(map[string]struct{}, hits.GetCardinality())
	for _, i := range hits.ToArray() {
		name := s.lower[i]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
