package query

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"quickopen/internal/metrics"
	"quickopen/internal/ranker"
	"quickopen/internal/shard"
)

// DefaultMaxHits is used when a query does not set max_hits.
const DefaultMaxHits = 100

// ErrInvalidMaxHits is returned for a negative max_hits.
var ErrInvalidMaxHits = errors.New("max_hits must be >= 0")

// Searcher is the read side of a built index.
type Searcher interface {
	SearchBasenames(ctx context.Context, query string, hint int) (shard.Result, error)
	PathsFor(lower string) []string
	Files() []string
}

// Query is a single search request.
type Query struct {
	Text            string   `json:"text"`
	MaxHits         int      `json:"max_hits"`
	ExactMatch      bool     `json:"exact_match"`
	CurrentFilename string   `json:"current_filename,omitempty"`
	OpenFilenames   []string `json:"open_filenames,omitempty"`
}

// New returns a query for text with default options.
func New(text string) Query {
	return Query{Text: text, MaxHits: DefaultMaxHits}
}

// Validate checks the query's options.
func (q Query) Validate() error {
	if q.MaxHits < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxHits, q.MaxHits)
	}
	return nil
}

// CacheKey identifies the query's results in a Cache.
func (q Query) CacheKey() string {
	return fmt.Sprintf("%s@%d", q.Text, q.MaxHits)
}

// Execute runs the query, consulting and filling cache. cache may be nil.
func (q Query) Execute(ctx context.Context, s Searcher, cache *Cache) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if q.Text == "" {
		return emptyResult(), nil
	}

	key := q.CacheKey()
	res, ok := cache.Get(key)
	if ok {
		metrics.QueryCacheHits.Inc()
	} else {
		metrics.QueryCacheMisses.Inc()

		var err error
		res, err = q.ExecuteNoCache(ctx, s)
		if err != nil {
			return Result{}, err
		}
		res.applyGlobalRankAdjustment()
		res = res.WithMaxHits(q.MaxHits)
		cache.Put(key, res)
	}

	if q.ExactMatch {
		res = res.exactMatches(q.Text)
	}
	return res, nil
}

// ExecuteNoCache computes unsorted, ranked hits for the query.
func (q Query) ExecuteNoCache(ctx context.Context, s Searcher) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if q.Text == "" || q.MaxHits == 0 {
		return emptyResult(), nil
	}

	dirPart, basePart := splitText(q.Text)
	dirFilter := ranker.Lower(dirPart)
	inDir := func(path string) bool {
		return dirFilter == "" || strings.HasSuffix(ranker.Lower(filepath.Dir(path)), dirFilter)
	}

	res := emptyResult()

	if basePart == "" {
		for _, path := range s.Files() {
			if !inDir(path) {
				continue
			}
			res.Filenames = append(res.Filenames, path)
			if len(res.Filenames) > q.MaxHits {
				res.Truncated = true
				break
			}
		}
	} else {
		hits, err := s.SearchBasenames(ctx, basePart, q.MaxHits)
		if err != nil {
			return Result{}, err
		}
		res.Truncated = hits.Truncated
		for _, lower := range hits.Basenames {
			for _, path := range s.PathsFor(lower) {
				if inDir(path) {
					res.Filenames = append(res.Filenames, path)
				}
			}
		}
	}

	res.Ranks = make([]float64, len(res.Filenames))
	for i, path := range res.Filenames {
		res.Ranks[i] = ranker.Rank(basePart, filepath.Base(path))
	}
	return res, nil
}

// splitText splits on the last '/' into directory filter and basename parts.
func splitText(text string) (dir, base string) {
	i := strings.LastIndexByte(text, '/')
	if i < 0 {
		return "", text
	}
	return text[:i], text[i+1:]
}

// ToDict returns the query's plain key-value form.
func (q Query) ToDict() map[string]any {
	open := q.OpenFilenames
	if open == nil {
		open = []string{}
	}
	return map[string]any{
		"text":             q.Text,
		"max_hits":         q.MaxHits,
		"exact_match":      q.ExactMatch,
		"current_filename": q.CurrentFilename,
		"open_filenames":   open,
	}
}

// FromDict builds a Query from its key-value form. Missing keys take their
// defaults. Numbers may arrive as float64 when the map came from JSON.
func FromDict(d map[string]any) (Query, error) {
	q := New("")

	if v, ok := d["text"]; ok {
		s, ok := v.(string)
		if !ok {
			return Query{}, fmt.Errorf("text: expected string, got %T", v)
		}
		q.Text = s
	}

	if v, ok := d["max_hits"]; ok && v != nil {
		switch n := v.(type) {
		case int:
			q.MaxHits = n
		case int64:
			q.MaxHits = int(n)
		case float64:
			if n != float64(int(n)) {
				return Query{}, fmt.Errorf("max_hits: expected integer, got %v", n)
			}
			q.MaxHits = int(n)
		default:
			return Query{}, fmt.Errorf("max_hits: expected number, got %T", v)
		}
	}

	if v, ok := d["exact_match"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return Query{}, fmt.Errorf("exact_match: expected bool, got %T", v)
		}
		q.ExactMatch = b
	}

	if v, ok := d["current_filename"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Query{}, fmt.Errorf("current_filename: expected string, got %T", v)
		}
		q.CurrentFilename = s
	}

	if v, ok := d["open_filenames"]; ok && v != nil {
		switch list := v.(type) {
		case []string:
			q.OpenFilenames = list
		case []any:
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return Query{}, fmt.Errorf("open_filenames: expected strings, got %T", item)
				}
				q.OpenFilenames = append(q.OpenFilenames, s)
			}
		default:
			return Query{}, fmt.Errorf("open_filenames: expected list, got %T", v)
		}
	}

	return q, q.Validate()
}
