package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickopen/internal/shard"
)

func newSearcher(paths ...string) *shard.Manager {
	files := map[string][]string{}
	for _, p := range paths {
		base := p[lastSlash(p)+1:]
		files[base] = append(files[base], p)
	}
	return shard.NewManager(files, 2)
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return i
		}
	}
	return -1
}

var tree = []string{
	"/src/project1/MySubSystem.c",
	"/src/project1/MySubSystem.h",
	"/src/project1/MyClass.c",
	"/src/project1/MyClass.h",
	"/src/project2/MyClass.c",
	"/src/project2/render_widget.cpp",
	"/src/project2/render_widget.h",
	"/src/a/b.txt",
	"/src/ba/b.txt",
}

func TestExecuteEndToEnd(t *testing.T) {
	s := newSearcher(tree...)
	ctx := context.Background()

	res, err := New("MySubSystem.c").Execute(ctx, s, NewCache(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/project1/MySubSystem.c"}, res.Filenames)

	res, err = New("MyClass").Execute(ctx, s, NewCache(0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Len(), 2)
	assert.Contains(t, res.Filenames, "/src/project1/MyClass.c")
	assert.Contains(t, res.Filenames, "/src/project1/MyClass.h")
	assert.Len(t, res.Ranks, res.Len())
}

func TestExecuteEmptyText(t *testing.T) {
	res, err := New("").Execute(context.Background(), newSearcher(tree...), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.NotNil(t, res.Filenames)
	assert.False(t, res.Truncated)
}

func TestExecuteInvalidMaxHits(t *testing.T) {
	q := New("foo")
	q.MaxHits = -1

	_, err := q.Execute(context.Background(), newSearcher(tree...), nil)
	assert.True(t, errors.Is(err, ErrInvalidMaxHits))
}

func TestExecuteDirectoryFilter(t *testing.T) {
	s := newSearcher(tree...)

	res, err := New("project2/myclass").Execute(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/project2/MyClass.c"}, res.Filenames)
}

func TestExecuteExactMatchBoundary(t *testing.T) {
	s := newSearcher(tree...)
	cache := NewCache(0)

	q := New("a/b.txt")
	res, err := q.Execute(context.Background(), s, cache)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/src/a/b.txt", "/src/ba/b.txt"}, res.Filenames)

	q.ExactMatch = true
	res, err = q.Execute(context.Background(), s, cache)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a/b.txt"}, res.Filenames)
	assert.Len(t, res.Ranks, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestExecuteDirectoryOnly(t *testing.T) {
	s := newSearcher(tree...)

	q := New("project1/")
	res, err := q.Execute(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/src/project1/MyClass.c",
		"/src/project1/MyClass.h",
		"/src/project1/MySubSystem.c",
		"/src/project1/MySubSystem.h",
	}, res.Filenames)
	assert.False(t, res.Truncated)

	q.MaxHits = 2
	res, err = q.Execute(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())
	assert.True(t, res.Truncated)
}

func TestExecuteMaxHits(t *testing.T) {
	var paths []string
	for i := 0; i < 50; i++ {
		paths = append(paths, fmt.Sprintf("/src/file%02d.txt", i))
	}
	s := newSearcher(paths...)

	q := New("file")
	q.MaxHits = 10
	res, err := q.Execute(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Len())
	assert.True(t, res.Truncated)
	assert.Equal(t, "/src/file00.txt", res.Filenames[0])

	q.MaxHits = 0
	res, err = q.Execute(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestExecuteCachedMatchesFresh(t *testing.T) {
	s := newSearcher(tree...)
	cache := NewCache(0)
	q := New("rw")

	first, err := q.Execute(context.Background(), s, cache)
	require.NoError(t, err)
	cached, err := q.Execute(context.Background(), s, cache)
	require.NoError(t, err)
	fresh, err := q.Execute(context.Background(), s, NewCache(0))
	require.NoError(t, err)

	assert.Equal(t, first, cached)
	assert.Equal(t, fresh, cached)
}

func TestExecuteServesFromCache(t *testing.T) {
	cache := NewCache(0)
	q := New("stale")
	cache.Put(q.CacheKey(), Result{Filenames: []string{"/cached"}, Ranks: []float64{1}})

	res, err := q.Execute(context.Background(), newSearcher(tree...), cache)
	require.NoError(t, err)
	assert.Equal(t, []string{"/cached"}, res.Filenames)
}

func TestExecuteTieBreakOrder(t *testing.T) {
	s := newSearcher(tree...)

	res, err := New("render_widget").Execute(context.Background(), s, nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, res.Ranks[0], res.Ranks[1])
	assert.Equal(t, []string{
		"/src/project2/render_widget.cpp",
		"/src/project2/render_widget.h",
	}, res.Filenames)
}

type failingSearcher struct{ *shard.Manager }

func (failingSearcher) SearchBasenames(context.Context, string, int) (shard.Result, error) {
	return shard.Result{}, &shard.WorkerError{Shard: 3, Err: errors.New("boom")}
}

func TestExecuteShardFailure(t *testing.T) {
	cache := NewCache(0)
	_, err := New("x").Execute(context.Background(), failingSearcher{newSearcher(tree...)}, cache)

	var we *shard.WorkerError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, 3, we.Shard)
	assert.Equal(t, 0, cache.Len())
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		text, dir, base string
	}{
		{"foo.c", "", "foo.c"},
		{"a/foo.c", "a", "foo.c"},
		{"a/b/foo.c", "a/b", "foo.c"},
		{"a/", "a", ""},
		{"/foo", "", "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			dir, base := splitText(tt.text)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.base, base)
		})
	}
}

func TestQueryDict(t *testing.T) {
	q := Query{
		Text:            "foo",
		MaxHits:         20,
		ExactMatch:      true,
		CurrentFilename: "/a/b.c",
		OpenFilenames:   []string{"/a/c.c"},
	}

	back, err := FromDict(q.ToDict())
	require.NoError(t, err)
	assert.Equal(t, q, back)
}

func TestFromDict(t *testing.T) {
	q, err := FromDict(map[string]any{"text": "x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxHits, q.MaxHits)

	q, err = FromDict(map[string]any{"text": "x", "max_hits": float64(5), "open_filenames": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 5, q.MaxHits)
	assert.Equal(t, []string{"a", "b"}, q.OpenFilenames)

	_, err = FromDict(map[string]any{"max_hits": float64(-1)})
	assert.ErrorIs(t, err, ErrInvalidMaxHits)

	_, err = FromDict(map[string]any{"max_hits": 2.5})
	assert.Error(t, err)

	_, err = FromDict(map[string]any{"text": 7})
	assert.Error(t, err)
}
