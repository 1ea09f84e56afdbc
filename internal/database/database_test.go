package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickopen/internal/query"
	"quickopen/internal/settings"
	"quickopen/internal/workers"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

// testTree builds the sample project layout and returns its real root.
func testTree(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{
		"project1/MySubSystem.c",
		"project1/MySubSystem.h",
		"project1/MyClass.c",
		"project1/MyClass.h",
		"project1/build/MyClass.o",
		"project2/MyClass.c",
		"project2/MyClass_test.c",
		"project2/.git/config",
		"a/b.txt",
		"ba/b.txt",
	} {
		touch(t, filepath.Join(root, p))
	}
	return root
}

func newDB(t *testing.T, opts Options) *Database {
	t.Helper()
	db, err := New(settings.NewMemory(), opts)
	require.NoError(t, err)
	return db
}

func syncedDB(t *testing.T, dirs ...string) *Database {
	t.Helper()
	db := newDB(t, Options{})
	for _, dir := range dirs {
		require.NoError(t, db.AddDir(dir))
	}
	require.NoError(t, db.Sync(context.Background()))
	return db
}

func search(t *testing.T, db *Database, text string) query.Result {
	t.Helper()
	res, err := db.Search(context.Background(), query.New(text))
	require.NoError(t, err)
	return res
}

func TestEndToEndSearch(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	res := search(t, db, "MySubSystem.c")
	assert.Equal(t, []string{filepath.Join(root, "project1", "MySubSystem.c")}, res.Filenames)

	res = search(t, db, "MyClass")
	assert.GreaterOrEqual(t, res.Len(), 2)
	assert.Contains(t, res.Filenames, filepath.Join(root, "project1", "MyClass.c"))
	assert.Contains(t, res.Filenames, filepath.Join(root, "project1", "MyClass.h"))

	// Default ignores drop object files and dot directories.
	assert.Empty(t, search(t, db, "MyClass.o").Filenames)
	assert.Empty(t, search(t, db, "config").Filenames)
}

func TestSearchExactMatchBoundary(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	q := query.New("a/b.txt")
	q.ExactMatch = true
	res, err := db.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a", "b.txt")}, res.Filenames)
}

func TestSearchIsIdempotent(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	first := search(t, db, "mc")
	second := search(t, db, "mc")
	assert.Equal(t, first, second)

	snap := db.snap.Load()
	q := query.New("mc")
	fresh, err := q.Execute(context.Background(), snap.manager, nil)
	require.NoError(t, err)
	assert.Equal(t, fresh, second)
}

func TestSearchResultMutationDoesNotLeakIntoCache(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	first := search(t, db, "MySubSystem.c")
	require.NotEmpty(t, first.Filenames)
	first.Filenames[0] = "overwritten"

	second := search(t, db, "MySubSystem.c")
	assert.Equal(t, []string{filepath.Join(root, "project1", "MySubSystem.c")}, second.Filenames)
}

func TestSearchNotSynchronized(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	// Enough directories that one tiny step cannot finish the walk.
	for i := 0; i < 200; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("d%03d", i), "f.txt"))
	}

	db := newDB(t, Options{StepBudget: time.Nanosecond})
	require.NoError(t, db.AddDir(root))

	_, err = db.Search(context.Background(), query.New("f"))
	assert.ErrorIs(t, err, ErrNotSynchronized)
	assert.Equal(t, StatusIndexing, db.Status().Status)

	require.NoError(t, db.Sync(context.Background()))
	res := search(t, db, "f.txt")
	assert.Equal(t, query.DefaultMaxHits, res.Len())
	assert.True(t, res.Truncated)
}

func TestSearchStepsEmptyConfiguration(t *testing.T) {
	db := newDB(t, Options{})

	res, err := db.Search(context.Background(), query.New("anything"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.True(t, db.Ready())
}

func TestAddDirErrors(t *testing.T) {
	root := testTree(t)
	db := newDB(t, Options{})

	require.NoError(t, db.AddDir(root))

	err := db.AddDir(root)
	assert.ErrorIs(t, err, ErrDuplicateDir)
	assert.True(t, ErrorIsConfig(err))

	err = db.AddDir(filepath.Join(root, "a", "b.txt"))
	assert.ErrorIs(t, err, ErrNotADirectory)

	err = db.AddDir(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestDeleteDirSuggestion(t *testing.T) {
	root := testTree(t)
	db := newDB(t, Options{})
	require.NoError(t, db.AddDir(filepath.Join(root, "project1")))
	require.NoError(t, db.AddDir(filepath.Join(root, "project2")))

	err := db.DeleteDir(filepath.Join(root, "projct1"))
	require.ErrorIs(t, err, ErrUnknownDir)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "delete_dir", ce.Op)
	assert.Equal(t, filepath.Join(root, "project1"), ce.Suggestion)
	assert.Contains(t, err.Error(), "did you mean")

	require.NoError(t, db.DeleteDir(filepath.Join(root, "project1")))
	dirs, err := db.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "project2")}, dirs)
}

func TestIgnoreErrors(t *testing.T) {
	db := newDB(t, Options{})

	assert.ErrorIs(t, db.Ignore("[unclosed"), ErrBadPattern)
	assert.ErrorIs(t, db.Ignore(""), ErrBadPattern)
	assert.ErrorIs(t, db.Ignore("*.o"), ErrDuplicateIgnore)
	assert.ErrorIs(t, db.Unignore("*.nope"), ErrUnknownIgnore)

	require.NoError(t, db.Ignore("*.tmp"))
	ignores, err := db.Ignores()
	require.NoError(t, err)
	assert.Contains(t, ignores, "*.tmp")

	require.NoError(t, db.Unignore("*.tmp"))
	ignores, err = db.Ignores()
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultIgnores, ignores)
}

func TestIgnoreChangeReindexes(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	require.NotEmpty(t, search(t, db, "MyClass.h").Filenames)

	require.NoError(t, db.Ignore("*.h"))
	assert.True(t, db.NeedsStep())
	require.NoError(t, db.Sync(context.Background()))
	assert.Empty(t, search(t, db, "MyClass.h").Filenames)

	require.NoError(t, db.Unignore("*.o"))
	require.NoError(t, db.Sync(context.Background()))
	assert.NotEmpty(t, search(t, db, "MyClass.o").Filenames)
}

func TestPathIgnoreAppliesBelowRoot(t *testing.T) {
	root := testTree(t)
	db := syncedDB(t, root)

	require.NoError(t, db.Ignore("*/build/*"))
	require.NoError(t, db.Unignore("*.o"))
	require.NoError(t, db.Sync(context.Background()))

	assert.Empty(t, search(t, db, "MyClass.o").Filenames)
	assert.Contains(t, search(t, db, "MyClass.c").Filenames, filepath.Join(root, "project1", "MyClass.c"))
}

func TestSettingChangeDiscardsInFlightIndex(t *testing.T) {
	root := testTree(t)
	big := filepath.Join(root, "big")
	for i := 0; i < 40; i++ {
		touch(t, filepath.Join(big, fmt.Sprintf("d%02d", i), "x.txt"))
	}

	db := newDB(t, Options{StepBudget: time.Nanosecond})
	require.NoError(t, db.AddDir(big))

	done, err := db.StepSync()
	require.NoError(t, err)
	require.False(t, done)
	firstRun := db.Status().RunID
	require.NotEmpty(t, firstRun)

	require.NoError(t, db.AddDir(filepath.Join(root, "project2")))
	require.NoError(t, db.Sync(context.Background()))

	st := db.Status()
	assert.NotEqual(t, firstRun, st.RunID)
	assert.Contains(t, search(t, db, "MyClass_test").Filenames, filepath.Join(root, "project2", "MyClass_test.c"))
}

func TestMissingRootIsSkipped(t *testing.T) {
	root := testTree(t)
	db := newDB(t, Options{})
	gone := filepath.Join(root, "ba")
	require.NoError(t, db.AddDir(gone))
	require.NoError(t, db.AddDir(filepath.Join(root, "a")))
	require.NoError(t, os.RemoveAll(gone))

	require.NoError(t, db.Sync(context.Background()))
	assert.Equal(t, []string{filepath.Join(root, "a", "b.txt")}, search(t, db, "b.txt").Filenames)
}

func TestStatus(t *testing.T) {
	root := testTree(t)
	db := newDB(t, Options{})

	st := db.Status()
	assert.False(t, st.Ready)
	assert.True(t, st.Dirty)
	assert.Equal(t, StatusIndexing, st.Status)

	require.NoError(t, db.AddDir(root))
	require.NoError(t, db.Sync(context.Background()))

	st = db.Status()
	assert.Equal(t, StatusSynchronized, st.Status)
	assert.True(t, st.Ready)
	assert.Equal(t, 8, st.NumFiles)
	assert.Equal(t, 1, st.NumShards)
	assert.Equal(t, []string{root}, st.Dirs)
	assert.NotEmpty(t, st.RunID)

	stats := db.GetStats()
	assert.Equal(t, 8, stats.IndexedFiles)
	assert.Equal(t, 1, stats.WatchedDirs)
	assert.Equal(t, len(settings.DefaultIgnores), stats.IgnorePatterns)
}

func TestMultipleShards(t *testing.T) {
	t.Setenv(workers.EnvOverride, "3")

	root := testTree(t)
	db, err := New(settings.NewMemory(), Options{MaxShards: 3, MinBasenamesPerShard: -1})
	require.NoError(t, err)
	require.NoError(t, db.AddDir(root))
	require.NoError(t, db.Sync(context.Background()))

	assert.Equal(t, 3, db.Status().NumShards)
	res := search(t, db, "MySubSystem.c")
	assert.Equal(t, []string{filepath.Join(root, "project1", "MySubSystem.c")}, res.Filenames)
}

func TestRunIndexesInBackground(t *testing.T) {
	root := testTree(t)
	db := newDB(t, Options{})
	require.NoError(t, db.AddDir(root))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		db.Run(ctx, time.Millisecond, time.Hour)
	}()

	require.Eventually(t, func() bool {
		return db.Status().Status == StatusSynchronized
	}, 5*time.Second, 5*time.Millisecond)

	// Searches keep working while a rescan runs.
	db.MarkDirty()
	for i := 0; i < 20; i++ {
		res, err := db.Search(context.Background(), query.New("MySubSystem.c"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Len())
	}

	cancel()
	wg.Wait()
}

func TestRescanDoesNotRestartRunningWalk(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for i := 0; i < 400; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("d%03d", i), "x.txt"))
	}

	db := newDB(t, Options{StepBudget: time.Nanosecond})
	require.NoError(t, db.AddDir(root))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		db.Run(ctx, 5*time.Millisecond, 2*time.Millisecond)
	}()

	require.Eventually(t, db.Ready, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, 400, db.Status().NumFiles)

	cancel()
	wg.Wait()
}

func TestRequestRescanSkipsInFlightWalk(t *testing.T) {
	root := testTree(t)
	big := filepath.Join(root, "big")
	for i := 0; i < 40; i++ {
		touch(t, filepath.Join(big, fmt.Sprintf("d%02d", i), "x.txt"))
	}

	db := newDB(t, Options{StepBudget: time.Nanosecond})
	require.NoError(t, db.AddDir(big))

	done, err := db.StepSync()
	require.NoError(t, err)
	require.False(t, done)
	run := db.Status().RunID

	assert.False(t, db.requestRescan())
	assert.False(t, db.dirty.Load())

	require.NoError(t, db.Sync(context.Background()))
	assert.Equal(t, run, db.Status().RunID)

	assert.True(t, db.requestRescan())
	assert.True(t, db.dirty.Load())
}

type fakePauser struct{ paused atomic.Bool }

func (f *fakePauser) IsPaused() bool { return f.paused.Load() }

func TestRunHonoursBackpressure(t *testing.T) {
	root := testTree(t)
	pauser := &fakePauser{}
	pauser.paused.Store(true)
	db := newDB(t, Options{Backpressure: pauser})
	require.NoError(t, db.AddDir(root))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		db.Run(ctx, time.Millisecond, time.Hour)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, db.Ready(), "paused loop must not index")

	pauser.paused.Store(false)
	require.Eventually(t, db.Ready, 5*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestSQLiteBackedDatabase(t *testing.T) {
	root := testTree(t)
	path := filepath.Join(t.TempDir(), "settings.db")

	store, err := settings.Open(context.Background(), path)
	require.NoError(t, err)
	db, err := New(store, Options{})
	require.NoError(t, err)
	require.NoError(t, db.AddDir(root))
	require.NoError(t, store.Close())

	store, err = settings.Open(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()
	db, err = New(store, Options{})
	require.NoError(t, err)

	dirs, err := db.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{root}, dirs)

	require.NoError(t, db.Sync(context.Background()))
	assert.Equal(t, 1, search(t, db, "MySubSystem.h").Len())
}
