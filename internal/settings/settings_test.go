package settings

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": openSQLite(t),
	}
}

func TestRegisterStoresDefault(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Register(Ignores, DefaultIgnores, nil))

			var got []string
			require.NoError(t, s.Get(Ignores, &got))
			assert.Equal(t, DefaultIgnores, got)
		})
	}
}

func TestSetFiresCallbacks(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			var changed atomic.Value
			require.NoError(t, s.Register(Dirs, []string{}, func(n string) {
				calls.Add(1)
				changed.Store(n)
			}))

			require.NoError(t, s.Set(Dirs, []string{"/src"}))

			var got []string
			require.NoError(t, s.Get(Dirs, &got))
			assert.Equal(t, []string{"/src"}, got)
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, Dirs, changed.Load())
		})
	}
}

func TestRegisterKeepsExistingValue(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Register(Dirs, []string{}, nil))
			require.NoError(t, s.Set(Dirs, []string{"/a"}))
			require.NoError(t, s.Register(Dirs, []string{}, nil))

			var got []string
			require.NoError(t, s.Get(Dirs, &got))
			assert.Equal(t, []string{"/a"}, got)
		})
	}
}

func TestUnknownSetting(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var v []string
			assert.ErrorIs(t, s.Get("nope", &v), ErrUnknownSetting)
			assert.ErrorIs(t, s.Set("nope", v), ErrUnknownSetting)
		})
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Register(Dirs, []string{}, nil))
	require.NoError(t, s.Set(Dirs, []string{"/one", "/two"}))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Register(Dirs, []string{}, nil))

	var got []string
	require.NoError(t, s.Get(Dirs, &got))
	assert.Equal(t, []string{"/one", "/two"}, got)
	assert.Equal(t, path, s.Path())
}

func TestEncodeError(t *testing.T) {
	s := NewMemory()
	err := s.Register("bad", make(chan int), nil)
	assert.Error(t, err)
}
