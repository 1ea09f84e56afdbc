package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"quickopen/internal/database"
	"quickopen/internal/settings"
	"quickopen/internal/startup"
)

// =============================================================================
// Test Helpers
// =============================================================================

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// setupTestTree creates a small source tree and returns its resolved root.
func setupTestTree(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	touch(t, filepath.Join(root, "src", "main.go"))
	touch(t, filepath.Join(root, "src", "util", "string_util.go"))
	touch(t, filepath.Join(root, "docs", "README.md"))
	touch(t, filepath.Join(root, ".git", "config"))
	return root
}

func newTestDatabase(t *testing.T, opts database.Options) *database.Database {
	t.Helper()
	db, err := database.New(settings.NewMemory(), opts)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	return db
}

func newTestHandlers(db *database.Database) *Handlers {
	return New(db, &startup.Config{ReindexRate: 2})
}

// syncedHandlers returns handlers over a fully indexed test tree.
func syncedHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	root := setupTestTree(t)
	db := newTestDatabase(t, database.Options{})
	if err := db.AddDir(root); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	if err := db.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return newTestHandlers(db), root
}

func testRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/search", h.SearchPost).Methods("POST")
	api.HandleFunc("/dirs", h.GetDirs).Methods("GET")
	api.HandleFunc("/dirs", h.AddDir).Methods("POST")
	api.HandleFunc("/dirs", h.DeleteDir).Methods("DELETE")
	api.HandleFunc("/ignores", h.GetIgnores).Methods("GET")
	api.HandleFunc("/ignores", h.AddIgnore).Methods("POST")
	api.HandleFunc("/ignores", h.RemoveIgnore).Methods("DELETE")
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/sync", h.Sync).Methods("POST")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
}

// unsyncedDatabase returns a database whose first step cannot finish.
func unsyncedDatabase(t *testing.T) *database.Database {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("d%02d", i), "x.txt"))
	}
	db := newTestDatabase(t, database.Options{StepBudget: time.Nanosecond})
	if err := db.AddDir(root); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	return db
}
