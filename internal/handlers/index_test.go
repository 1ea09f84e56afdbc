package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickopen/internal/database"
	"quickopen/internal/query"
	"quickopen/internal/shard"
	"quickopen/internal/startup"
)

func TestGetStatus(t *testing.T) {
	h, root := syncedHandlers(t)

	w := do(t, testRouter(h), "GET", "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var st database.Status
	decode(t, w, &st)
	if st.Status != database.StatusSynchronized || !st.Ready {
		t.Errorf("status = %+v", st)
	}
	if st.NumFiles != 3 {
		t.Errorf("NumFiles = %d, want 3", st.NumFiles)
	}
	if len(st.Dirs) != 1 || st.Dirs[0] != root {
		t.Errorf("Dirs = %v", st.Dirs)
	}
}

func TestSyncEndpoint(t *testing.T) {
	h := newTestHandlers(unsyncedDatabase(t))

	w := do(t, testRouter(h), "POST", "/api/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var st database.Status
	decode(t, w, &st)
	if !st.Ready || st.NumFiles != 40 {
		t.Errorf("status after sync = %+v", st)
	}
}

func TestTriggerReindexRateLimited(t *testing.T) {
	h, _ := syncedHandlers(t)
	router := testRouter(h)

	// ReindexRate 2 allows a burst of two.
	for i := 0; i < 2; i++ {
		if w := do(t, router, "POST", "/api/reindex", nil); w.Code != http.StatusAccepted {
			t.Fatalf("request %d: status = %d, want 202", i, w.Code)
		}
	}

	w := do(t, router, "POST", "/api/reindex", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestTriggerReindexMarksDirty(t *testing.T) {
	h, _ := syncedHandlers(t)

	do(t, testRouter(h), "POST", "/api/reindex", nil)

	if !h.db.Status().Dirty {
		t.Error("reindex should mark the database dirty")
	}
	if !h.db.Ready() {
		t.Error("the previous index should stay searchable")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not synchronized", database.ErrNotSynchronized, http.StatusServiceUnavailable},
		{"wrapped not synchronized", fmt.Errorf("search: %w", database.ErrNotSynchronized), http.StatusServiceUnavailable},
		{"config error", &database.ConfigError{Op: "ignore", Value: "[", Err: database.ErrBadPattern}, http.StatusBadRequest},
		{"invalid max hits", fmt.Errorf("%w: got -1", query.ErrInvalidMaxHits), http.StatusBadRequest},
		{"worker failure", &shard.WorkerError{Shard: 2, Err: errors.New("boom")}, http.StatusInternalServerError},
		{"cancelled", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteErrorWorkerFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fmt.Errorf("search: %w", &shard.WorkerError{Shard: 3, Err: errors.New("boom")}))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body workerErrorResponse
	decode(t, w, &body)
	if body.Shard != 3 || body.Error != "search worker failed" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteErrorNotSynchronized(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, database.ErrNotSynchronized)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != database.StatusNotSynchronized {
		t.Errorf("status = %q", body["status"])
	}
}

func TestNewDefaultsReindexRate(t *testing.T) {
	h := New(newTestDatabase(t, database.Options{}), &startup.Config{})
	if h.reindex.Burst() != 6 {
		t.Errorf("burst = %d, want 6", h.reindex.Burst())
	}
}
