package handlers

import (
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"quickopen/internal/database"
)

func TestDirsLifecycle(t *testing.T) {
	root := setupTestTree(t)
	h := newTestHandlers(newTestDatabase(t, database.Options{}))
	router := testRouter(h)

	var dirs []string
	decode(t, do(t, router, "GET", "/api/dirs", nil), &dirs)
	if len(dirs) != 0 {
		t.Fatalf("expected no dirs, got %v", dirs)
	}

	if w := do(t, router, "POST", "/api/dirs", DirRequest{Path: root}); w.Code != http.StatusOK {
		t.Fatalf("add: status = %d, body %s", w.Code, w.Body.String())
	}

	decode(t, do(t, router, "GET", "/api/dirs", nil), &dirs)
	if !slices.Equal(dirs, []string{root}) {
		t.Errorf("dirs = %v", dirs)
	}

	if w := do(t, router, "POST", "/api/dirs", DirRequest{Path: root}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate add: status = %d, want 400", w.Code)
	}

	if w := do(t, router, "DELETE", "/api/dirs", DirRequest{Path: root}); w.Code != http.StatusOK {
		t.Errorf("delete: status = %d", w.Code)
	}
}

func TestAddDirErrors(t *testing.T) {
	h := newTestHandlers(newTestDatabase(t, database.Options{}))
	router := testRouter(h)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing path", DirRequest{}},
		{"not a directory", DirRequest{Path: "/definitely/not/here"}},
		{"invalid body", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, router, "POST", "/api/dirs", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestDeleteDirSuggestion(t *testing.T) {
	root := setupTestTree(t)
	db := newTestDatabase(t, database.Options{})
	if err := db.AddDir(filepath.Join(root, "src")); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	router := testRouter(newTestHandlers(db))

	w := do(t, router, "DELETE", "/api/dirs", DirRequest{Path: filepath.Join(root, "sr")})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if !strings.Contains(body["error"], "did you mean") {
		t.Errorf("expected a suggestion, got %q", body["error"])
	}
}

func TestIgnoresLifecycle(t *testing.T) {
	h := newTestHandlers(newTestDatabase(t, database.Options{}))
	router := testRouter(h)

	var ignores []string
	decode(t, do(t, router, "GET", "/api/ignores", nil), &ignores)
	if !slices.Contains(ignores, "*.o") {
		t.Fatalf("expected default ignores, got %v", ignores)
	}

	if w := do(t, router, "POST", "/api/ignores", IgnoreRequest{Pattern: "*.log"}); w.Code != http.StatusOK {
		t.Fatalf("add: status = %d", w.Code)
	}
	if w := do(t, router, "POST", "/api/ignores", IgnoreRequest{Pattern: "*.log"}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate: status = %d, want 400", w.Code)
	}
	if w := do(t, router, "POST", "/api/ignores", IgnoreRequest{Pattern: "[oops"}); w.Code != http.StatusBadRequest {
		t.Errorf("malformed: status = %d, want 400", w.Code)
	}
	if w := do(t, router, "DELETE", "/api/ignores", IgnoreRequest{Pattern: "*.log"}); w.Code != http.StatusOK {
		t.Errorf("remove: status = %d", w.Code)
	}
	if w := do(t, router, "DELETE", "/api/ignores", IgnoreRequest{Pattern: "*.log"}); w.Code != http.StatusBadRequest {
		t.Errorf("remove unknown: status = %d, want 400", w.Code)
	}
}
