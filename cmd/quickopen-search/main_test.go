package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quickopen/internal/query"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantDirs []string
		wantText string
		wantErr  bool
	}{
		{"single dir", []string{"/src", "--", "main"}, []string{"/src"}, "main", false},
		{"multiple dirs and words", []string{"/a", "/b", "--", "foo", "bar"}, []string{"/a", "/b"}, "foo bar", false},
		{"no separator", []string{"/src", "main"}, nil, "", true},
		{"no dirs", []string{"--", "main"}, nil, "", true},
		{"no query", []string{"/src", "--"}, nil, "", true},
		{"empty", nil, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs, text, err := parseArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if strings.Join(dirs, ",") != strings.Join(tt.wantDirs, ",") {
				t.Errorf("dirs = %v, want %v", dirs, tt.wantDirs)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestRun(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"src/main.go", "src/main_test.go", "docs/guide.md", "build/main.o"} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := run(context.Background(), []string{root}, query.New("main"))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if res.Len() != 2 {
		t.Fatalf("got %d hits %v, want 2", res.Len(), res.Filenames)
	}
	for _, f := range res.Filenames {
		if strings.HasSuffix(f, ".o") {
			t.Errorf("ignored file %s returned", f)
		}
	}
}

func TestRunMissingDir(t *testing.T) {
	_, err := run(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, query.New("x"))
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestPrintResultsPlain(t *testing.T) {
	res := query.Result{Filenames: []string{"/a/b.go", "/c/d.go"}, Ranks: []float64{4, 2}}

	var buf bytes.Buffer
	printResults(&buf, res, false, 80)

	if buf.String() != "/a/b.go\n/c/d.go\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintResultsTerminal(t *testing.T) {
	long := "/very/long/path/to/some/deeply/nested/project/file.go"
	res := query.Result{Filenames: []string{long}, Ranks: []float64{3.5}, Truncated: true}

	var buf bytes.Buffer
	printResults(&buf, res, true, 30)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected hit and truncation lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "   3.5  ...") {
		t.Errorf("line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], "file.go") {
		t.Errorf("line should keep the file name: %q", lines[0])
	}
	if len(lines[0]) > 30 {
		t.Errorf("line length %d exceeds width", len(lines[0]))
	}
}

func TestShorten(t *testing.T) {
	if got := shorten("/a/b", 10); got != "/a/b" {
		t.Errorf("shorten() = %q", got)
	}
	if got := shorten("/abcdefghijkl", 8); got != "...hijkl" {
		t.Errorf("shorten() = %q", got)
	}
}
