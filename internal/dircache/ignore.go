package dircache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"quickopen/internal/logging"
)

// pattern is a compiled ignore glob.
type pattern struct {
	glob glob.Glob
	path bool
}

// IsPathPattern reports whether p is matched against full paths rather
// than basenames.
func IsPathPattern(p string) bool {
	return strings.ContainsRune(p, filepath.Separator) || strings.ContainsRune(p, '/')
}

// CompilePattern validates and compiles an ignore glob. Wildcards match
// across path separators, so "*/build/*" excludes every entry below any
// directory named build.
func CompilePattern(p string) (glob.Glob, error) {
	if p == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if _, err := filepath.Match(p, ""); err != nil {
		return nil, err
	}
	return glob.Compile(p)
}

func compilePatterns(sources []string) []pattern {
	out := make([]pattern, 0, len(sources))
	for _, src := range sources {
		g, err := CompilePattern(src)
		if err != nil {
			logging.Warn("Skipping malformed ignore pattern %q: %v", src, err)
			continue
		}
		out = append(out, pattern{glob: g, path: IsPathPattern(src)})
	}
	return out
}
