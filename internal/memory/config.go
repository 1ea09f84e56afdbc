package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"

	"quickopen/internal/logging"
)

// Sources of the heap budget.
const (
	SourceGoMemLimit = "GOMEMLIMIT"
	SourceConfig     = "memory_limit"
	SourceNone       = "none"
)

// Budget is the heap limit in force after ApplyLimit.
type Budget struct {
	Source string
	Limit  int64
}

// String renders the budget for startup logs.
func (b Budget) String() string {
	if b.Limit <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%s (%s)", formatBytes(b.Limit), b.Source)
}

// ParseLimit parses a size such as "512MiB", "2GB" or "1073741824".
// An empty string means no limit.
func ParseLimit(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", raw, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("memory limit %q is too large", raw)
	}
	return int64(n), nil
}

// ApplyLimit sets the runtime soft memory limit from the configured
// memory_limit. An explicit GOMEMLIMIT in the environment wins and raw is
// ignored. The returned Budget feeds the Monitor.
func ApplyLimit(raw string) (Budget, error) {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		limit := debug.SetMemoryLimit(-1)
		if limit <= 0 || limit == math.MaxInt64 {
			return Budget{Source: SourceNone}, nil
		}
		logging.Info("Heap budget from GOMEMLIMIT=%s", env)
		return Budget{Source: SourceGoMemLimit, Limit: limit}, nil
	}

	limit, err := ParseLimit(raw)
	if err != nil {
		return Budget{Source: SourceNone}, err
	}
	if limit == 0 {
		logging.Debug("No memory limit configured; indexing backpressure disabled")
		return Budget{Source: SourceNone}, nil
	}

	debug.SetMemoryLimit(limit)
	b := Budget{Source: SourceConfig, Limit: limit}
	logging.Info("Heap budget set to %s", b)
	return b, nil
}

func formatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}
