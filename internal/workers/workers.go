package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "SEARCH_SHARDS"

// Count returns the number of workers for a task with the given
// per-CPU multiplier. It respects container CPU limits via GOMAXPROCS.
//
// The limit parameter caps the result. Use 0 for no limit.
//
// Can be overridden with the SEARCH_SHARDS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForShards returns how many shards an index of n entries should be split
// into. Each shard holds at least minPerShard entries, so small indexes
// collapse to a single shard searched in the caller's goroutine.
func ForShards(n, minPerShard, limit int) int {
	shards := ForCPU(limit)
	if minPerShard > 0 {
		if byItems := n / minPerShard; byItems < shards {
			shards = byItems
		}
	}
	if shards < 1 {
		shards = 1
	}
	return shards
}
