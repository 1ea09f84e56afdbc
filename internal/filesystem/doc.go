/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

# Purpose

The directory cache stats and lists every watched directory on each index
rebuild. Source trees are frequently NFS-mounted, and a rebuild racing with
server-side changes can see ESTALE (stale file handle). This package wraps
os.Stat and directory listing with retry logic for exactly that error.

# Key Features

  - Automatic retry with exponential backoff for NFS ESTALE errors (errno 116)
  - Configurable retry attempts (default: 3) and backoff timings
  - Transparent fallback to standard os operations for non-NFS errors
  - Per-volume metric labels, where a volume is one watched directory

# Usage

	config := filesystem.DefaultRetryConfig()
	config.VolumeResolver = filesystem.VolumesForDirs(watchedDirs)

	info, err := filesystem.StatWithRetry("/nfs/src/chromium", config)
	names, err := filesystem.ReadDirNamesWithRetry("/nfs/src/chromium", config)

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only NFS stale file handle errors (ESTALE) trigger retries. All other errors
fail immediately without retry attempts.

# Metrics

Operation and retry metrics are reported through an [Observer] registered with
[SetObserver]. The metrics package provides the Prometheus implementation.
*/
package filesystem
