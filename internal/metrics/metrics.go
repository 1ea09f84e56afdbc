package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickopen_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_indexer_runs_total",
			Help: "Total number of index rebuilds started",
		},
	)

	IndexerRunsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_indexer_runs_discarded_total",
			Help: "Index rebuilds abandoned because the configuration changed mid-run",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_indexer_running",
			Help: "Whether an index rebuild is in progress (1 = running, 0 = idle)",
		},
	)

	IndexerStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_indexer_steps_total",
			Help: "Total number of bounded indexing steps executed",
		},
	)

	IndexerStepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quickopen_indexer_step_duration_seconds",
			Help:    "Wall time of a single bounded indexing step",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	IndexerFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_indexer_files_found_total",
			Help: "Total number of files found by the indexer",
		},
	)

	IndexerDirsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_indexer_dirs_pending",
			Help: "Directories waiting to be visited by the current rebuild",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_indexer_last_run_timestamp",
			Help: "Unix timestamp of the last completed rebuild",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_indexer_last_run_duration_seconds",
			Help: "Duration of the last completed rebuild in seconds",
		},
	)

	IndexedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_indexed_files",
			Help: "Number of files in the index currently serving queries",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_watched_directories",
			Help: "Number of configured directories",
		},
	)

	IgnorePatterns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_ignore_patterns",
			Help: "Number of configured ignore patterns",
		},
	)
)

// Directory cache metrics
var (
	DirCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_dircache_hits_total",
			Help: "Directory listings served from cache",
		},
	)

	DirCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_dircache_misses_total",
			Help: "Directory listings read from disk",
		},
	)

	DirCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_dircache_invalidations_total",
			Help: "Cached directory listings dropped",
		},
		[]string{"reason"}, // "modified", "vanished", "ignores"
	)
)

// Shard metrics
var (
	ShardCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_shards",
			Help: "Number of index shards serving queries",
		},
	)

	ShardPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickopen_shard_pass_duration_seconds",
			Help:    "Duration of one shard search pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"pass"}, // "wordstart", "substring", "superfuzzy"
	)

	ShardHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_shard_hits_total",
			Help: "Basename hits produced by each shard search pass",
		},
		[]string{"pass"},
	)

	ShardWorkerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_shard_worker_failures_total",
			Help: "Shard searches that failed and aborted their query",
		},
	)

	ShardBuildDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_shard_build_duration_seconds",
			Help: "Time spent building the shard set after the last rebuild",
		},
	)
)

// Query metrics
var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_searches_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"status"}, // "success", "error", "not_synchronized", "empty"
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quickopen_search_duration_seconds",
			Help:    "End-to-end search duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quickopen_search_results",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	QueryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_query_cache_hits_total",
			Help: "Searches answered from the query cache",
		},
	)

	QueryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_query_cache_misses_total",
			Help: "Searches computed against the shards",
		},
	)
)

// Settings store metrics
var (
	SettingsOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_settings_ops_total",
			Help: "Settings store operations",
		},
		[]string{"operation", "status"},
	)

	SettingsOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickopen_settings_op_duration_seconds",
			Help:    "Settings store operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickopen_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by watched volume",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_filesystem_operation_errors_total",
			Help: "Filesystem operations that returned an error",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_filesystem_retry_attempts_total",
			Help: "Retries issued after an NFS stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickopen_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickopen_filesystem_retry_duration_seconds",
			Help:    "Total time spent in an operation including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Runtime metrics
var (
	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_go_mem_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_go_mem_sys_bytes",
			Help: "Total bytes of memory obtained from the OS",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryIndexingPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickopen_memory_indexing_paused",
			Help: "Whether indexing is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickopen_memory_pauses_total",
			Help: "Number of times indexing was paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quickopen_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
