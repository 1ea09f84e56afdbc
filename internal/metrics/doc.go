// Package metrics provides Prometheus instrumentation for the quickopen daemon.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "quickopen_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of requests being served
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal, IndexerRunsDiscarded: rebuilds started and abandoned
//   - IndexerStepsTotal, IndexerStepDuration: bounded steps and their wall time
//   - IndexerFilesFound, IndexerDirsPending: walk progress
//   - IndexedFiles, WatchedDirectories, IgnorePatterns: current configuration and index size
//
// ## Directory Cache Metrics
//
//   - DirCacheHits, DirCacheMisses
//   - DirCacheInvalidations by reason
//
// ## Shard and Query Metrics
//
//   - ShardCount, ShardPassDuration, ShardHits, ShardWorkerFailures
//   - SearchesTotal, SearchDuration, SearchResults
//   - QueryCacheHits, QueryCacheMisses
//
// ## Filesystem Metrics
//
// Recorded through [NewFilesystemObserver], which implements
// filesystem.Observer. Covers operation latency, errors, and NFS stale
// handle retries for stat and readdir.
//
// # Collector
//
// [Collector] periodically polls a [StatsProvider] and updates the index
// gauges along with Go runtime memory statistics:
//
//	collector := metrics.NewCollector(db, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Search rate by outcome:
//
//	sum(rate(quickopen_searches_total[5m])) by (status)
//
// P95 search latency:
//
//	histogram_quantile(0.95, sum(rate(quickopen_search_duration_seconds_bucket[5m])) by (le))
//
// Query cache hit rate:
//
//	rate(quickopen_query_cache_hits_total[5m]) /
//	(rate(quickopen_query_cache_hits_total[5m]) + rate(quickopen_query_cache_misses_total[5m]))
package metrics
