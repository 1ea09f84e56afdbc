package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, reason := range []string{"modified", "vanished", "ignores"} {
		DirCacheInvalidations.WithLabelValues(reason)
	}

	for _, pass := range []string{"wordstart", "substring", "superfuzzy"} {
		ShardPassDuration.WithLabelValues(pass)
		ShardHits.WithLabelValues(pass)
	}

	for _, status := range []string{"success", "error", "not_synchronized", "empty"} {
		SearchesTotal.WithLabelValues(status)
	}

	for _, op := range []string{"open", "register", "get", "set"} {
		SettingsOpsTotal.WithLabelValues(op, "success")
		SettingsOpsTotal.WithLabelValues(op, "error")
		SettingsOpDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "readdir"} {
		FilesystemOperationDuration.WithLabelValues("unknown", op)
		FilesystemOperationErrors.WithLabelValues("unknown", op)
		FilesystemRetryAttempts.WithLabelValues(op, "unknown")
		FilesystemRetrySuccess.WithLabelValues(op, "unknown")
		FilesystemRetryFailures.WithLabelValues(op, "unknown")
		FilesystemStaleErrors.WithLabelValues(op, "unknown")
		FilesystemRetryDuration.WithLabelValues(op, "unknown")
	}
}
