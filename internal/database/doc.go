// Package database is the search daemon's orchestrator.
//
// A Database owns the watched directory and ignore pattern settings, at
// most one in-flight [indexer.Indexer], and the snapshot currently serving
// searches. Any settings change marks the database dirty; the next
// [Database.StepSync] discards in-flight progress and starts a fresh walk.
// When a walk completes, its files are frozen into a [shard.Manager] and
// swapped in atomically together with a new query cache, so a concurrent
// search sees either the old snapshot or the new one, never a mix.
//
// Indexing is driven cooperatively: [Database.Run] ticks StepSync on a
// single goroutine, and each step is bounded by the step budget. Searches
// never take the indexing lock.
package database
