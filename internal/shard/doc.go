// Package shard holds the immutable, searchable partitions of the basename
// index and the Manager that fans queries out across them.
//
// Each [Shard] joins its lowercase basenames into one newline-delimited
// buffer. Newlines never occur inside a basename, so they bound every scan:
// a substring or fuzzy match cannot span two candidates. A search runs up to
// three passes and stops as soon as one yields enough good hits:
//
//  1. word-start prefix lookup ("rwh" finds render_widget_host.h)
//  2. case-insensitive substring scan of the buffer
//  3. superfuzzy scan, query letters in order with arbitrary gaps
//
// The third pass only runs when no earlier hit ranks above a fixed quality
// threshold.
//
// [Manager] partitions a finished index into shards and searches them
// concurrently with an errgroup. A failing or panicking shard fails the
// whole search with a [WorkerError]; partial results are never returned.
package shard
