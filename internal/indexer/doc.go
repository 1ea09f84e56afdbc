// Package indexer walks the watched directory trees and builds the
// basename to full path mapping the search shards are built from.
//
// The walk is incremental. [Indexer.Step] does a bounded amount of work and
// returns, so the caller can interleave indexing with serving searches on
// the same goroutine. The walk is depth-first, visits every real path at
// most once (symlink cycles and aliased roots are suppressed through the
// visited set) and treats unreadable directories as empty.
//
// An Indexer is single use. When the watched directories or ignore patterns
// change, the owner discards it and starts a new one.
package indexer
