// Package dircache provides memoized, ignore-filtered directory listings.
//
// Listings are keyed by the directory's real path and revalidated with a
// single stat per call: when the directory's modification time is unchanged
// the cached names are returned as-is, otherwise the directory is read again.
// A directory that cannot be stat'ed or read (removed mid-walk, permission
// denied) lists as empty.
//
// Ignore patterns are shell globs (*, ?, [...]) compiled with gobwas/glob.
// Patterns without a path separator are matched against an entry's basename;
// patterns containing one are matched against the entry's full joined path,
// where * also matches separators. Changing the ignore set drops every
// cached listing.
//
// Real path resolution is memoized separately and reset by the indexer at the
// start of each walk via [Cache.ResetRealpaths].
package dircache
