// Package query turns search text into a ranked, truncated list of paths.
//
// Text is split on its last '/' into a directory filter and a basename
// part. The basename part is matched against the shards; every hit is
// expanded to its full paths, filtered by the directory suffix, ranked and
// sorted. Ties in rank are broken by basename, then by full path, so equal
// scores always come back in the same order.
//
// Results are memoized in a [Cache] keyed by "<text>@<max_hits>". The
// exact-match filter is applied after the cache so both variants of a query
// share one entry.
package query
