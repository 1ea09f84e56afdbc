// Command quickopen-search indexes directories once and prints the files
// matching a fuzzy query, best match first.
//
// Usage:
//
//	quickopen-search DIR... -- QUERY
//
// The index is built synchronously in memory with the default ignore
// patterns; nothing is persisted. When stdout is a terminal each hit is
// printed with its rank and long paths are shortened from the left to fit
// the terminal width. Otherwise bare paths are printed one per line, which
// suits piping into other tools.
//
// Environment:
//
//	MAX_HITS - Maximum number of results (default: 100)
//
// Exit status is 0 when at least one file matched, 1 when none did and 2 on
// usage or indexing errors.
package main
