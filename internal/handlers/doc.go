// Package handlers provides the HTTP handlers for the quickopen JSON API.
//
// It includes handlers for:
//   - Fuzzy file search (GET with query parameters, POST with a JSON query)
//   - Watched directories and ignore patterns
//   - Index status, synchronous sync and rate-limited reindex
//   - Health, liveness and readiness probes
//   - Version information
package handlers
