// Package main is the quickopen daemon: a local fuzzy file-name search
// service.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT, if set
//  2. Configuration loading: defaults, optional TOML file, environment
//  3. Settings: the SQLite settings store holding watched directories and
//     ignore patterns
//  4. Components:
//     - Database: indexing state and the searchable snapshot
//     - Index loop: bounded indexing steps plus periodic rescans
//     - Memory monitor: pauses indexing under memory pressure
//     - Metrics collector: refreshes Prometheus gauges
//  5. HTTP: JSON API on PORT and /metrics on METRICS_PORT
//  6. Graceful shutdown on SIGINT/SIGTERM, index loop first
//
// See package startup for the configuration reference.
package main
