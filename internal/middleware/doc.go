// Package middleware provides HTTP middleware for the quickopen API.
//
// It includes:
//   - Request ids (X-Request-ID) generated with google/uuid
//   - A one-line-per-request access log with the search text, routed
//     through the logging package by status and latency
//   - Prometheus request metrics labelled by route template
//   - gzip for JSON responses via klauspost/compress
package middleware
