// Package memory bounds the daemon's heap and pauses indexing when the
// bound is close.
//
// [ApplyLimit] turns the memory_limit setting ("512MiB", "2GB") into the
// runtime soft limit unless GOMEMLIMIT is already set. A [Monitor] then
// samples the heap every CheckInterval. Above PauseAt it reports
// [Monitor.IsPaused] and the index loop skips steps until usage drops below
// ResumeAt. Searches keep using the last finished index throughout.
package memory
