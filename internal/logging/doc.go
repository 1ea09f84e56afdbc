// Package logging provides a simple leveled logging interface for the
// quickopen daemon and tools.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true. Output always goes to stderr; [EnableFileOutput] additionally
// mirrors it into a size-rotated log file.
package logging
