package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickopen/internal/logging"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

// responseWriter records the status and body size for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig controls the access log.
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool

	// Requests slower than this are logged at warn level. Interactive
	// searches are expected well under it.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SlowThreshold: 250 * time.Millisecond,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// validRequestID accepts ids made of letters, digits, '.', '_' and '-'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// RequestID tags each request with an X-Request-ID. A well-formed id
// supplied by the client is kept; anything else is replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// Logger returns the access log middleware. One line is written per
// request through the logging package:
//
//	id=<request id> GET /api/search status=200 bytes=512 dur=1.2ms q="main.go"
//
// 5xx responses log at error level, 4xx and slow requests at warn.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			logRequest(r, wrapped, time.Since(start), config.SlowThreshold)
		})
	}
}

func logRequest(r *http.Request, rw *responseWriter, duration, slow time.Duration) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id=%s %s %q status=%d bytes=%d dur=%s",
		id, r.Method, r.URL.Path, rw.statusCode, rw.bytesWritten, duration.Round(time.Microsecond))
	if q := r.URL.Query().Get("q"); q != "" {
		fmt.Fprintf(&b, " q=%q", q)
	}
	if enc := rw.Header().Get("Content-Encoding"); enc != "" {
		fmt.Fprintf(&b, " enc=%s", enc)
	}
	line := b.String()

	switch {
	case rw.statusCode >= http.StatusInternalServerError:
		logging.Error("%s", line)
	case rw.statusCode >= http.StatusBadRequest:
		logging.Warn("%s", line)
	case slow > 0 && duration > slow:
		logging.Warn("%s slow", line)
	default:
		logging.Info("%s", line)
	}
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return !config.LogHealthChecks && healthCheckPaths[path]
}
