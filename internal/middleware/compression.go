package middleware

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// CompressionConfig controls gzip for JSON responses.
type CompressionConfig struct {
	// Bodies shorter than MinSize are sent as-is
	MinSize int
}

// DefaultCompressionConfig compresses JSON bodies of 1 KiB and up, which
// in practice means search results with more than a handful of hits.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{MinSize: 1024}
}

var gzipWriters = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

// gzipJSONWriter holds the body back until MinSize bytes have arrived or
// the handler returns, then commits to gzip or plain output.
type gzipJSONWriter struct {
	http.ResponseWriter
	minSize int
	status  int
	pending []byte
	gz      *gzip.Writer
	decided bool
}

func (g *gzipJSONWriter) WriteHeader(status int) {
	if !g.decided {
		g.status = status
	}
}

func (g *gzipJSONWriter) Write(p []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(p)
		}
		return g.ResponseWriter.Write(p)
	}
	g.pending = append(g.pending, p...)
	if len(g.pending) >= g.minSize {
		if err := g.commit(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// commit sends headers and the held-back body.
func (g *gzipJSONWriter) commit() error {
	g.decided = true
	h := g.Header()
	if len(g.pending) >= g.minSize && isJSON(h.Get("Content-Type")) {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		g.gz = gzipWriters.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
	}
	g.ResponseWriter.WriteHeader(g.status)

	body := g.pending
	g.pending = nil
	if len(body) == 0 {
		return nil
	}
	var err error
	if g.gz != nil {
		_, err = g.gz.Write(body)
	} else {
		_, err = g.ResponseWriter.Write(body)
	}
	return err
}

func (g *gzipJSONWriter) finish() {
	if !g.decided {
		_ = g.commit()
	}
	if g.gz != nil {
		_ = g.gz.Close()
		gzipWriters.Put(g.gz)
		g.gz = nil
	}
}

// Flush implements http.Flusher
func (g *gzipJSONWriter) Flush() {
	if !g.decided {
		_ = g.commit()
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression gzips JSON responses for clients that accept it. Other
// content types pass through unchanged.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipJSONWriter{ResponseWriter: w, minSize: config.MinSize, status: http.StatusOK}
			defer gw.finish()
			next.ServeHTTP(gw, r)
		})
	}
}
