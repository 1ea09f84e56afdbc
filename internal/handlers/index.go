package handlers

import (
	"net/http"

	"quickopen/internal/logging"
)

// GetStatus returns the database status.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.db.Status())
}

// Sync drives indexing to completion before responding. The request
// context bounds the wait.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Sync(r.Context()); err != nil {
		if r.Context().Err() != nil {
			writeJSONError(w, "sync cancelled", http.StatusServiceUnavailable)
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.db.Status())
}

// TriggerReindex marks the index dirty so the event loop rebuilds it.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if !h.reindex.Allow() {
		w.Header().Set("Retry-After", "10")
		writeJSONError(w, "reindex rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	logging.Info("Manual reindex requested")
	h.db.MarkDirty()

	writeJSONStatusCode(w, http.StatusAccepted, map[string]string{"status": "reindex_started"})
}
