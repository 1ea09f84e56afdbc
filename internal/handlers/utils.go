package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"quickopen/internal/database"
	"quickopen/internal/logging"
	"quickopen/internal/query"
	"quickopen/internal/shard"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged since the status line is already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v as JSON with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatusCode(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSONStatusCode(w, http.StatusOK, map[string]string{"status": status})
}

// errorStatus maps a database or query error to an HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotSynchronized):
		return http.StatusServiceUnavailable
	case database.ErrorIsConfig(err), errors.Is(err, query.ErrInvalidMaxHits):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// workerErrorResponse is the body for a search that lost a shard worker.
type workerErrorResponse struct {
	Error string `json:"error"`
	Shard int    `json:"shard"`
}

// writeError writes err with its mapped status. The not-synchronized case
// uses a status body so clients can poll for it.
func writeError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code == http.StatusServiceUnavailable {
		writeJSONStatusCode(w, code, map[string]string{"status": database.StatusNotSynchronized})
		return
	}
	var workerErr *shard.WorkerError
	if errors.As(err, &workerErr) {
		logging.Error("search worker for shard %d failed: %v", workerErr.Shard, workerErr.Err)
		writeJSONStatusCode(w, code, workerErrorResponse{Error: "search worker failed", Shard: workerErr.Shard})
		return
	}
	if code == http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	}
	writeJSONError(w, err.Error(), code)
}
