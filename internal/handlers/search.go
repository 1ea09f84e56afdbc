package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"quickopen/internal/query"
)

// Search handles GET /api/search with query parameters q, max_hits,
// exact_match, current_filename and open_filenames.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.runSearch(w, r, q)
}

// SearchPost handles POST /api/search with the query's key-value JSON form.
func (h *Handlers) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	q, err := query.FromDict(body)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.runSearch(w, r, q)
}

func (h *Handlers) runSearch(w http.ResponseWriter, r *http.Request, q query.Query) {
	result, err := h.db.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

func queryFromParams(r *http.Request) (query.Query, error) {
	params := r.URL.Query()
	q := query.New(params.Get("q"))

	if v := params.Get("max_hits"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("max_hits: %q is not an integer", v)
		}
		q.MaxHits = n
	}
	if v := params.Get("exact_match"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("exact_match: %q is not a boolean", v)
		}
		q.ExactMatch = b
	}
	q.CurrentFilename = params.Get("current_filename")
	q.OpenFilenames = params["open_filenames"]

	return q, nil
}
