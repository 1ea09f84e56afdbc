package handlers

import (
	"encoding/json"
	"net/http"
)

type DirRequest struct {
	Path string `json:"path"`
}

type IgnoreRequest struct {
	Pattern string `json:"pattern"`
}

// GetDirs lists the watched directories.
func (h *Handlers) GetDirs(w http.ResponseWriter, _ *http.Request) {
	dirs, err := h.db.Dirs()
	if err != nil {
		writeError(w, err)
		return
	}
	if dirs == nil {
		dirs = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, dirs)
}

func (h *Handlers) AddDir(w http.ResponseWriter, r *http.Request) {
	var req DirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.db.AddDir(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

func (h *Handlers) DeleteDir(w http.ResponseWriter, r *http.Request) {
	var req DirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteDir(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// GetIgnores lists the ignore patterns.
func (h *Handlers) GetIgnores(w http.ResponseWriter, _ *http.Request) {
	ignores, err := h.db.Ignores()
	if err != nil {
		writeError(w, err)
		return
	}
	if ignores == nil {
		ignores = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ignores)
}

func (h *Handlers) AddIgnore(w http.ResponseWriter, r *http.Request) {
	var req IgnoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.Ignore(req.Pattern); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

func (h *Handlers) RemoveIgnore(w http.ResponseWriter, r *http.Request) {
	var req IgnoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.Unignore(req.Pattern); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}
