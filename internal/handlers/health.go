package handlers

import (
	"net/http"
	"runtime"
	"time"

	"quickopen/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Indexing    bool   `json:"indexing"`
	Progress    string `json:"progress,omitempty"`
	LastIndexed string `json:"lastIndexed,omitempty"`
	LastError   string `json:"lastError,omitempty"`

	IndexedFiles int `json:"indexedFiles"`
	WatchedDirs  int `json:"watchedDirs"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503
// until a first index exists.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	st := h.db.Status()

	response := HealthResponse{
		Ready:        st.Ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Indexing:     st.Indexing,
		Progress:     st.Progress,
		LastError:    st.LastError,
		IndexedFiles: st.NumFiles,
		WatchedDirs:  len(st.Dirs),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	switch {
	case st.LastError != "":
		response.Status = statusDegraded
	case st.Ready:
		response.Status = statusHealthy
	default:
		response.Status = statusStarting
	}

	if !st.LastIndexed.IsZero() {
		response.LastIndexed = st.LastIndexed.Format(time.RFC3339)
	}

	code := http.StatusOK
	if !st.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatusCode(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only once a searchable index exists
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.db.Ready() {
		writeJSONStatusCode(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
