package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the liveness and readiness checks.
type SystemHandler struct {
	store   Pinger
	version string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store Pinger, version string) *SystemHandler {
	return &SystemHandler{store: store, version: version, started: time.Now()}
}

// Health is the plain-text liveness check the web client polls.
// GET /api/auth/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Backend is running!")
}

// Healthz is the liveness check. Returns 200 if the process is running.
// GET /healthz
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readyz is the readiness check. Returns 200 when the database answers a ping
// within two seconds, 503 otherwise.
// GET /readyz
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status, code := "ok", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
