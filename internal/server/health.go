package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/drivepath/internal/drive"
)

// Health status constants for health check responses.
const (
	healthStatusOK            = "ok"
	healthStatusNotReady      = "not ready"
	healthStatusShuttingDown  = "shutting down"
	healthStatusUnrefreshable = "unrefreshable"
)

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Credential string `json:"credential,omitempty"`
	Yolo       bool   `json:"yolo"`
}

// checks evaluates every readiness condition.
func (h *HealthChecker) checks() (map[string]string, bool) {
	checks := map[string]string{
		"ready":      healthStatusOK,
		"shutdown":   healthStatusOK,
		"credential": healthStatusOK,
	}
	ok := true

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}

	sc := h.serverContext
	if sc == nil {
		return checks, ok
	}
	if sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	// A stale credential is refreshed on the next call; only the terminal
	// state makes the server useless.
	if tokens := sc.Tokens(); tokens != nil && tokens.State() == drive.StateUnrefreshable {
		checks["credential"] = healthStatusUnrefreshable
		ok = false
	}
	return checks, ok
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.checks()
		if ok {
			writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if sc := h.serverContext; sc != nil {
			response.Yolo = sc.Yolo()
			if tokens := sc.Tokens(); tokens != nil {
				response.Credential = tokens.State().String()
			}
		}

		checks, ok := h.checks()
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
			response.Status = healthStatusNotReady
			if checks["shutdown"] != healthStatusOK {
				response.Status = healthStatusShuttingDown
			}
		}
		writeJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
