// Package handlers provides the HTTP handlers of the System Map API: health,
// graph reads, layout writes and impact edge mutations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type Health struct {
	started time.Time
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewHealth(checks map[string]CheckFunc) *Health {
	return &Health{started: time.Now(), checks: checks, timeout: 2 * time.Second}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, r)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "cindral-system-map",
		Uptime:    time.Since(h.started).String(),
		Details: map[string]string{
			"go_version": runtime.Version(),
			"num_cpu":    strconv.Itoa(runtime.NumCPU()),
		},
	}

	status := http.StatusOK
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		response.Checks = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				response.Checks[name] = err.Error()
				response.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
