package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"marketplace/pkg/logger"
)

// Pinger is a dependency that can report its connectivity
type Pinger interface {
	Health(ctx context.Context) error
}

// RecordCounter reports how many listings the market dataset holds
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	listings    RecordCounter
	deps        map[string]Pinger
	agents      []string
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler. deps holds the optional backing
// services (postgres, redis, ...) keyed by name; nil entries are skipped.
func New(
	log *logger.Logger,
	listings RecordCounter,
	deps map[string]Pinger,
	agents []string,
	serviceName string,
	version string,
) *Handler {
	active := make(map[string]Pinger, len(deps))
	for name, dep := range deps {
		if dep != nil {
			active[name] = dep
		}
	}

	return &Handler{
		log:         log,
		listings:    listings,
		deps:        active,
		agents:      agents,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Agents    map[string]string          `json:"agents"`
	Data      DataStatus                 `json:"data"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// DataStatus describes the loaded market dataset
type DataStatus struct {
	RecordsLoaded int `json:"records_loaded"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness reports 503 until the dataset and every dependency answer
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.collect(ctx)

	statusCode := http.StatusOK
	for _, check := range status.Checks {
		if check.Status != "healthy" {
			status.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			h.log.Warnw("Readiness check failed", "checks", status.Checks)
			break
		}
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed health status. An unreachable optional
// dependency degrades the status; an unreadable dataset makes it unhealthy.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := h.collect(ctx)

	statusCode := http.StatusOK
	if status.Checks["market_data"].Status != "healthy" {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else {
		for _, check := range status.Checks {
			if check.Status != "healthy" {
				status.Status = "degraded"
				break
			}
		}
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) collect(ctx context.Context) HealthStatus {
	checks := make(map[string]ComponentHealth, len(h.deps)+1)

	records, dataHealth := h.checkListings(ctx)
	checks["market_data"] = dataHealth

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks[name] = h.checkDependency(ctx, name, h.deps[name])
	}

	agents := make(map[string]string, len(h.agents))
	for _, name := range h.agents {
		agents[name] = "ready"
	}

	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Agents:    agents,
		Data:      DataStatus{RecordsLoaded: records},
		Checks:    checks,
	}
}

// checkListings counts the market dataset
func (h *Handler) checkListings(ctx context.Context) (int, ComponentHealth) {
	start := time.Now()
	n, err := h.listings.Count(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Market data health check failed", "error", err, "elapsed", elapsed)
		return 0, ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return n, ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

// checkDependency verifies connectivity of one backing service
func (h *Handler) checkDependency(ctx context.Context, name string, dep Pinger) ComponentHealth {
	start := time.Now()
	err := dep.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Dependency health check failed", "dependency", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
