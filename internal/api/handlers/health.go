package handlers

import (
	"context"
	"net/http"
	"time"
)

// ServiceName is reported by the health endpoint
const ServiceName = "bankrank-api"

// Pinger is satisfied by *database.DB and *redis.Client
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a backing service reported under Name in /health
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler reports service health
type HealthHandler struct {
	deps []Dependency
}

// NewHealthHandler creates a health handler over the configured dependencies.
// Entries with a nil Pinger are skipped.
func NewHealthHandler(deps ...Dependency) *HealthHandler {
	h := &HealthHandler{}
	for _, d := range deps {
		if d.Pinger != nil {
			h.deps = append(h.deps, d)
		}
	}
	return h
}

// Check returns server health status. A failing dependency degrades the
// status but the endpoint still answers 200: ranking posted batches needs none.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": ServiceName,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, d := range h.deps {
		if err := d.Pinger.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body[d.Name] = "unreachable"
		} else {
			body[d.Name] = "ok"
		}
	}

	respondJSON(w, http.StatusOK, body)
}
