package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether one backend dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func handleHealth(logger *slog.Logger, checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{}
		status := http.StatusOK

		for name, c := range checks {
			result := struct {
				Status string `json:"status"`
			}{Status: "ok"}
			if err := c.Check(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				result.Status = "error"
				status = http.StatusServiceUnavailable
			}
			resp[name] = result
		}

		writeJSON(w, status, resp)
	}
}
