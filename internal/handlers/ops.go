package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	redisOK := h.cache != nil && h.cache.Ping(ctx) == nil
	dbOK := h.history != nil && h.history.Ping(ctx) == nil

	status := "healthy"
	httpStatus := http.StatusOK

	if !redisOK || !dbOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"redis":     redisOK,
		"database":  dbOK,
		"timestamp": h.now().UTC(),
	})
}

// Ping обрабатывает GET /ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "pong"})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := map[string]any{
		"timestamp": h.now().UTC(),
	}

	if h.analyzer != nil {
		out["analyzer"] = h.analyzer.GetStats()
	}
	if h.cache != nil {
		out["redis"] = h.cache.GetStats()
		counters := map[string]int64{}
		for _, key := range []string{"reports", "readings"} {
			if v, err := h.cache.GetCounter(ctx, key); err == nil {
				counters[key] = v
			}
		}
		out["counters"] = counters
	}
	if h.history != nil {
		if counts, err := h.history.TableCounts(ctx); err == nil {
			out["history"] = counts
		} else {
			out["history"] = map[string]string{"error": err.Error()}
		}
	}

	writeJSON(w, http.StatusOK, out)
}
