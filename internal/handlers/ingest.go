package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
)

// Ingest обрабатывает POST /api/iot/ingest
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var reading models.Reading
	if err := decodeJSON(w, r, &reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reading.Zone = strings.ToLower(strings.TrimSpace(reading.Zone))
	if err := validate.Struct(reading); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = h.now().UTC()
	}
	if reading.Source == "" {
		reading.Source = "IOT"
	}

	stored, err := h.history.Insert(r.Context(), reading)
	metrics.HistoryOperations.WithLabelValues("insert", metrics.Status(err)).Inc()
	if err != nil {
		slog.Error("failed to store reading", "zone", reading.Zone, "error", err)
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	queued := h.analyzer.AddReading(stored)
	if !queued {
		slog.Warn("analyzer queue full, reading not analyzed", "id", stored.ID)
	}
	metrics.ReadingsReceived.WithLabelValues(stored.Zone).Inc()

	if h.cache != nil {
		if err := h.cache.IncrementCounter(r.Context(), "readings"); err != nil {
			slog.Warn("failed to count reading", "error", err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"id":     stored.ID,
		"zone":   stored.Zone,
		"queued": queued,
	})
}
