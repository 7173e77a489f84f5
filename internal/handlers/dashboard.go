package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"smartcity-air/internal/history"
	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

func filtersFrom(r *http.Request) scenario.Filters {
	q := r.URL.Query()
	return scenario.Filters{
		Period:    q.Get("period"),
		Zone:      q.Get("zone"),
		Pollutant: q.Get("pollutant"),
	}.Normalize()
}

// snapshot снимок сценария текущей минуты из кэша или генератора
func (h *Handler) snapshot(ctx context.Context, f scenario.Filters, now time.Time) scenario.Snapshot {
	compute := func() scenario.Snapshot {
		start := time.Now()
		s := h.engine.Compute(f, now)
		metrics.ScenarioComputations.WithLabelValues(f.Period).Inc()
		metrics.ScenarioLatency.Observe(time.Since(start).Seconds())
		return s
	}
	if h.cache == nil {
		return compute()
	}
	return h.cache.SnapshotOrCompute(ctx, f.SeedKey(now), compute)
}

// realSeries ряд из истории измерений за окно периода, nil если данных нет
func (h *Handler) realSeries(ctx context.Context, f scenario.Filters, now time.Time) []scenario.Point {
	if h.history == nil {
		return nil
	}
	period := scenario.ParsePeriod(f.Period)
	pts, err := h.history.Series(ctx, f.Zone, f.Pollutant, now.Add(-scenario.Window(period)))
	metrics.HistoryOperations.WithLabelValues("series", metrics.Status(err)).Inc()
	if err != nil {
		slog.Debug("history series unavailable", "pollutant", f.Pollutant, "error", err)
		return nil
	}
	out := make([]scenario.Point, 0, len(pts))
	for _, p := range pts {
		out = append(out, scenario.Point{
			T:     scenario.AxisLabel(period, p.At),
			Value: int(math.Round(p.Value)),
		})
	}
	return out
}

// Dashboard обрабатывает GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	f := filtersFrom(r)
	now := h.now()

	snap := h.snapshot(r.Context(), f, now)
	if real := h.realSeries(r.Context(), f, now); len(real) > 0 {
		snap.Series = real
	}
	writeJSON(w, http.StatusOK, snap)
}

// overview снимок "сейчас": последнее измерение или демо
func (h *Handler) overview(ctx context.Context, now time.Time) scenario.Overview {
	var alerts []models.Alert
	if h.cache != nil {
		recent, err := h.cache.RecentAlerts(ctx, scenario.ZoneAll, 10)
		metrics.RedisOperations.WithLabelValues("recent_alerts", metrics.Status(err)).Inc()
		if err != nil {
			slog.Warn("failed to load alerts", "error", err)
		}
		alerts = recent
	}

	if h.history != nil {
		latest, err := h.history.Latest(ctx, scenario.ZoneAll)
		switch {
		case err == nil:
			return scenario.OverviewFromReading(latest, alerts, now)
		case !errors.Is(err, history.ErrNotFound):
			slog.Warn("failed to load latest reading", "error", err)
		}
	}

	ov := scenario.ComputeOverview(now)
	if len(alerts) > 0 {
		ov.Alerts = alerts
	}
	return ov
}

// Snapshot обрабатывает GET /api/snapshot
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.overview(r.Context(), h.now()))
}

// Zones обрабатывает GET /api/zones
func (h *Handler) Zones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"zones":      scenario.ZoneStatuses(h.now()),
		"pollutants": scenario.Pollutants,
	})
}

// Predictions обрабатывает GET /api/predictions
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hours, _ := strconv.Atoi(q.Get("hours"))
	zone := q.Get("zone")
	if zone == "" {
		zone = scenario.ZoneCentre
	}
	writeJSON(w, http.StatusOK, scenario.PredictPM25(zone, hours, h.now().Truncate(time.Hour)))
}
