package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smartcity-air/internal/cache"
	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
	"smartcity-air/internal/report"
	"smartcity-air/internal/scenario"
)

const defaultReportDays = 7

// buildReport верстает отчет по зоне и загрязнителю на текущую минуту
func (h *Handler) buildReport(ctx context.Context, req models.ReportRequest) ([]byte, models.ReportInfo, error) {
	now := h.now()
	f := scenario.Filters{Zone: req.Zone, Pollutant: req.Pollutant}.Normalize()
	p, _ := scenario.LookupPollutant(f.Pollutant)
	days := req.Days
	if days <= 0 {
		days = defaultReportDays
	}

	data := report.NewData(report.Params{
		ZoneID:     f.Zone,
		Pollutant:  p.Label,
		PeriodDays: days,
	}, h.overview(ctx, now), h.snapshot(ctx, f, now), now)

	start := time.Now()
	pdf, res, err := report.Build(data)
	if err != nil {
		return nil, models.ReportInfo{}, err
	}
	metrics.ReportLatency.Observe(time.Since(start).Seconds())
	metrics.ReportPages.Observe(float64(res.Pages))

	return pdf, models.ReportInfo{
		FileName: report.FileName(data.ZoneLabel, p.Label, now),
		Pages:    res.Pages,
		Size:     res.Size,
		Created:  now.UTC(),
	}, nil
}

func writePDF(w http.ResponseWriter, name string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ReportPDF обрабатывает GET /api/reports/pdf
func (h *Handler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	req := models.ReportRequest{Zone: q.Get("zone"), Pollutant: q.Get("pollutant"), Days: days}

	pdf, info, err := h.buildReport(r.Context(), req)
	if err != nil {
		slog.Error("report rendering failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	writePDF(w, info.FileName, pdf)
}

// CreateReport обрабатывает POST /api/reports: верстка и архив в Redis
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pdf, info, err := h.buildReport(r.Context(), req)
	if err != nil {
		slog.Error("report rendering failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	info.ID = uuid.NewString()

	err = h.cache.StoreReport(r.Context(), info, pdf)
	metrics.RedisOperations.WithLabelValues("store_report", metrics.Status(err)).Inc()
	if err != nil {
		slog.Error("failed to archive report", "id", info.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "report archive unavailable")
		return
	}
	if err := h.cache.IncrementCounter(r.Context(), "reports"); err != nil {
		slog.Warn("failed to count report", "error", err)
	}

	slog.Info("report archived", "id", info.ID, "file", info.FileName, "pages", info.Pages)
	writeJSON(w, http.StatusCreated, info)
}

// GetReport обрабатывает GET /api/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	info, pdf, err := h.cache.LoadReport(r.Context(), id)
	metrics.RedisOperations.WithLabelValues("load_report", metrics.Status(err)).Inc()
	switch {
	case errors.Is(err, cache.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
		return
	case err != nil:
		slog.Error("failed to load report", "id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "report archive unavailable")
		return
	}
	writePDF(w, info.FileName, pdf)
}
