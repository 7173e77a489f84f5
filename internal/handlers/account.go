package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"smartcity-air/internal/auth"
	"smartcity-air/internal/cache"
	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
)

// Login обрабатывает POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" && req.Persona == "" {
		writeError(w, http.StatusBadRequest, "email or persona is required")
		return
	}

	user, err := auth.Authenticate(req)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}

func (h *Handler) defaultSettings() models.Settings {
	s := models.DefaultSettings()
	s.Thresholds = h.thresholds
	return s
}

// GetSettings обрабатывает GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	s, err := h.cache.LoadSettings(r.Context(), user.Email)
	metrics.RedisOperations.WithLabelValues("load_settings", metrics.Status(err)).Inc()
	switch {
	case errors.Is(err, cache.ErrNotFound):
		s = h.defaultSettings()
	case err != nil:
		slog.Error("failed to load settings", "user", user.Email, "error", err)
		writeError(w, http.StatusServiceUnavailable, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings обрабатывает PUT /api/settings. Пороги профиля env
// применяются к анализатору.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	s := h.defaultSettings()
	if err := decodeJSON(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validate.Struct(s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.cache.SaveSettings(r.Context(), user.Email, s)
	metrics.RedisOperations.WithLabelValues("save_settings", metrics.Status(err)).Inc()
	if err != nil {
		slog.Error("failed to save settings", "user", user.Email, "error", err)
		writeError(w, http.StatusServiceUnavailable, "settings unavailable")
		return
	}
	if user.Persona == auth.PersonaEnv && h.analyzer != nil {
		h.analyzer.SetThresholds(s.Thresholds)
		slog.Info("alert thresholds updated", "user", user.Email, "thresholds", s.Thresholds)
	}
	writeJSON(w, http.StatusOK, s)
}
