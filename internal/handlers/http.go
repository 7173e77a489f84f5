package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"smartcity-air/internal/analytics"
	"smartcity-air/internal/auth"
	"smartcity-air/internal/cache"
	"smartcity-air/internal/history"
	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

var validate = validator.New()

// Deps зависимости обработчиков
type Deps struct {
	Cache        *cache.RedisCache
	History      *history.Store
	Analyzer     *analytics.Analyzer
	Issuer       *auth.Issuer
	Engine       *scenario.Engine
	Thresholds   models.Thresholds
	LoginLimiter *rate.Limiter
	CORSOrigins  []string
	Now          func() time.Time
}

// Handler обработчик HTTP запросов
type Handler struct {
	cache        *cache.RedisCache
	history      *history.Store
	analyzer     *analytics.Analyzer
	issuer       *auth.Issuer
	engine       *scenario.Engine
	thresholds   models.Thresholds
	loginLimiter *rate.Limiter
	origins      []string
	now          func() time.Time
}

// NewHandler создает новый обработчик
func NewHandler(d Deps) *Handler {
	h := &Handler{
		cache:        d.Cache,
		history:      d.History,
		analyzer:     d.Analyzer,
		issuer:       d.Issuer,
		engine:       d.Engine,
		thresholds:   d.Thresholds,
		loginLimiter: d.LoginLimiter,
		origins:      d.CORSOrigins,
		now:          d.Now,
	}
	if h.engine == nil {
		h.engine = scenario.NewEngine(scenario.DefaultTuning())
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.loginLimiter == nil {
		h.loginLimiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	if len(h.origins) == 0 {
		h.origins = []string{"*"}
	}
	return h
}

// Routes маршрутизатор сервиса
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         3600,
	}))
	r.Use(instrument)

	r.Get("/health", h.HealthCheck)
	r.Get("/ping", h.Ping)
	r.Get("/stats", h.GetStats)
	r.Handle("/prometheus", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/dashboard/overview", h.Dashboard)
		r.Get("/snapshot", h.Snapshot)
		r.Get("/zones", h.Zones)
		r.Get("/predictions", h.Predictions)

		r.Get("/reports/pdf", h.ReportPDF)
		r.Post("/reports", h.CreateReport)
		r.Get("/reports/{id}", h.GetReport)

		r.Post("/iot/ingest", h.Ingest)

		r.With(auth.RateLimit(h.loginLimiter)).Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.issuer.Require)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.PutSettings)
		})
	})
	return r
}

// instrument счетчик и длительность запросов по шаблону маршрута
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
