package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ScenarioComputations вычисленные снимки сценария
	ScenarioComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_computations_total",
			Help: "Total number of scenario snapshots computed",
		},
		[]string{"period"},
	)

	// ScenarioLatency задержка вычисления снимка
	ScenarioLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scenario_compute_seconds",
			Help:    "Scenario snapshot computation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	// SnapshotCache попадания и промахи кэша снимков
	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_cache_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	// ReportPages страницы сформированных отчетов
	ReportPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_pages",
			Help:    "Number of pages per rendered report",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
	)

	// ReportLatency задержка верстки отчета
	ReportLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_render_seconds",
			Help:    "Report rendering latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// ReadingsReceived принятые измерения
	ReadingsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_received_total",
			Help: "Total number of sensor readings received",
		},
		[]string{"zone"},
	)

	// AlertsRaised оповещения по типу
	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_raised_total",
			Help: "Total number of alerts raised",
		},
		[]string{"type", "zone", "pollutant"},
	)

	// AnalysisLatency задержка анализа
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Analysis processing latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// CurrentZScore текущий z-score (gauge)
	CurrentZScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "current_zscore",
			Help: "Current z-score per zone and pollutant",
		},
		[]string{"zone", "pollutant"},
	)

	// RollingAverage текущее скользящее среднее
	RollingAverage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rolling_average",
			Help: "Current rolling average per zone and pollutant",
		},
		[]string{"zone", "pollutant"},
	)

	// ActiveSeries отслеживаемые ряды зона/загрязнитель
	ActiveSeries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_series",
			Help: "Number of zone/pollutant series tracked by the analyzer",
		},
	)

	// QueueSize размер очереди обработки
	QueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "processing_queue_size",
			Help: "Current size of the processing queue",
		},
	)

	// RedisOperations операции с Redis
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// HistoryOperations операции с историей измерений
	HistoryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_operations_total",
			Help: "Total number of history store operations",
		},
		[]string{"operation", "status"},
	)

	// UpstreamFetches запросы клиента к API
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetches_total",
			Help: "Client fetches by outcome",
		},
		[]string{"outcome"},
	)

	// DemoMode 1, если клиент показывает локальные данные
	DemoMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "client_demo_mode",
			Help: "1 when the client is serving locally generated data",
		},
	)

	// LoginAttempts попытки входа
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

// Status результат операции для метки status
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
