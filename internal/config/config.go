// Package config загрузка конфигурации сервиса и CLI из окружения.
//
// Порядок: .env (если есть) -> envconfig -> validator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"smartcity-air/internal/models"
)

// ConfigErrorType категория ошибки загрузки
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "PARSING_FAILED"
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError ошибка загрузки конфигурации
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config конфигурация сервера
type Config struct {
	ServerPort    string `envconfig:"SERVER_PORT" default:"8080" validate:"required,numeric"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379" validate:"required,hostname_port"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0,lte=15"`

	SnapshotTTL time.Duration `envconfig:"SNAPSHOT_TTL" default:"1m" validate:"gt=0"`
	ReportTTL   time.Duration `envconfig:"REPORT_TTL" default:"24h" validate:"gt=0"`

	DatabasePath     string        `envconfig:"DATABASE_PATH" default:"/tmp/smartcity.db" validate:"required"`
	HistoryRetention time.Duration `envconfig:"HISTORY_RETENTION" default:"168h" validate:"gt=0"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"smartcity-demo-secret" validate:"min=8"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"12h" validate:"gt=0"`
	LoginRate float64       `envconfig:"LOGIN_RATE" default:"5" validate:"gt=0"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`

	WindowSize       int     `envconfig:"WINDOW_SIZE" default:"50" validate:"gte=2"`
	AnomalyThreshold float64 `envconfig:"ANOMALY_THRESHOLD" default:"2.0" validate:"gt=0"`
	AnalyzerWorkers  int     `envconfig:"ANALYZER_WORKERS" default:"4" validate:"gte=1,lte=64"`

	NoiseScale float64 `envconfig:"SCENARIO_NOISE_SCALE" default:"1.0" validate:"gte=0"`

	ThresholdPM25 float64 `envconfig:"THRESHOLD_PM25" default:"50" validate:"gt=0"`
	ThresholdPM10 float64 `envconfig:"THRESHOLD_PM10" default:"80" validate:"gt=0"`
	ThresholdNO2  float64 `envconfig:"THRESHOLD_NO2" default:"200" validate:"gt=0"`
}

// Thresholds пороги оповещений сервера
func (c *Config) Thresholds() models.Thresholds {
	return models.Thresholds{PM25: c.ThresholdPM25, PM10: c.ThresholdPM10, NO2: c.ThresholdNO2}
}

// Load читает конфигурацию сервера
func Load() (*Config, error) {
	var cfg Config
	if err := process(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClientConfig конфигурация aqctl
type ClientConfig struct {
	APIBase     string        `envconfig:"AQ_API_BASE" default:"http://localhost:8080" validate:"required,url"`
	SessionFile string        `envconfig:"AQ_SESSION_FILE" default:".aqctl-session.json" validate:"required"`
	Timeout     time.Duration `envconfig:"AQ_TIMEOUT" default:"5s" validate:"gt=0"`
	Interval    time.Duration `envconfig:"AQ_REFRESH_INTERVAL" default:"60s" validate:"gt=0"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"warn" validate:"oneof=debug info warn error"`
}

// LoadClient читает конфигурацию CLI, базовый адрес без завершающих "/"
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := process(&cfg); err != nil {
		return nil, err
	}
	cfg.APIBase = NormalizeBase(cfg.APIBase)
	return &cfg, nil
}

// NormalizeBase убирает пробелы и завершающие слэши
func NormalizeBase(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

func process(cfg any) error {
	// .env необязателен
	_ = godotenv.Load()

	if err := envconfig.Process("", cfg); err != nil {
		return &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return nil
}
