package analytics

import (
	"context"
	"log/slog"
	"time"

	"smartcity-air/internal/metrics"
	"smartcity-air/internal/models"
)

// AlertSink хранилище оповещений
type AlertSink interface {
	StoreAlert(ctx context.Context, zone string, at time.Time, alert models.Alert) error
}

// Drain читает результаты анализа, обновляет метрики и сохраняет оповещения.
// Возвращает nil, когда канал закрыт, или ошибку контекста.
func Drain(ctx context.Context, results <-chan AnalysisResult, sink AlertSink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			start := time.Now()
			handleResult(ctx, result, sink)
			metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
		}
	}
}

func handleResult(ctx context.Context, result AnalysisResult, sink AlertSink) {
	metrics.RollingAverage.WithLabelValues(result.Zone, result.Pollutant).Set(result.RollingAvg)
	metrics.CurrentZScore.WithLabelValues(result.Zone, result.Pollutant).Set(result.ZScore)

	if !result.IsAnomaly {
		return
	}
	metrics.AlertsRaised.WithLabelValues(result.AnomalyType, result.Zone, result.Pollutant).Inc()

	alert := result.Alert()
	slog.Warn("anomaly detected",
		"zone", result.Zone,
		"pollutant", result.Pollutant,
		"type", result.AnomalyType,
		"value", result.Value,
		"rolling_avg", result.RollingAvg,
		"z_score", result.ZScore,
	)

	if sink == nil {
		return
	}
	err := sink.StoreAlert(ctx, result.Zone, result.Timestamp, alert)
	metrics.RedisOperations.WithLabelValues("store_alert", metrics.Status(err)).Inc()
	if err != nil {
		slog.Error("failed to store alert", "id", alert.ID, "error", err)
	}
}
