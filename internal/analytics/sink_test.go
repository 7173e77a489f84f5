package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity-air/internal/models"
)

type fakeSink struct {
	mu     sync.Mutex
	zones  []string
	alerts []models.Alert
	err    error
}

func (f *fakeSink) StoreAlert(_ context.Context, zone string, _ time.Time, a models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zones = append(f.zones, zone)
	f.alerts = append(f.alerts, a)
	return f.err
}

func TestDrain_StoresOnlyAnomalies(t *testing.T) {
	at := time.Date(2026, 10, 19, 14, 32, 0, 0, time.UTC)
	results := make(chan AnalysisResult, 3)
	results <- AnalysisResult{Zone: "centre", Pollutant: "PM25", Timestamp: at, Value: 30}
	results <- AnalysisResult{Zone: "industrie", Pollutant: "PM10", Timestamp: at, Value: 82, Threshold: 80,
		OverLimit: true, IsAnomaly: true, AnomalyType: AnomalyThreshold}
	results <- AnalysisResult{Zone: "nord", Pollutant: "NO2", Timestamp: at, Value: 90, RollingAvg: 40,
		ZScore: 3.1, IsAnomaly: true, AnomalyType: AnomalySpike}
	close(results)

	sink := &fakeSink{}
	require.NoError(t, Drain(context.Background(), results, sink))

	require.Len(t, sink.alerts, 2)
	assert.Equal(t, []string{"industrie", "nord"}, sink.zones)
	assert.True(t, sink.alerts[0].Critical)
	assert.Equal(t, "Alerte PM10 – Zone Industrielle", sink.alerts[0].Title)
	assert.False(t, sink.alerts[1].Critical)
}

func TestDrain_SinkErrorDoesNotStop(t *testing.T) {
	results := make(chan AnalysisResult, 2)
	for i := 0; i < 2; i++ {
		results <- AnalysisResult{Zone: "centre", Pollutant: "PM25", Timestamp: time.Now(), Value: 60,
			Threshold: 50, OverLimit: true, IsAnomaly: true, AnomalyType: AnomalyThreshold}
	}
	close(results)

	sink := &fakeSink{err: errors.New("redis down")}
	require.NoError(t, Drain(context.Background(), results, sink))
	assert.Len(t, sink.alerts, 2)
}

func TestDrain_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan AnalysisResult)

	done := make(chan error, 1)
	go func() { done <- Drain(ctx, results, nil) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after cancel")
	}
}

func TestAnalyzer_PipelineToSink(t *testing.T) {
	a := NewAnalyzer(10, 2.0, limits)
	a.Start(2)

	sink := &fakeSink{}
	done := make(chan error, 1)
	go func() { done <- Drain(context.Background(), a.GetResultsChan(), sink) }()

	require.True(t, a.AddReading(reading("industrie", 20, 95, time.Now())))
	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.alerts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	a.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, 4, a.SeriesCount())
	assert.Zero(t, a.QueueLen())
}
