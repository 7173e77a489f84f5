package analytics

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

// Типы аномалий
const (
	AnomalySpike     = "SPIKE"
	AnomalyDrop      = "DROP"
	AnomalyThreshold = "THRESHOLD"
)

// отслеживаемые загрязнители
var trackedPollutants = []string{scenario.PM25, scenario.PM10, scenario.NO2, scenario.O3}

// MetricWindow хранит скользящее окно значений одного ряда
type MetricWindow struct {
	values     []float64
	timestamps []time.Time
	mu         sync.Mutex
	maxSize    int
}

// Analyzer анализатор измерений с rolling average, z-score и порогами
type Analyzer struct {
	windows          map[string]*MetricWindow
	mu               sync.RWMutex
	windowSize       int
	anomalyThreshold float64
	thresholds       models.Thresholds
	readingsChan     chan models.Reading
	resultsChan      chan AnalysisResult
	stopChan         chan struct{}
	stopOnce         sync.Once
	wg               sync.WaitGroup
	dropped          int64
}

// AnalysisResult результат анализа одного загрязнителя измерения
type AnalysisResult struct {
	Zone         string
	Pollutant    string
	Timestamp    time.Time
	Value        float64
	RollingAvg   float64
	StandardDev  float64
	ZScore       float64
	IsAnomaly    bool
	AnomalyType  string
	OverLimit    bool
	Threshold    float64
	WindowFilled int
}

// NewAnalyzer создает новый анализатор
func NewAnalyzer(windowSize int, anomalyThreshold float64, thresholds models.Thresholds) *Analyzer {
	return &Analyzer{
		windows:          make(map[string]*MetricWindow),
		windowSize:       windowSize,
		anomalyThreshold: anomalyThreshold,
		thresholds:       thresholds,
		readingsChan:     make(chan models.Reading, 1000),
		resultsChan:      make(chan AnalysisResult, 1000),
		stopChan:         make(chan struct{}),
	}
}

// Start запускает обработчики в goroutines
func (a *Analyzer) Start(workers int) {
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.processReadings()
	}
}

// Stop останавливает анализатор и закрывает канал результатов
func (a *Analyzer) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.wg.Wait()
		close(a.resultsChan)
	})
}

// AddReading ставит измерение в очередь; false, если очередь полна
func (a *Analyzer) AddReading(r models.Reading) bool {
	select {
	case <-a.stopChan:
		return false
	default:
	}
	select {
	case a.readingsChan <- r:
		return true
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
		return false
	}
}

// GetResultsChan возвращает канал с результатами
func (a *Analyzer) GetResultsChan() <-chan AnalysisResult {
	return a.resultsChan
}

// SetThresholds меняет пороги оповещений
func (a *Analyzer) SetThresholds(t models.Thresholds) {
	a.mu.Lock()
	a.thresholds = t
	a.mu.Unlock()
}

// processReadings обрабатывает измерения из канала
func (a *Analyzer) processReadings() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopChan:
			return
		case r := <-a.readingsChan:
			for _, result := range a.Analyze(r) {
				select {
				case a.resultsChan <- result:
				case <-a.stopChan:
					return
				}
			}
		}
	}
}

func (a *Analyzer) threshold(code string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch code {
	case scenario.PM25:
		return a.thresholds.PM25
	case scenario.PM10:
		return a.thresholds.PM10
	case scenario.NO2:
		return a.thresholds.NO2
	}
	return 0
}

func (a *Analyzer) window(key string) *MetricWindow {
	a.mu.Lock()
	defer a.mu.Unlock()
	window, exists := a.windows[key]
	if !exists {
		window = &MetricWindow{
			values:     make([]float64, 0, a.windowSize),
			timestamps: make([]time.Time, 0, a.windowSize),
			maxSize:    a.windowSize,
		}
		a.windows[key] = window
	}
	return window
}

// Analyze синхронно анализирует измерение по всем отслеживаемым загрязнителям
func (a *Analyzer) Analyze(r models.Reading) []AnalysisResult {
	ts := r.RecordedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	results := make([]AnalysisResult, 0, len(trackedPollutants))
	for _, code := range trackedPollutants {
		v, _ := r.Value(code)
		results = append(results, a.analyzeValue(r.Zone, code, ts, v))
	}
	return results
}

func (a *Analyzer) analyzeValue(zone, code string, ts time.Time, value float64) AnalysisResult {
	window := a.window(zone + "|" + code)

	window.mu.Lock()
	defer window.mu.Unlock()

	window.values = append(window.values, value)
	window.timestamps = append(window.timestamps, ts)

	// Ограничиваем размер окна
	if len(window.values) > window.maxSize {
		window.values = window.values[1:]
		window.timestamps = window.timestamps[1:]
	}

	avg := calculateAverage(window.values)
	stdDev := calculateStdDev(window.values, avg)

	var zScore float64
	if stdDev > 0 {
		zScore = (value - avg) / stdDev
	}

	result := AnalysisResult{
		Zone:         zone,
		Pollutant:    code,
		Timestamp:    ts,
		Value:        value,
		RollingAvg:   avg,
		StandardDev:  stdDev,
		ZScore:       zScore,
		Threshold:    a.threshold(code),
		WindowFilled: len(window.values),
	}

	if math.Abs(zScore) > a.anomalyThreshold {
		result.IsAnomaly = true
		if zScore > 0 {
			result.AnomalyType = AnomalySpike
		} else {
			result.AnomalyType = AnomalyDrop
		}
	}
	if result.Threshold > 0 && value > result.Threshold {
		result.OverLimit = true
		result.IsAnomaly = true
		result.AnomalyType = AnomalyThreshold
	}
	return result
}

// Alert оповещение для результата с аномалией
func (r AnalysisResult) Alert() models.Alert {
	p, _ := scenario.LookupPollutant(r.Pollutant)
	zone, _ := scenario.LookupZone(r.Zone)
	label := p.Label
	if label == "" {
		label = r.Pollutant
	}

	a := models.Alert{
		ID:        uuid.NewString(),
		Zone:      scenario.ZoneLabel(r.Zone),
		Time:      r.Timestamp.Format("15:04:05"),
		People:    zone.Population,
		Pollutant: r.Pollutant,
		Value:     math.Round(r.Value*10) / 10,
		Unit:      scenario.UnitMicrograms,
		Threshold: r.Threshold,
	}
	if r.OverLimit {
		a.Title = fmt.Sprintf("Alerte %s – %s", label, a.Zone)
		a.Message = fmt.Sprintf("Niveau %s élevé : %g%s (seuil : %g%s).", label, a.Value, a.Unit, r.Threshold, a.Unit)
		a.Critical = true
		return a
	}
	a.Title = fmt.Sprintf("Variation inhabituelle %s – %s", label, a.Zone)
	a.Message = fmt.Sprintf("%s : %g%s, moyenne glissante %.1f%s (z = %.2f).", label, a.Value, a.Unit, r.RollingAvg, a.Unit, r.ZScore)
	return a
}

// calculateAverage вычисляет среднее значение
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev вычисляет стандартное отклонение
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// GetStats возвращает статистику анализатора
func (a *Analyzer) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"series_tracked": len(a.windows),
		"window_size":    a.windowSize,
		"threshold":      a.anomalyThreshold,
		"queue_size":     len(a.readingsChan),
		"dropped":        a.dropped,
		"limits":         a.thresholds,
	}
}

// SeriesCount число отслеживаемых рядов
func (a *Analyzer) SeriesCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.windows)
}

// QueueLen текущая длина очереди измерений
func (a *Analyzer) QueueLen() int {
	return len(a.readingsChan)
}
