// Package scenario детерминированный генератор демонстрационных данных
// качества воздуха. Результат является чистой функцией фильтров и минуты.
package scenario

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Filters фильтры дашборда
type Filters struct {
	Period    string `json:"period"`
	Zone      string `json:"zone"`
	Pollutant string `json:"pollutant"`
}

// Normalize подставляет значения по умолчанию вместо пустых и неизвестных
func (f Filters) Normalize() Filters {
	out := Filters{
		Period:    string(ParsePeriod(f.Period)),
		Zone:      DefaultZone,
		Pollutant: DefaultPollutant,
	}
	if z, ok := LookupZone(strings.TrimSpace(f.Zone)); ok {
		out.Zone = z.ID
	}
	if p, ok := LookupPollutant(f.Pollutant); ok {
		out.Pollutant = p.Code
	}
	return out
}

// SeedKey ключ вида period|zone|pollutant|YYYY-MM-DDTHH:MM
func (f Filters) SeedKey(bucket time.Time) string {
	n := f.Normalize()
	return fmt.Sprintf("%s|%s|%s|%s", n.Period, n.Zone, n.Pollutant, MinuteKey(bucket))
}

// Point точка временного ряда
type Point struct {
	T     string `json:"t"`
	Value int    `json:"value"`
}

// MultiPoint точка с несколькими загрязнителями: {"t": ..., "PM25": ..., ...}
type MultiPoint struct {
	T      string
	Values map[string]int
}

// MarshalJSON разворачивает Values на верхний уровень объекта
func (m MultiPoint) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Values)+1)
	for k, v := range m.Values {
		obj[k] = v
	}
	obj["t"] = m.T
	return json.Marshal(obj)
}

// UnmarshalJSON обратная операция к MarshalJSON
func (m *MultiPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Values = make(map[string]int, len(raw))
	for k, v := range raw {
		if k == "t" {
			if err := json.Unmarshal(v, &m.T); err != nil {
				return fmt.Errorf("multi point t: %w", err)
			}
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("multi point %s: %w", k, err)
		}
		m.Values[k] = int(n)
	}
	return nil
}

// BarZone сравнение AQI по зонам
type BarZone struct {
	Name string `json:"name"`
	AQI  int    `json:"aqi"`
}

// Slice доля круговой диаграммы в процентах
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// KPI карточка показателя
type KPI struct {
	Title string `json:"title"`
	Value int    `json:"value"`
	Unit  string `json:"unit"`
	Delta string `json:"delta"`
	Tone  string `json:"tone,omitempty"`
}

// Snapshot полный набор данных дашборда для одних фильтров и одной минуты
type Snapshot struct {
	Period    string         `json:"period"`
	Zone      string         `json:"zone"`
	Pollutant string         `json:"pollutant"`
	Series    []Point        `json:"series"`
	Multi     []MultiPoint   `json:"multi"`
	BarZones  []BarZone      `json:"barZones"`
	Pie       []Slice        `json:"pie"`
	KPIs      map[string]KPI `json:"kpis"`
	UpdatedAt string         `json:"updatedAt"`
}

// Engine генератор с настраиваемыми константами
type Engine struct {
	tuning Tuning
}

// NewEngine создает генератор с заданными константами
func NewEngine(t Tuning) *Engine {
	return &Engine{tuning: t}
}

var defaultEngine = NewEngine(DefaultTuning())

// Compute сценарий с константами по умолчанию
func Compute(f Filters, bucket time.Time) Snapshot {
	return defaultEngine.Compute(f, bucket)
}

// Compute строит снимок. Не читает часы и не имеет общего изменяемого
// состояния: одинаковые фильтры и минута дают одинаковый результат.
func (e *Engine) Compute(f Filters, bucket time.Time) Snapshot {
	t := e.tuning
	f = f.Normalize()
	r := NewGenerator(HashSeed(f.SeedKey(bucket)))
	noise := func(width float64) float64 {
		return (r.Next() - 0.5) * width * t.NoiseScale
	}

	axis := BuildTimeAxis(Period(f.Period), bucket)
	factor := zoneFactor(f.Zone)
	pol := pollutant(f.Pollutant)
	base := pol.Base * factor

	series := make([]Point, len(axis))
	for idx, label := range axis {
		i := float64(idx)
		wave := math.Sin(i/t.WavePeriod)*t.WaveAmp + math.Cos(i/t.SwellPeriod)*t.SwellAmp
		v := clamp(roundHalfUp(base+wave+noise(t.SeriesNoise)), float64(pol.Min), float64(pol.Max))
		series[idx] = Point{T: label, Value: int(v)}
	}

	multi := make([]MultiPoint, len(axis))
	for idx, label := range axis {
		i := float64(idx)
		values := make(map[string]int, len(t.MultiSpecs))
		for _, spec := range t.MultiSpecs {
			b := pollutant(spec.Code).Base * factor
			wave := math.Sin(i/(2.3+spec.Amp))*(5+spec.Amp) + math.Cos(i/(6.5-spec.Amp/5))*2
			v := clamp(roundHalfUp(b+wave+noise(3+spec.Amp/3)), float64(t.MultiMin), float64(t.MultiMax))
			values[spec.Code] = int(v)
		}
		multi[idx] = MultiPoint{T: label, Values: values}
	}

	bars := make([]BarZone, len(t.BarZones))
	for i, spec := range t.BarZones {
		bars[i] = BarZone{Name: spec.Name, AQI: int(roundHalfUp(spec.Base + r.Next()*spec.Spread))}
	}

	pie := normalizePie(t.PieWeights, r)

	last := int(roundHalfUp(base))
	if len(series) > 0 {
		last = series[len(series)-1].Value
	}
	prev := int(clamp(float64(last)+roundHalfUp((r.Next()-0.5)*t.DeltaSpread), float64(t.PrevMin), float64(t.PrevMax)))
	delta := FormatDelta(deltaPercent(last, prev))

	aqi := int(roundHalfUp(clamp(float64(last)*t.AQIFactor, t.AQIMin, t.AQIMax)))
	aqiPrev := int(roundHalfUp(clamp(float64(prev)*t.AQIFactor, t.AQIMin, t.AQIMax)))

	kpis := make(map[string]KPI, len(t.KPIPollutant)+1)
	for _, code := range t.KPIPollutant {
		p := pollutant(code)
		v := clamp(p.Base*factor+noise(t.KPINoise[code]), float64(p.Min), float64(p.Max))
		kpis[code] = KPI{Title: p.Title, Value: int(roundHalfUp(v)), Unit: p.Unit, Delta: delta}
	}
	kpis["AQI"] = KPI{
		Title: "AQI Global",
		Value: aqi,
		Delta: FormatDelta(deltaPercent(aqi, aqiPrev)),
		Tone:  AQILabel(aqi).Tone,
	}

	return Snapshot{
		Period:    f.Period,
		Zone:      f.Zone,
		Pollutant: f.Pollutant,
		Series:    series,
		Multi:     multi,
		BarZones:  bars,
		Pie:       pie,
		KPIs:      kpis,
		UpdatedAt: bucket.UTC().Truncate(time.Minute).Format(time.RFC3339),
	}
}

// normalizePie целые проценты с суммой ровно 100; остаток округления
// прибавляется к первой доле
func normalizePie(weights []RangeSpec, r *Generator) []Slice {
	if len(weights) == 0 {
		return nil
	}
	w := make([]float64, len(weights))
	sum := 0.0
	for i, spec := range weights {
		w[i] = spec.Base + r.Next()*spec.Spread
		sum += w[i]
	}
	pie := make([]Slice, len(weights))
	total := 0
	for i, spec := range weights {
		v := 0
		if sum > 0 {
			v = int(roundHalfUp(w[i] / sum * 100))
		}
		pie[i] = Slice{Name: spec.Name, Value: v}
		total += v
	}
	pie[0].Value += 100 - total
	return pie
}

// deltaPercent изменение в процентах с одним знаком после запятой
func deltaPercent(last, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return roundHalfUp(float64(last-prev)/float64(prev)*1000) / 10
}

// FormatDelta "+2.5% vs précédent"; знак "+" при неотрицательном значении
func FormatDelta(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
		pct = math.Abs(pct)
	}
	return sign + strconv.FormatFloat(pct, 'f', -1, 64) + "% vs précédent"
}
