package scenario

import (
	"math"
	"time"
)

// ForecastPoint почасовая точка прогноза PM2.5
type ForecastPoint struct {
	H    string `json:"h"`
	PM25 int    `json:"pm25"`
}

// Forecast прогноз для страницы предсказаний
type Forecast struct {
	Zone       string          `json:"zone"`
	Hours      int             `json:"hours"`
	Points     []ForecastPoint `json:"series"`
	Confidence int             `json:"confidence"`
	AQI        int             `json:"aqi"`
	Band       Band            `json:"band"`
}

// ForecastHorizons допустимые горизонты прогноза, ч
var ForecastHorizons = []int{6, 12, 24, 48}

const defaultHorizon = 24

func forecastBase(zone string) int {
	switch zone {
	case ZoneIndustrie:
		return 44
	case ZoneCentre:
		return 36
	default:
		return 28
	}
}

func forecastConfidence(zone string) int {
	switch zone {
	case ZoneIndustrie:
		return 73
	case ZoneCentre:
		return 78
	default:
		return 75
	}
}

// PredictPM25 синтетический прогноз на hours+1 точек начиная с from.
// Неизвестный горизонт заменяется на 24.
func PredictPM25(zone string, hours int, from time.Time) Forecast {
	valid := false
	for _, h := range ForecastHorizons {
		if h == hours {
			valid = true
			break
		}
	}
	if !valid {
		hours = defaultHorizon
	}
	if _, ok := LookupZone(zone); !ok {
		zone = ZoneCentre
	}

	base := forecastBase(zone)
	points := make([]ForecastPoint, 0, hours+1)
	for i := 0; i <= hours; i++ {
		bump := 0.0
		if i%4 == 0 {
			bump = 2
		}
		v := base + int(roundHalfUp(6*math.Sin(float64(i)/3)+bump))
		if v < 8 {
			v = 8
		}
		points = append(points, ForecastPoint{
			H:    from.Add(time.Duration(i) * time.Hour).Format("15:04"),
			PM25: v,
		})
	}

	aqi := points[len(points)-1].PM25 * 2
	return Forecast{
		Zone:       zone,
		Hours:      hours,
		Points:     points,
		Confidence: forecastConfidence(zone),
		AQI:        aqi,
		Band:       AQILabel(aqi),
	}
}

// SparkSeries значения ряда для мини-графика отчета
func SparkSeries(s Snapshot) []float64 {
	out := make([]float64, len(s.Series))
	for i, p := range s.Series {
		out[i] = float64(p.Value)
	}
	return out
}
