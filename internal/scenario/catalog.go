package scenario

import "strings"

// Period окно времени, для которого строится сценарий
type Period string

const (
	Period1h  Period = "1h"
	Period6h  Period = "6h"
	Period24h Period = "24h"
	Period7d  Period = "7d"

	// DefaultPeriod используется для пустых и неизвестных значений
	DefaultPeriod = Period24h
)

// ParsePeriod возвращает период или DefaultPeriod для неизвестного кода
func ParsePeriod(s string) Period {
	switch p := Period(strings.TrimSpace(s)); p {
	case Period1h, Period6h, Period24h, Period7d:
		return p
	default:
		return DefaultPeriod
	}
}

// Zone зона наблюдения города
type Zone struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Population int     `json:"population"`
	Factor     float64 `json:"factor"`
}

const (
	ZoneAll       = "all"
	ZoneCentre    = "centre"
	ZoneIndustrie = "industrie"
	ZoneNord      = "nord"

	// DefaultZone используется для пустых и неизвестных значений
	DefaultZone = ZoneAll
)

// Zones каталог зон; "all" масштабируется как центр
var Zones = []Zone{
	{ID: ZoneAll, Label: "Toutes", Lat: 43.2965, Lon: 5.3698, Population: 52000, Factor: 1.0},
	{ID: ZoneCentre, Label: "Centre-ville", Lat: 43.2965, Lon: 5.3698, Population: 22000, Factor: 1.0},
	{ID: ZoneIndustrie, Label: "Zone Industrielle", Lat: 43.3008, Lon: 5.4017, Population: 15000, Factor: 1.18},
	{ID: ZoneNord, Label: "Résidentiel Nord", Lat: 43.3253, Lon: 5.3942, Population: 15000, Factor: 0.85},
}

// LookupZone ищет зону по идентификатору
func LookupZone(id string) (Zone, bool) {
	for _, z := range Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// ZoneLabel возвращает подпись зоны или "—" для неизвестной
func ZoneLabel(id string) string {
	if z, ok := LookupZone(id); ok {
		return z.Label
	}
	return "—"
}

// zoneFactor коэффициент масштабирования; неизвестная зона считается центром
func zoneFactor(id string) float64 {
	if z, ok := LookupZone(id); ok {
		return z.Factor
	}
	z, _ := LookupZone(ZoneCentre)
	return z.Factor
}

// Pollutant загрязнитель и его домен значений
type Pollutant struct {
	Code      string  `json:"code"`
	Label     string  `json:"label"`
	Title     string  `json:"title"`
	Unit      string  `json:"unit"`
	Base      float64 `json:"base"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
	Threshold float64 `json:"threshold,omitempty"` // 0 - порога нет
}

const (
	PM25 = "PM25"
	PM10 = "PM10"
	NO2  = "NO2"
	O3   = "O3"
	SO2  = "SO2"

	// DefaultPollutant используется для пустых и неизвестных значений
	DefaultPollutant = PM25

	UnitMicrograms = "µg/m³"
)

// Pollutants каталог загрязнителей
var Pollutants = []Pollutant{
	{Code: PM25, Label: "PM2.5", Title: "PM2.5 Moyen", Unit: UnitMicrograms, Base: 38, Min: 5, Max: 120, Threshold: 50},
	{Code: PM10, Label: "PM10", Title: "PM10 Moyen", Unit: UnitMicrograms, Base: 58, Min: 5, Max: 160, Threshold: 80},
	{Code: NO2, Label: "NO2", Title: "NO2 Moyen", Unit: UnitMicrograms, Base: 50, Min: 5, Max: 200, Threshold: 200},
	{Code: O3, Label: "O3", Title: "O3 Moyen", Unit: UnitMicrograms, Base: 42, Min: 5, Max: 180},
	{Code: SO2, Label: "SO2", Title: "SO2 Moyen", Unit: UnitMicrograms, Base: 30, Min: 5, Max: 120},
}

// LookupPollutant ищет загрязнитель по коду или подписи ("PM2.5" == "PM25")
func LookupPollutant(code string) (Pollutant, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range Pollutants {
		if p.Code == c || strings.ToUpper(p.Label) == c {
			return p, true
		}
	}
	return Pollutant{}, false
}

// pollutant возвращает загрязнитель или загрязнитель по умолчанию
func pollutant(code string) Pollutant {
	if p, ok := LookupPollutant(code); ok {
		return p
	}
	p, _ := LookupPollutant(DefaultPollutant)
	return p
}

// Band качественная полоса AQI
type Band struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

const (
	ToneOK     = "ok"
	ToneWarn   = "warn"
	ToneDanger = "danger"
)

// AQILabel упрощенная классификация индекса
func AQILabel(aqi int) Band {
	switch {
	case aqi <= 50:
		return Band{Label: "Bon", Tone: ToneOK}
	case aqi <= 100:
		return Band{Label: "Modéré", Tone: ToneWarn}
	case aqi <= 150:
		return Band{Label: "Mauvais", Tone: ToneDanger}
	default:
		return Band{Label: "Très mauvais", Tone: ToneDanger}
	}
}

// Advice рекомендации для населения по уровню AQI
type Advice struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Recommendation возвращает рекомендации для карты
func Recommendation(aqi int) Advice {
	if aqi <= 50 {
		return Advice{
			Title: "Conditions favorables",
			Items: []string{"Activités extérieures OK", "Aération possible", "Bonne dispersion des particules"},
		}
	}
	if aqi <= 100 {
		return Advice{
			Title: "Vigilance modérée",
			Items: []string{
				"Limiter l’effort intense si sensible",
				"Privilégier les zones moins exposées",
				"Surveiller l’évolution sur la journée",
			},
		}
	}
	return Advice{
		Title: "Alerte – à limiter",
		Items: []string{
			"Éviter les activités physiques intenses",
			"Personnes sensibles : restez à l’intérieur",
			"Prévoir des mesures de réduction trafic",
		},
	}
}
