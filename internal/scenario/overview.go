package scenario

import (
	"fmt"
	"time"

	"smartcity-air/internal/models"
)

// SensorCount число активных датчиков
type SensorCount struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

// OverviewKPIs показатели "сейчас" для шапки дашборда и отчета
type OverviewKPIs struct {
	AQI         int         `json:"aqi"`
	Temperature int         `json:"temperature"`
	Wind        int         `json:"wind"`
	Humidity    int         `json:"humidity"`
	Sensors     SensorCount `json:"sensors"`
}

// IoTStatus источник данных снимка
type IoTStatus struct {
	LastUpdate string `json:"last_update,omitempty"`
	Source     string `json:"source"`
}

// Overview ответ /api/snapshot
type Overview struct {
	UpdatedAt string         `json:"updatedAt"`
	KPIs      OverviewKPIs   `json:"kpis"`
	Alerts    []models.Alert `json:"alerts"`
	IoT       IoTStatus      `json:"iot"`
}

// SourceDemo источник для сгенерированных данных
const SourceDemo = "DEMO"

// ComputeOverview снимок демо-режима, меняющийся раз в минуту
func ComputeOverview(bucket time.Time) Overview {
	r := NewGenerator(HashSeed("snapshot|" + MinuteKey(bucket)))
	kpis := OverviewKPIs{
		AQI:         int(roundHalfUp(65 + r.Next()*35)),
		Temperature: int(roundHalfUp(14 + r.Next()*14)),
		Wind:        int(roundHalfUp(5 + r.Next()*18)),
		Humidity:    int(roundHalfUp(45 + r.Next()*35)),
		Sensors:     SensorCount{Active: 3, Total: 3},
	}
	clock := bucket.Format("15:04:05")
	return Overview{
		UpdatedAt: clock,
		KPIs:      kpis,
		Alerts:    DemoAlerts(clock),
		IoT:       IoTStatus{Source: SourceDemo},
	}
}

// DemoAlerts три фиксированных оповещения демо-режима
func DemoAlerts(clock string) []models.Alert {
	industrie := ZoneLabel(ZoneIndustrie)
	return []models.Alert{
		{
			ID:        "a1",
			Title:     "Alerte PM10 – " + industrie,
			Message:   "Niveau PM10 élevé : 82µg/m³ (seuil : 80µg/m³).",
			Zone:      industrie,
			Time:      clock,
			People:    15000,
			Pollutant: PM10,
			Value:     82,
			Unit:      UnitMicrograms,
			Threshold: 80,
			Critical:  true,
		},
		{
			ID:        "a2",
			Title:     "Alerte PM2.5 – " + industrie,
			Message:   "Niveau PM2.5 élevé : 52µg/m³ (seuil : 50µg/m³).",
			Zone:      industrie,
			Time:      clock,
			People:    15000,
			Pollutant: PM25,
			Value:     52,
			Unit:      UnitMicrograms,
			Threshold: 50,
			Critical:  true,
		},
		{
			ID:        "a3",
			Title:     "Prédiction : Pic de pollution probable",
			Message:   "Conditions météo défavorables. Pic attendu dans les 6 prochaines heures.",
			Zone:      ZoneLabel(ZoneCentre),
			Time:      clock,
			People:    22000,
			Pollutant: PM25,
			Value:     48,
			Unit:      UnitMicrograms,
			Threshold: 50,
			Read:      true,
		},
	}
}

// OverviewFromReading снимок по последнему реальному измерению
func OverviewFromReading(r models.Reading, alerts []models.Alert, now time.Time) Overview {
	source := r.Source
	if source == "" {
		source = "IOT"
	}
	if len(alerts) == 0 {
		alerts = DemoAlerts(now.Format("15:04:05"))
	}
	aqi := r.AQI
	if aqi == 0 {
		aqi = int(roundHalfUp(clamp(r.PM25*1.6, 10, 180)))
	}
	return Overview{
		UpdatedAt: now.Format("15:04:05"),
		KPIs: OverviewKPIs{
			AQI:         aqi,
			Temperature: int(roundHalfUp(r.Temperature)),
			Wind:        int(roundHalfUp(r.Wind)),
			Humidity:    int(roundHalfUp(r.Humidity)),
			Sensors:     SensorCount{Active: 3, Total: 3},
		},
		Alerts: alerts,
		IoT: IoTStatus{
			LastUpdate: r.RecordedAt.UTC().Format(time.RFC3339),
			Source:     source,
		},
	}
}

// ZoneStatus зона на карте с текущим AQI
type ZoneStatus struct {
	Zone
	AQI            int    `json:"aqi"`
	Band           Band   `json:"band"`
	Recommendation Advice `json:"recommendation"`
}

// ZoneStatuses AQI зон из сравнения по зонам текущей минуты
func ZoneStatuses(bucket time.Time) []ZoneStatus {
	snap := Compute(Filters{}, bucket)
	byLabel := make(map[string]int, len(snap.BarZones))
	total := 0
	for _, b := range snap.BarZones {
		byLabel[b.Name] = b.AQI
		total += b.AQI
	}
	out := make([]ZoneStatus, 0, len(Zones))
	for _, z := range Zones {
		aqi, ok := byLabel[z.Label]
		if !ok && len(snap.BarZones) > 0 {
			aqi = int(roundHalfUp(float64(total) / float64(len(snap.BarZones))))
		}
		out = append(out, ZoneStatus{Zone: z, AQI: aqi, Band: AQILabel(aqi), Recommendation: Recommendation(aqi)})
	}
	return out
}

// ThresholdFor порог загрязнителя или 0, если порога нет
func ThresholdFor(code string) float64 {
	if p, ok := LookupPollutant(code); ok {
		return p.Threshold
	}
	return 0
}

// AlertLine строка оповещения для отчета
func AlertLine(a models.Alert) string {
	return fmt.Sprintf("• %s — %s — %g%s (seuil %g%s) — %s", a.Pollutant, a.Zone, a.Value, a.Unit, a.Threshold, a.Unit, a.Time)
}
