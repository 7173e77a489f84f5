package scenario

import (
	"math"
	"time"

	"smartcity-air/internal/models"
)

// SimulatedZones зоны с датчиками
var SimulatedZones = []string{ZoneCentre, ZoneIndustrie, ZoneNord}

// SimulatedReading детерминированное измерение датчика зоны на шаге tick
func SimulatedReading(zone string, tick int, at time.Time) models.Reading {
	zf := zoneFactor(zone)
	t := float64(tick)
	wave := func(base, a, pa, b, pb, lo, hi float64) float64 {
		return clamp(roundHalfUp((base+a*math.Sin(t/pa)+b*math.Cos(t/pb))*zf), lo, hi)
	}

	pm25 := wave(30, 12, 18, 4, 9, 5, 120)
	return models.Reading{
		Zone:        zone,
		RecordedAt:  at.UTC(),
		PM25:        pm25,
		PM10:        wave(55, 18, 22, 5, 11, 5, 160),
		NO2:         wave(48, 22, 20, 6, 13, 5, 240),
		O3:          wave(40, 15, 26, 4, 15, 5, 200),
		AQI:         int(clamp(roundHalfUp(pm25*1.7), 10, 180)),
		Temperature: clamp(roundHalfUp(14+10*math.Sin(t/30)), -5, 45),
		Wind:        clamp(roundHalfUp(6+8*math.Cos(t/25)), 0, 60),
		Humidity:    clamp(roundHalfUp(50+20*math.Sin(t/28)), 10, 95),
		Source:      "SIMULATOR",
	}
}
