package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

var at = time.Date(2026, 10, 19, 14, 32, 0, 0, time.UTC)

func testData(alerts int) Data {
	ov := scenario.ComputeOverview(at)
	snap := scenario.Compute(scenario.Filters{Period: "24h", Zone: "centre", Pollutant: "PM25"}, at)
	d := NewData(Params{ZoneID: "centre", Pollutant: "PM2.5", PeriodDays: 7}, ov, snap, at)

	d.Alerts = nil
	for i := 0; i < alerts; i++ {
		d.Alerts = append(d.Alerts, models.Alert{
			ID:        fmt.Sprintf("a%d", i),
			Message:   "Niveau PM10 élevé : 82µg/m³ (seuil : 80µg/m³).",
			Zone:      "Zone Industrielle",
			Time:      "14:32:00",
			Pollutant: "PM10",
			Value:     82,
			Unit:      "µg/m³",
			Threshold: 80,
			Critical:  i%2 == 0,
		})
	}
	return d
}

func TestNewData(t *testing.T) {
	d := testData(0)
	assert.Equal(t, "Centre-ville", d.ZoneLabel)
	assert.Equal(t, 50.0, d.Threshold)
	assert.Len(t, d.Spark, 48)
	assert.Equal(t, 3, d.KPIs.Sensors.Total)

	d = NewData(Params{ZoneID: "nord", Pollutant: "O3"}, scenario.Overview{}, scenario.Snapshot{}, at)
	assert.Equal(t, 7, d.PeriodDays)
	assert.Zero(t, d.Threshold)
}

func TestRender_SinglePage(t *testing.T) {
	for _, n := range []int{0, 1, 6} {
		var buf bytes.Buffer
		res, err := Render(&buf, testData(n))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pages, "alerts=%d", n)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		assert.Equal(t, buf.Len(), res.Size)
	}
}

func TestRender_PaginatesAlerts(t *testing.T) {
	_, res, err := Build(testData(7))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)

	_, res, err = Build(testData(40))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Pages, 3)
}

func TestRender_DemoOverviewAlerts(t *testing.T) {
	ov := scenario.ComputeOverview(at)
	snap := scenario.Compute(scenario.Filters{Zone: "industrie", Pollutant: "NO2"}, at)
	_, res, err := Build(NewData(Params{ZoneID: "industrie", Pollutant: "NO2", PeriodDays: 30}, ov, snap, at))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}

func TestRender_DegenerateSpark(t *testing.T) {
	d := testData(1)
	d.Spark = []float64{42}
	_, res, err := Build(d)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)

	d.Spark = nil
	_, _, err = Build(d)
	require.NoError(t, err)
}

func TestRender_SamePageCountForSameInput(t *testing.T) {
	_, a, err := Build(testData(9))
	require.NoError(t, err)
	_, b, err := Build(testData(9))
	require.NoError(t, err)
	assert.Equal(t, a.Pages, b.Pages)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "rapport_centre-ville_pm25_20261019_1432.pdf", FileName("Centre-ville", "PM2.5", at))
	assert.Equal(t, "rapport_zone-industrielle_no2_20261019_1432.pdf", FileName("Zone Industrielle", "NO2", at))
	assert.Equal(t, "rapport_rsidentiel-nord_pm10_20261019_1432.pdf", FileName("Résidentiel Nord", "PM10", at))
}

func TestSafeFilePart(t *testing.T) {
	assert.Equal(t, "a-b_c", SafeFilePart("A  B_c"))
	assert.Equal(t, "", SafeFilePart("—"))
}

func TestFrenchDate(t *testing.T) {
	assert.Equal(t, "19 octobre 2026 à 14:32", FrenchDate(at))
	assert.Equal(t, "1 août 2026 à 09:05", FrenchDate(time.Date(2026, 8, 1, 9, 5, 0, 0, time.UTC)))
}
