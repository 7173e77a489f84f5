package scenario

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBucket = time.Date(2026, 10, 19, 14, 32, 10, 0, time.UTC)

func TestHashSeed_KnownVectors(t *testing.T) {
	assert.Equal(t, uint32(2166136261), HashSeed(""))
	assert.Equal(t, uint32(0xe40c292c), HashSeed("a"))
	assert.Equal(t, HashSeed("24h|centre|PM25|2026-10-19T14:32"), HashSeed("24h|centre|PM25|2026-10-19T14:32"))
	assert.NotEqual(t, HashSeed("24h|centre|PM25|2026-10-19T14:32"), HashSeed("24h|centre|PM25|2026-10-19T14:33"))
}

func TestGenerator_KnownSequence(t *testing.T) {
	g := NewGenerator(0)
	assert.Equal(t, 0.26642920868471265, g.Next())
	assert.Equal(t, 0.0003297457005828619, g.Next())
	assert.Equal(t, 0.2232720274478197, g.Next())

	g = NewGenerator(HashSeed("a"))
	assert.Equal(t, 0.621685681398958, g.Next())
	assert.Equal(t, 0.30822347407229245, g.Next())
}

func TestGenerator_RestartOnlyByNewInstance(t *testing.T) {
	a := NewGenerator(42)
	first := []float64{a.Next(), a.Next(), a.Next()}

	b := NewGenerator(42)
	assert.Equal(t, first, []float64{b.Next(), b.Next(), b.Next()})

	for i := 0; i < 10000; i++ {
		v := a.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestBuildTimeAxis_Lengths(t *testing.T) {
	cases := map[Period]int{
		Period1h:  12,
		Period6h:  24,
		Period24h: 48,
		Period7d:  7,
		"bogus":   48,
	}
	for p, want := range cases {
		axis := BuildTimeAxis(p, testBucket)
		assert.Len(t, axis, want, "period %s", p)
		assert.Equal(t, want, AxisLength(p))
	}
}

func TestBuildTimeAxis_Labels(t *testing.T) {
	hour := BuildTimeAxis(Period1h, testBucket)
	assert.Equal(t, "13:37", hour[0])
	assert.Equal(t, "14:32", hour[len(hour)-1])

	day := BuildTimeAxis(Period24h, testBucket)
	assert.Equal(t, "15:02", day[0])

	week := BuildTimeAxis(Period7d, testBucket)
	assert.Equal(t, "mar.", week[0])
	assert.Equal(t, "lun.", week[6])
}

func TestCompute_IdempotentWithinMinute(t *testing.T) {
	f := Filters{Period: "24h", Zone: "centre", Pollutant: "PM25"}
	a := Compute(f, testBucket)
	b := Compute(f, testBucket.Add(40*time.Second))

	assert.Equal(t, a.Series, b.Series)
	assert.Equal(t, a, b)
}

func TestCompute_ChangesWithMinuteAndFilters(t *testing.T) {
	f := Filters{Period: "24h", Zone: "centre", Pollutant: "PM25"}
	a := Compute(f, testBucket)

	assert.NotEqual(t, a.Series, Compute(f, testBucket.Add(time.Minute)).Series)
	assert.NotEqual(t, a.Pie, Compute(Filters{Period: "24h", Zone: "nord", Pollutant: "PM25"}, testBucket).Pie)
}

func TestCompute_BoundsAndPieForAllCombinations(t *testing.T) {
	for _, period := range []Period{Period1h, Period6h, Period24h, Period7d} {
		for _, z := range Zones {
			for _, p := range Pollutants {
				for m := 0; m < 20; m++ {
					bucket := testBucket.Add(time.Duration(m) * time.Minute)
					s := Compute(Filters{Period: string(period), Zone: z.ID, Pollutant: p.Code}, bucket)

					require.Len(t, s.Series, AxisLength(period))
					require.Len(t, s.Multi, AxisLength(period))
					for _, pt := range s.Series {
						require.GreaterOrEqual(t, pt.Value, p.Min)
						require.LessOrEqual(t, pt.Value, p.Max)
					}
					for _, mp := range s.Multi {
						require.Len(t, mp.Values, 4)
						for _, v := range mp.Values {
							require.GreaterOrEqual(t, v, 4)
							require.LessOrEqual(t, v, 140)
						}
					}

					sum := 0
					for _, sl := range s.Pie {
						sum += sl.Value
					}
					require.Equal(t, 100, sum)

					aqi := s.KPIs["AQI"]
					require.GreaterOrEqual(t, aqi.Value, 10)
					require.LessOrEqual(t, aqi.Value, 180)
					require.NotEmpty(t, aqi.Tone)
				}
			}
		}
	}
}

func TestCompute_UnknownValuesFallBack(t *testing.T) {
	unknown := Compute(Filters{Period: "24h", Zone: "unknown", Pollutant: "PM25"}, testBucket)
	all := Compute(Filters{Period: "24h", Zone: "all", Pollutant: "PM25"}, testBucket)

	assert.Equal(t, "all", unknown.Zone)
	assert.Equal(t, all, unknown)

	empty := Compute(Filters{}, testBucket)
	assert.Equal(t, "24h", empty.Period)
	assert.Equal(t, "all", empty.Zone)
	assert.Equal(t, "PM25", empty.Pollutant)

	odd := Compute(Filters{Period: "3y", Pollutant: "CO"}, testBucket)
	assert.Equal(t, "24h", odd.Period)
	assert.Equal(t, "PM25", odd.Pollutant)
}

func TestCompute_PollutantLabelAlias(t *testing.T) {
	assert.Equal(t,
		Compute(Filters{Pollutant: "PM25"}, testBucket),
		Compute(Filters{Pollutant: "pm2.5"}, testBucket))
}

func TestEngine_ZeroNoiseFollowsWave(t *testing.T) {
	e := NewEngine(DefaultTuning().WithNoiseScale(0))
	s := e.Compute(Filters{Period: "1h", Zone: "centre", Pollutant: "PM25"}, testBucket)

	// 38 * 1.0 + sin(0)*6 + cos(0)*3
	assert.Equal(t, 41, s.Series[0].Value)
	assert.Equal(t, 38, s.KPIs[PM25].Value)
	assert.Equal(t, 58, s.KPIs[PM10].Value)
}

func TestEngine_IndustrieScalesUp(t *testing.T) {
	e := NewEngine(DefaultTuning().WithNoiseScale(0))
	centre := e.Compute(Filters{Zone: "centre", Pollutant: "PM10"}, testBucket)
	industrie := e.Compute(Filters{Zone: "industrie", Pollutant: "PM10"}, testBucket)
	nord := e.Compute(Filters{Zone: "nord", Pollutant: "PM10"}, testBucket)

	assert.Greater(t, industrie.KPIs[PM10].Value, centre.KPIs[PM10].Value)
	assert.Less(t, nord.KPIs[PM10].Value, centre.KPIs[PM10].Value)
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+0% vs précédent", FormatDelta(0))
	assert.Equal(t, "+2.5% vs précédent", FormatDelta(2.5))
	assert.Equal(t, "+10% vs précédent", FormatDelta(10))
	assert.Equal(t, "-3.1% vs précédent", FormatDelta(-3.1))
}

func TestDeltaPercent(t *testing.T) {
	assert.Equal(t, 0.0, deltaPercent(10, 0))
	assert.Equal(t, 25.0, deltaPercent(50, 40))
	assert.Equal(t, -20.0, deltaPercent(40, 50))
	assert.Equal(t, 3.3, deltaPercent(31, 30))
}

func TestCompute_KPIDeltaSigns(t *testing.T) {
	for m := 0; m < 60; m++ {
		s := Compute(Filters{Zone: "nord"}, testBucket.Add(time.Duration(m)*time.Minute))
		for code, k := range s.KPIs {
			require.Regexp(t, `^[+-]\d+(\.\d)?% vs précédent$`, k.Delta, code)
		}
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	s := Compute(Filters{Period: "1h", Zone: "centre", Pollutant: "NO2"}, testBucket)
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"period", "zone", "pollutant", "series", "multi", "barZones", "pie", "kpis"} {
		assert.Contains(t, generic, key)
	}

	multi := generic["multi"].([]any)
	first := multi[0].(map[string]any)
	assert.Contains(t, first, "t")
	assert.Contains(t, first, "PM25")
	assert.Contains(t, first, "O3")

	var back Snapshot
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.Multi, back.Multi)
}
