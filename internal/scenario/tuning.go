package scenario

// MultiSpec амплитуда кривой загрязнителя на мульти-графике
type MultiSpec struct {
	Code string
	Amp  float64
}

// RangeSpec значение вида Base + r*Spread
type RangeSpec struct {
	Name   string
	Base   float64
	Spread float64
}

// Tuning константы подобраны ради правдоподобного вида графиков,
// физического смысла у них нет
type Tuning struct {
	// Основная кривая
	WaveAmp      float64
	WavePeriod   float64
	SwellAmp     float64
	SwellPeriod  float64
	SeriesNoise  float64
	NoiseScale   float64
	MultiSpecs   []MultiSpec
	MultiMin     int
	MultiMax     int
	BarZones     []RangeSpec
	PieWeights   []RangeSpec
	DeltaSpread  float64
	PrevMin      int
	PrevMax      int
	AQIFactor    float64
	AQIMin       float64
	AQIMax       float64
	KPINoise     map[string]float64
	KPIPollutant []string
}

// DefaultTuning значения, которые видит дашборд
func DefaultTuning() Tuning {
	return Tuning{
		WaveAmp:     6,
		WavePeriod:  2.2,
		SwellAmp:    3,
		SwellPeriod: 5.5,
		SeriesNoise: 5,
		NoiseScale:  1,
		MultiSpecs: []MultiSpec{
			{Code: PM25, Amp: 2},
			{Code: PM10, Amp: 3},
			{Code: NO2, Amp: 2.5},
			{Code: O3, Amp: 2},
		},
		MultiMin: 4,
		MultiMax: 140,
		BarZones: []RangeSpec{
			{Name: "Centre-ville", Base: 70, Spread: 20},
			{Name: "Zone Industrielle", Base: 95, Spread: 25},
			{Name: "Résidentiel Nord", Base: 55, Spread: 18},
		},
		PieWeights: []RangeSpec{
			{Name: PM25, Base: 0.15, Spread: 0.2},
			{Name: PM10, Base: 0.2, Spread: 0.25},
			{Name: NO2, Base: 0.15, Spread: 0.25},
			{Name: O3, Base: 0.15, Spread: 0.25},
		},
		DeltaSpread:  10,
		PrevMin:      5,
		PrevMax:      140,
		AQIFactor:    1.7,
		AQIMin:       10,
		AQIMax:       180,
		KPINoise:     map[string]float64{PM25: 8, PM10: 10, NO2: 10},
		KPIPollutant: []string{PM25, PM10, NO2},
	}
}

// WithNoiseScale копия с масштабированным шумом; отрицательное значение
// трактуется как 0
func (t Tuning) WithNoiseScale(scale float64) Tuning {
	if scale < 0 {
		scale = 0
	}
	t.NoiseScale = scale
	return t
}
