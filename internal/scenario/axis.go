package scenario

import "time"

var frWeekdays = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

// axisSpec длина и шаг оси для периода
func axisSpec(p Period) (points int, step time.Duration) {
	switch p {
	case Period1h:
		return 12, 5 * time.Minute
	case Period6h:
		return 24, 15 * time.Minute
	case Period7d:
		return 7, 24 * time.Hour
	default:
		return 48, 30 * time.Minute
	}
}

// AxisLength количество точек оси для периода
func AxisLength(p Period) int {
	n, _ := axisSpec(ParsePeriod(string(p)))
	return n
}

// BuildTimeAxis строит подписи оси времени, заканчивающейся в bucket.
// Длина и шаг зависят только от периода; подписи "HH:MM" либо короткий
// день недели для 7d.
func BuildTimeAxis(p Period, bucket time.Time) []string {
	p = ParsePeriod(string(p))
	n, step := axisSpec(p)
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, AxisLabel(p, bucket.Add(-time.Duration(i)*step)))
	}
	return out
}

// AxisLabel подпись точки оси для периода
func AxisLabel(p Period, t time.Time) string {
	if ParsePeriod(string(p)) == Period7d {
		return frWeekdays[t.Weekday()]
	}
	return t.Format("15:04")
}

// Window охват оси периода
func Window(p Period) time.Duration {
	n, step := axisSpec(ParsePeriod(string(p)))
	return time.Duration(n) * step
}

// MinuteKey усечение времени до минуты в UTC: "2006-01-02T15:04"
func MinuteKey(bucket time.Time) string {
	return bucket.UTC().Format("2006-01-02T15:04")
}
