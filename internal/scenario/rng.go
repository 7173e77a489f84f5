package scenario

import (
	"hash/fnv"
	"math"
)

// HashSeed 32-битный FNV-1a хеш строки ключа
func HashSeed(text string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return h.Sum32()
}

// Generator поток псевдослучайных дробей (mulberry32).
// Не потокобезопасен: принадлежит одному вызову генерации.
type Generator struct {
	state uint32
}

// NewGenerator создает поток; повторить последовательность можно
// только новым экземпляром с тем же seed
func NewGenerator(seed uint32) *Generator {
	return &Generator{state: seed}
}

// Next продвигает состояние и возвращает значение в [0, 1)
func (g *Generator) Next() float64 {
	g.state += 0x6D2B79F5
	s := g.state
	t := (s ^ (s >> 15)) * (s | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296
}

// roundHalfUp округляет половину вверх: -2.5 -> -2
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func clamp(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}
