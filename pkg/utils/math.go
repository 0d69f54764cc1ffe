package utils

import (
	"math"
)

// math.go - денежная арифметика для расчета лимитов операций.
// Все функции чистые.

// centEpsilon гасит ошибку представления float64 (0.29*100 = 28.999999999999996)
const centEpsilon = 1e-9

// RoundDownCents округляет сумму в USD ВНИЗ до центов.
//
// Считается в целых центах: floor(v*100)/100. Результат может отличаться от
// входа на ошибку представления float64, поэтому верхнюю границу вызывающий
// код ограничивает сам (см. service.ComputeLimits).
//
// Примеры:
//   - RoundDownCents(300.999) = 300.99
//   - RoundDownCents(0.29) = 0.29
//   - RoundDownCents(-1) = -1
func RoundDownCents(value float64) float64 {
	return math.Floor(value*100+centEpsilon) / 100
}

// NonNegative возвращает 0 для отрицательных и NaN значений
func NonNegative(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	return x
}

// MinOf возвращает минимум из набора чисел (0 для пустого набора).
func MinOf(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Min возвращает минимум из двух чисел.
func Min(a, b float64) float64 {
	return math.Min(a, b)
}

// Max возвращает максимум из двух чисел.
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// Clamp ограничивает значение диапазоном [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// InRange проверяет min <= value <= max
func InRange(value, min, max float64) bool {
	return value >= min && value <= max
}
