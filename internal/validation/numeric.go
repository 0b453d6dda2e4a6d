// Package validation содержит функции валидации входных данных.
package validation

import "math"

// maxExactInt — граница, до которой float64 представляет целые точно (2^53).
const maxExactInt = 1 << 53

// IsWholeNumber проверяет, что число из JSON является целым.
// Числа за пределами точного целочисленного диапазона float64 отклоняются.
func IsWholeNumber(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v != math.Trunc(v) {
		return false
	}
	return v > -maxExactInt && v < maxExactInt
}

// IsValidRating проверяет, что оценка отзыва лежит в диапазоне от 1 до 5.
func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
