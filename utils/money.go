package utils

import "math"

// Round2 rounds an amount to cents, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Cents converts an amount to whole cents.
func Cents(x float64) int64 {
	return int64(math.Round(x * 100))
}

// Exceeds reports whether a is greater than b once both are taken to cents.
func Exceeds(a, b float64) bool {
	return Cents(a) > Cents(b)
}

// Sum adds amounts and rounds the result to cents.
func Sum(xs ...float64) float64 {
	var c int64
	for _, x := range xs {
		c += Cents(x)
	}
	return float64(c) / 100
}
