package core

import "math"

// clip01 clamps a value to [0, 1].
func clip01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance returns the population variance, or 0 for an empty slice.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
