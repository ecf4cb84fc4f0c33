package iot

import "slices"

// Trend is an ordinary least squares fit of value against sample index.
type Trend struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Points    []float64 `json:"points"`
}

func (t Trend) IsEmpty() bool {
	return len(t.Points) == 0
}

// FitTrend fits values against x = 0..n-1. Points holds the fitted value for
// every input, in input order. Fewer than two values give an empty Trend.
func FitTrend(values []float64) Trend {
	n := len(values)
	if n < 2 {
		return Trend{Points: []float64{}}
	}

	// a flat series fits exactly, the sums below would only add rounding noise
	if slices.Min(values) == slices.Max(values) {
		points := make([]float64, n)
		for idx := range points {
			points[idx] = values[0]
		}
		return Trend{Slope: 0, Intercept: values[0], RSquared: 1, Points: points}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for idx, y := range values {
		x := float64(idx)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	// x is a dense index, so the denominator is never zero for n >= 2
	slope := (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	points := make([]float64, n)
	mean := sumY / fn
	var ssRes, ssTot float64
	for idx, y := range values {
		points[idx] = intercept + slope*float64(idx)
		ssRes += (y - points[idx]) * (y - points[idx])
		ssTot += (y - mean) * (y - mean)
	}

	rSquared := 1.0
	if ssTot != 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return Trend{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
		Points:    points,
	}
}
