package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/frankdevcode/lp2-taller3/internal/common"
)

// Line is a first-order fit y = Slope*x + Intercept over sample indexes 0..n-1.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at index x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// FitLine fits an ordinary least squares line to values against their index.
// It reports false when fewer than two values are given or any value is not finite.
func FitLine(values []float64) (Line, bool) {
	if len(values) < 2 {
		return Line{}, false
	}
	for _, v := range values {
		if !common.IsFinite(v) {
			return Line{}, false
		}
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	if !common.IsFinite(slope) || !common.IsFinite(intercept) {
		return Line{}, false
	}
	return Line{Slope: slope, Intercept: intercept}, true
}
