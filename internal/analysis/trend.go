package analysis

// DefaultTrendWindow is the number of trailing samples used for trend detection.
const DefaultTrendWindow = 24

// slopeThreshold is absolute, in the variable's native unit per sample step.
const slopeThreshold = 0.01

// EstimateTrend fits a line to the last window samples and classifies its slope.
//
// Series shorter than the window, windows below two samples and windows holding a
// non-finite value all yield {unknown, 0}. When the first value of the window is zero
// the percent change is reported as 0.
func EstimateTrend(series Series, window int) TrendResult {
	unknown := TrendResult{Direction: DirectionUnknown}
	if window < 2 || len(series) < window {
		return unknown
	}

	values := series.Tail(window).Values()
	line, ok := FitLine(values)
	if !ok {
		return unknown
	}

	var percent float64
	if y0 := values[0]; y0 != 0 {
		percent = line.Slope * float64(window) / y0 * 100
	}

	return TrendResult{
		Direction:     classifySlope(line.Slope),
		PercentChange: percent,
	}
}

func classifySlope(m float64) Direction {
	switch {
	case m > slopeThreshold:
		return DirectionAscending
	case m < -slopeThreshold:
		return DirectionDescending
	default:
		return DirectionStable
	}
}

// TrendLine returns the two end points of the fitted trend over the last window
// samples, stamped with the timestamps of the first and last sample of the window.
// It returns nil whenever EstimateTrend would report an unknown direction.
func TrendLine(series Series, window int) Series {
	if window < 2 || len(series) < window {
		return nil
	}
	tail := series.Tail(window)
	line, ok := FitLine(tail.Values())
	if !ok {
		return nil
	}
	last := len(tail) - 1
	return Series{
		{Timestamp: tail[0].Timestamp, Value: line.At(0)},
		{Timestamp: tail[last].Timestamp, Value: line.At(float64(last))},
	}
}
