package analysis

import "github.com/frankdevcode/lp2-taller3/internal/common"

const (
	// DefaultHorizonHours is how far ahead Analyze extrapolates.
	DefaultHorizonHours = 24

	// MinForecastSamples is the smallest series the forecaster accepts.
	MinForecastSamples = 24

	// forecastWindow is wider than the trend window to smooth short-term noise.
	forecastWindow = 48
)

// Forecast extrapolates a single value horizonHours steps past the end of the series.
//
// The fit covers the last 48 samples (or the whole series when shorter) indexed 0..N-1,
// and the value is read at index N+horizonHours. The horizon is counted in samples:
// feeds are assumed to be sampled hourly without gaps, which is not checked against
// the timestamps. The result is rounded to two decimals. ok is false when the series
// holds fewer than 24 samples or a non-finite value inside the window.
func Forecast(series Series, horizonHours int) (value float64, ok bool) {
	if len(series) < MinForecastSamples {
		return 0, false
	}

	values := series.Tail(forecastWindow).Values()
	line, ok := FitLine(values)
	if !ok {
		return 0, false
	}

	predicted := line.At(float64(len(values) + horizonHours))
	if !common.IsFinite(predicted) {
		return 0, false
	}
	return common.Round(predicted, 2), true
}
