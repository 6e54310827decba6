// Package analysis computes trend, forecast and alert results for a single weather
// variable series. The functions are pure and never modify the input series, so
// many series may be analyzed concurrently.
package analysis

import "github.com/frankdevcode/lp2-taller3/internal/common"

// Analyze runs the trend estimator, the forecaster and the alert evaluator over one
// series using the default window and horizon. Degenerate inputs produce the
// documented sentinel values rather than errors.
func Analyze(series Series, variableName string) Record {
	trend := EstimateTrend(series, DefaultTrendWindow)
	trend.PercentChange = common.Round(trend.PercentChange, 2)

	record := Record{
		Trend: trend,
		Alert: EvaluateAlert(series, ClassifyVariable(variableName)),
	}
	if v, ok := Forecast(series, DefaultHorizonHours); ok {
		record.Forecast24h = &v
	}
	return record
}
