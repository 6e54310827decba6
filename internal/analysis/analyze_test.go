package analysis

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_LinearTemperature(t *testing.T) {
	record := Analyze(linear(48, 0.5, 10), "Temperatura")

	assert.Equal(t, DirectionAscending, record.Trend.Direction)
	// 0.5 * 24 / 22 * 100, y0 being sample 24 of the series.
	assert.Equal(t, 54.55, record.Trend.PercentChange)
	require.NotNil(t, record.Forecast24h)
	assert.Equal(t, 46.0, *record.Forecast24h)
	assert.Nil(t, record.Alert)
}

func TestAnalyze_SparseSeries(t *testing.T) {
	record := Analyze(hourly(3, 4, 120, 5, 6), "velocidad_viento")

	assert.Equal(t, Record{Trend: TrendResult{Direction: DirectionUnknown}}, record)
}

func TestAnalyze_EmptySeries(t *testing.T) {
	assert.NotPanics(t, func() {
		record := Analyze(nil, "temperatura")
		assert.Equal(t, DirectionUnknown, record.Trend.Direction)
		assert.Nil(t, record.Forecast24h)
		assert.Nil(t, record.Alert)
	})
}

func TestAnalyze_UnknownVariableStillTrendsAndForecasts(t *testing.T) {
	record := Analyze(linear(48, 2, 5), "velocidad_viento")

	assert.Equal(t, DirectionAscending, record.Trend.Direction)
	require.NotNil(t, record.Forecast24h)
	assert.Equal(t, 149.0, *record.Forecast24h)
	assert.Nil(t, record.Alert)
}

func TestAnalyze_AlertFromClass(t *testing.T) {
	record := Analyze(constant(30, 95), "Humedad")

	assert.Equal(t, DirectionStable, record.Trend.Direction)
	require.NotNil(t, record.Alert)
	assert.Equal(t, "Humedad alta: 95", record.Alert.Message)
}

func TestAnalyze_IsPureAndDeterministic(t *testing.T) {
	series := linear(50, -0.3, 1020)
	series[10].Value = 1018.7
	snapshot := append(Series(nil), series...)

	first := Analyze(series, "Presion")
	second := Analyze(series, "Presion")

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, series, "input series must not be modified")
}

func TestAnalyze_NonFiniteDoesNotPanic(t *testing.T) {
	series := linear(48, 1, 10)
	series[47].Value = math.NaN()

	var record Record
	require.NotPanics(t, func() { record = Analyze(series, "temp") })

	assert.Equal(t, DirectionUnknown, record.Trend.Direction)
	assert.Nil(t, record.Forecast24h)
	assert.Nil(t, record.Alert)
}

func TestAnalyze_ConcurrentCalls(t *testing.T) {
	series := linear(48, 2, 5)
	want := Analyze(series, "temperatura")

	var wg sync.WaitGroup
	results := make([]Record, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Analyze(series, "temperatura")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
