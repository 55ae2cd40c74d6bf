package accuracy

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(closes ...float64) *series.Series {
	s := &series.Series{Interval: interval.Code1d, TimestampField: interval.FieldDate}
	for i, c := range closes {
		s.Bars = append(s.Bars, core.Bar{Timestamp: fmt.Sprintf("2024-01-%02d", i+1), Close: c})
	}
	return s
}

func makeResult(yhat ...float64) *forecast.Result {
	r := &forecast.Result{}
	for _, y := range yhat {
		r.Points = append(r.Points, forecast.Point{Yhat: y, YhatLower: y - 1, YhatUpper: y + 1})
	}
	return r
}

func policy(t *testing.T, alias string) interval.Policy {
	t.Helper()
	p, err := interval.Resolve(alias)
	require.NoError(t, err)
	return p
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{100, 100},
		{90, 90},
		{110, 90},
		{150, 50},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%v)", tt.in)
	}
}

func TestFold_Symmetric(t *testing.T) {
	for d := 0.0; d <= 50; d += 0.5 {
		assert.InDelta(t, Fold(100-d), Fold(100+d), 1e-9)
		assert.LessOrEqual(t, Fold(100+d), 100.0)
	}
}

func TestPointAccuracy(t *testing.T) {
	assert.InDelta(t, 98.0392, PointAccuracy(102, 100), 1e-3)
	assert.InDelta(t, 98.9796, PointAccuracy(98, 99), 1e-3)
	assert.True(t, math.IsNaN(PointAccuracy(0, 5)))
}

func TestRMSPE(t *testing.T) {
	assert.Equal(t, 0.0, RMSPE([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 10, RMSPE([]float64{100, 100}, []float64{110, 90}), 1e-9)
	assert.True(t, math.IsNaN(RMSPE([]float64{0, 0}, []float64{1, 2})))
	assert.InDelta(t, 10, RMSPE([]float64{0, 100}, []float64{1, 90}), 1e-9)
	assert.GreaterOrEqual(t, RMSPE([]float64{3, 7, 11}, []float64{-5, 20, 1}), 0.0)
}

func TestEvaluate_NextStepScenario(t *testing.T) {
	s := makeSeries(100, 102, 98, 101, 99)
	res := makeResult(100, 101, 99, 100, 98.5, 100)

	report, err := Evaluate(s, res, policy(t, "1d"))
	require.NoError(t, err)

	assert.Len(t, report.Points, 4)
	assert.Equal(t, 99.0, report.LastActual)
	assert.Equal(t, 100.0, report.NextPrice)
	assert.InDelta(t, 1.0101, report.DeltaPercent, 1e-4)
	assert.Equal(t, "since today", report.DeltaLabel)
	assert.False(t, report.Degraded)

	// Window is aligned with the first four closes only.
	assert.Equal(t, 101.0, report.Points[3].Actual)
	assert.Equal(t, 100.0, report.Points[3].Predicted)
	assert.Equal(t, 99.0, report.Points[3].Lower)

	// The last close and the next step are carried but not scored.
	require.Len(t, report.Unscored, 1)
	assert.Equal(t, "2024-01-05", report.Unscored[0].Timestamp)
	assert.Equal(t, 99.0, report.Unscored[0].Actual)
	assert.Equal(t, 98.5, report.Unscored[0].Predicted)
	assert.True(t, math.IsNaN(report.Unscored[0].Accuracy))
	require.Len(t, report.Future, 1)
	assert.True(t, math.IsNaN(report.Future[0].Actual))
	assert.Equal(t, 100.0, report.Future[0].Predicted)

	mean := (100 + 101.0/102*100 + Fold(99.0/98*100) + 100.0/101*100) / 4
	assert.InDelta(t, mean, report.MeanAccuracy, 1e-3)
	assert.InDelta(t, report.MeanAccuracy-report.RMSPE, report.Confidence, 1e-12)
}

func TestEvaluate_HourlyLabel(t *testing.T) {
	report, err := Evaluate(makeSeries(10, 10, 10), makeResult(10, 10, 10, 11), policy(t, "60m"))
	require.NoError(t, err)
	assert.Equal(t, "since last hour", report.DeltaLabel)
	assert.Equal(t, 100.0, report.MeanAccuracy)
	assert.Equal(t, 0.0, report.RMSPE)
	assert.InDelta(t, 10, report.DeltaPercent, 1e-9)
}

func TestEvaluate_ZeroActualIsDegraded(t *testing.T) {
	report, err := Evaluate(makeSeries(100, 0, 100, 50), makeResult(100, 3, 90, 50, 55), policy(t, "1d"))
	require.NoError(t, err)

	assert.True(t, report.Degraded)
	assert.False(t, report.Points[1].Numeric())
	assert.InDelta(t, 95, report.MeanAccuracy, 1e-9)
	assert.InDelta(t, math.Sqrt(0.01/2)*100, report.RMSPE, 1e-9)
	assert.InDelta(t, 10, report.DeltaPercent, 1e-9)
}

func TestEvaluate_AllZeroActuals(t *testing.T) {
	report, err := Evaluate(makeSeries(0, 0, 0, 5), makeResult(1, 1, 1, 1, 6), policy(t, "1d"))
	require.NoError(t, err)

	assert.True(t, report.Degraded)
	assert.True(t, math.IsNaN(report.MeanAccuracy))
	assert.True(t, math.IsNaN(report.RMSPE))
	assert.True(t, math.IsNaN(report.Confidence))

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["mean_accuracy"])
	assert.Nil(t, decoded["confidence"])
	assert.Equal(t, true, decoded["degraded"])
	points := decoded["points"].([]any)
	assert.Nil(t, points[0].(map[string]any)["accuracy"])
}

func TestEvaluate_Misaligned(t *testing.T) {
	tests := []struct {
		name string
		s    *series.Series
		r    *forecast.Result
	}{
		{"short result", makeSeries(1, 2, 3), makeResult(1, 2, 3)},
		{"long result", makeSeries(1, 2, 3), makeResult(1, 2, 3, 4, 5)},
		{"nil result", makeSeries(1, 2, 3), nil},
		{"series within horizon", makeSeries(1), makeResult(1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.s, tt.r, policy(t, "1d"))
			assert.ErrorIs(t, err, core.ErrMisaligned)
		})
	}
}

func TestEvaluate_WindowLength(t *testing.T) {
	for n := 2; n <= 30; n++ {
		closes := make([]float64, n)
		yhat := make([]float64, n+1)
		for i := range closes {
			closes[i] = float64(i + 1)
			yhat[i] = float64(i + 1)
		}
		yhat[n] = float64(n + 1)

		report, err := Evaluate(makeSeries(closes...), makeResult(yhat...), policy(t, "1d"))
		require.NoError(t, err)
		assert.Len(t, report.Points, n-1)
		assert.Equal(t, n+1, len(report.Points)+len(report.Unscored)+len(report.Future))
	}
}
