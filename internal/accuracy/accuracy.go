// Package accuracy scores in-sample forecast points against actual closes
// and derives the next-step price delta.
package accuracy

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/series"
)

// PointScore is one aligned (actual, predicted) pair
type PointScore struct {
	Timestamp string
	Actual    float64
	Predicted float64
	Lower     float64
	Upper     float64
	// Accuracy is the folded percentage, NaN when Actual is zero.
	Accuracy float64
}

// Numeric reports whether the point takes part in aggregation
func (p PointScore) Numeric() bool {
	return finite(p.Accuracy)
}

// Report is the outcome of one evaluation
type Report struct {
	Points []PointScore
	// Unscored holds the last horizon closes; the forecast has no earlier
	// point aligned to them, so Accuracy is NaN.
	Unscored []PointScore
	// Future holds the forecast points past the last close; Actual and
	// Accuracy are NaN.
	Future []PointScore

	MeanAccuracy float64
	RMSPE        float64
	Confidence   float64

	Horizon       int
	LastActual    float64
	NextTimestamp string
	NextPrice     float64
	NextLower     float64
	NextUpper     float64
	DeltaPercent  float64
	DeltaLabel    string

	// Degraded is set when at least one point or aggregate is non-numeric
	Degraded bool
}

// Fold reflects an accuracy percentage around 100 so that overshoot and
// undershoot of the same size score the same.
func Fold(a float64) float64 {
	if a > 100 {
		return 200 - a
	}
	return a
}

// PointAccuracy returns the folded accuracy of predicted against actual, or
// NaN when actual is zero.
func PointAccuracy(actual, predicted float64) float64 {
	if actual == 0 {
		return math.NaN()
	}
	return Fold(predicted / actual * 100)
}

// RMSPE is the root-mean-squared percentage error over pairs with a
// non-zero actual. It is NaN when no pair qualifies.
func RMSPE(actual, predicted []float64) float64 {
	var sum float64
	n := 0
	for i := range actual {
		if i >= len(predicted) || actual[i] == 0 || !finite(actual[i]) || !finite(predicted[i]) {
			continue
		}
		e := (actual[i] - predicted[i]) / actual[i]
		sum += e * e
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum/float64(n)) * 100
}

// Evaluate scores result against s. The first len(s)-horizon forecast points
// are aligned one-to-one with the first len(s)-horizon closes; the final
// forecast point is the next-step price. Confidence is the mean accuracy
// minus RMSPE.
func Evaluate(s *series.Series, result *forecast.Result, policy interval.Policy) (*Report, error) {
	n, p := s.Len(), policy.Horizon
	if p < 1 || n <= p {
		return nil, core.WrapError(core.ErrMisaligned,
			fmt.Errorf("series of %d bars cannot be scored with horizon %d", n, p))
	}
	if result == nil || result.Len() != n+p {
		got := 0
		if result != nil {
			got = result.Len()
		}
		return nil, core.WrapError(core.ErrMisaligned,
			fmt.Errorf("forecast has %d points, want %d", got, n+p))
	}

	window := n - p
	report := &Report{
		Points:     make([]PointScore, window),
		Horizon:    p,
		DeltaLabel: policy.DeltaLabel,
	}

	actual := make([]float64, window)
	predicted := make([]float64, window)
	var sum float64
	numeric := 0
	for i := 0; i < window; i++ {
		fp := result.Points[i]
		a := s.Bars[i].Close
		ps := PointScore{
			Timestamp: s.Bars[i].Timestamp,
			Actual:    a,
			Predicted: fp.Yhat,
			Lower:     fp.YhatLower,
			Upper:     fp.YhatUpper,
			Accuracy:  PointAccuracy(a, fp.Yhat),
		}
		report.Points[i] = ps
		actual[i], predicted[i] = a, fp.Yhat

		if ps.Numeric() {
			sum += ps.Accuracy
			numeric++
		} else {
			report.Degraded = true
		}
	}

	if numeric > 0 {
		report.MeanAccuracy = sum / float64(numeric)
	} else {
		report.MeanAccuracy = math.NaN()
	}
	for i := window; i < n; i++ {
		fp := result.Points[i]
		report.Unscored = append(report.Unscored, PointScore{
			Timestamp: s.Bars[i].Timestamp,
			Actual:    s.Bars[i].Close,
			Predicted: fp.Yhat,
			Lower:     fp.YhatLower,
			Upper:     fp.YhatUpper,
			Accuracy:  math.NaN(),
		})
	}
	for _, fp := range result.Points[n:] {
		report.Future = append(report.Future, PointScore{
			Timestamp: fp.Timestamp,
			Actual:    math.NaN(),
			Predicted: fp.Yhat,
			Lower:     fp.YhatLower,
			Upper:     fp.YhatUpper,
			Accuracy:  math.NaN(),
		})
	}

	report.RMSPE = RMSPE(actual, predicted)
	report.Confidence = report.MeanAccuracy - report.RMSPE

	next := result.Last()
	report.NextTimestamp = next.Timestamp
	report.NextPrice = next.Yhat
	report.NextLower = next.YhatLower
	report.NextUpper = next.YhatUpper
	report.LastActual = s.Last().Close
	if report.LastActual != 0 {
		report.DeltaPercent = (report.NextPrice - report.LastActual) / report.LastActual * 100
	} else {
		report.DeltaPercent = math.NaN()
	}

	if !finite(report.Confidence) || !finite(report.DeltaPercent) {
		report.Degraded = true
	}
	return report, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// nullable maps non-finite values to JSON null
func nullable(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}

// MarshalJSON renders NaN accuracy as null
func (p PointScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string   `json:"timestamp"`
		Actual    float64  `json:"actual"`
		Predicted float64  `json:"predicted"`
		Lower     float64  `json:"lower"`
		Upper     float64  `json:"upper"`
		Accuracy  *float64 `json:"accuracy"`
	}{p.Timestamp, p.Actual, p.Predicted, p.Lower, p.Upper, nullable(p.Accuracy)})
}

// MarshalJSON renders non-numeric aggregates as null
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Points        []PointScore `json:"points"`
		MeanAccuracy  *float64     `json:"mean_accuracy"`
		RMSPE         *float64     `json:"rmspe"`
		Confidence    *float64     `json:"confidence"`
		Horizon       int          `json:"horizon"`
		LastActual    float64      `json:"last_actual"`
		NextTimestamp string       `json:"next_timestamp"`
		NextPrice     float64      `json:"next_price"`
		NextLower     float64      `json:"next_lower"`
		NextUpper     float64      `json:"next_upper"`
		DeltaPercent  *float64     `json:"delta_percent"`
		DeltaLabel    string       `json:"delta_label"`
		Degraded      bool         `json:"degraded"`
	}{
		r.Points, nullable(r.MeanAccuracy), nullable(r.RMSPE), nullable(r.Confidence),
		r.Horizon, r.LastActual, r.NextTimestamp, r.NextPrice, r.NextLower, r.NextUpper,
		nullable(r.DeltaPercent), r.DeltaLabel, r.Degraded,
	})
}
