// Package trend is the built-in forecasting model: a recency-weighted linear
// trend with optional hour-of-day seasonality, a holiday-adjacency shift and
// a residual-based uncertainty band.
package trend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/interval"
)

// Model implements forecast.Model
type Model struct {
	cfg forecast.Config

	history  []forecast.Sample
	origin   time.Time
	fitted   bool
	seasonal bool
	holidays *forecast.Holidays

	intercept float64
	slope     float64 // per hour
	hourly    [24]float64
	holiday   float64 // shift for bars on or next to a holiday
	sigma     float64
}

// New builds an unfitted model. It satisfies forecast.Factory.
func New(cfg forecast.Config) (forecast.Model, error) {
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		return nil, fmt.Errorf("interval width must be in (0, 1), got %v", cfg.IntervalWidth)
	}
	if cfg.ChangepointPriorScale < 0 {
		return nil, fmt.Errorf("changepoint prior scale must be >= 0, got %v", cfg.ChangepointPriorScale)
	}
	return &Model{cfg: cfg, holidays: forecast.NewHolidays(cfg.Country)}, nil
}

// Fit estimates the trend, seasonality and residual spread
func (m *Model) Fit(ctx context.Context, history []forecast.Sample) error {
	if len(history) < 2 {
		return errors.New("need at least two samples")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.history = history
	m.origin = history[0].Time
	m.seasonal = m.cfg.DailySeasonality && m.cfg.Intraday
	m.hourly, m.holiday = [24]float64{}, 0

	x := make([]float64, len(history))
	y := make([]float64, len(history))
	near := make([]bool, len(history))
	for i, s := range history {
		x[i] = m.hours(s.Time)
		y[i] = s.Value
		near[i] = m.holidays.Near(s.Time)
	}
	w := m.weights(history)

	// Bars around holidays are left out of the trend and explain the
	// holiday shift instead.
	base := masked(w, near)
	a, b, ok := weightedLine(x, y, base)
	if !ok {
		base = w
		a, b, ok = weightedLine(x, y, base)
	}
	if !ok {
		return errors.New("degenerate history, timestamps do not vary")
	}
	m.intercept, m.slope = a, b

	if m.seasonal {
		var sum, cnt [24]float64
		for i, s := range history {
			h := s.Time.Hour()
			sum[h] += base[i] * (y[i] - (a + b*x[i]))
			cnt[h] += base[i]
		}
		for h := range m.hourly {
			if cnt[h] > 0 {
				m.hourly[h] = sum[h] / cnt[h]
			}
		}
	}

	var hs, hw float64
	for i, s := range history {
		if near[i] {
			hs += w[i] * (y[i] - m.estimate(s.Time))
			hw += w[i]
		}
	}
	if hw > 0 {
		m.holiday = hs / hw
	}

	var sq, tw float64
	for i, s := range history {
		r := y[i] - m.estimate(s.Time)
		sq += w[i] * r * r
		tw += w[i]
	}
	m.sigma = math.Sqrt(sq / tw)
	m.fitted = true
	return nil
}

// Predict returns fitted values for the history plus periods future steps
func (m *Model) Predict(ctx context.Context, periods int, step interval.StepUnit) (*forecast.Result, error) {
	if !m.fitted {
		return nil, errors.New("model is not fitted")
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	z := math.Sqrt2 * math.Erfinv(m.cfg.IntervalWidth)
	band := z * m.sigma

	res := &forecast.Result{Points: make([]forecast.Point, 0, len(m.history)+periods)}
	add := func(t time.Time) {
		yhat := m.estimate(t)
		res.Points = append(res.Points, forecast.Point{
			Time:      t,
			Yhat:      yhat,
			YhatLower: yhat - band,
			YhatUpper: yhat + band,
		})
	}

	for _, s := range m.history {
		add(s.Time)
	}
	last := m.history[len(m.history)-1].Time
	for i := 1; i <= periods; i++ {
		add(last.Add(time.Duration(i) * step.Duration()))
	}
	return res, nil
}

func (m *Model) estimate(t time.Time) float64 {
	v := m.intercept + m.slope*m.hours(t)
	if m.seasonal {
		v += m.hourly[t.Hour()]
	}
	if m.holiday != 0 && m.holidays.Near(t) {
		v += m.holiday
	}
	return v
}

func (m *Model) hours(t time.Time) float64 {
	return t.Sub(m.origin).Hours()
}

// weights decays exponentially with age; the changepoint scale sets how
// fast older points lose influence.
func (m *Model) weights(history []forecast.Sample) []float64 {
	n := len(history)
	w := make([]float64, n)
	decay := 2 * m.cfg.ChangepointPriorScale
	for i := range history {
		age := float64(n-1-i) / float64(n)
		w[i] = math.Exp(-decay * age)
	}
	return w
}

// masked zeroes the weights where drop is set
func masked(w []float64, drop []bool) []float64 {
	out := make([]float64, len(w))
	for i := range w {
		if !drop[i] {
			out[i] = w[i]
		}
	}
	return out
}

// weightedLine solves weighted least squares for y = a + b*x
func weightedLine(x, y, w []float64) (a, b float64, ok bool) {
	var sw, sx, sy float64
	for i := range x {
		sw += w[i]
		sx += w[i] * x[i]
		sy += w[i] * y[i]
	}
	if sw == 0 {
		return 0, 0, false
	}
	mx, my := sx/sw, sy/sw

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - mx
		sxx += w[i] * dx * dx
		sxy += w[i] * dx * (y[i] - my)
	}
	if sxx == 0 {
		return 0, 0, false
	}
	b = sxy / sxx
	return my - b*mx, b, true
}
