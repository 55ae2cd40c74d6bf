package forecast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	cfg        Config
	fitted     []Sample
	extra      int
	fitErr     error
	predictErr error
}

func (m *stubModel) Fit(ctx context.Context, history []Sample) error {
	if m.fitErr != nil {
		return m.fitErr
	}
	m.fitted = history
	return nil
}

func (m *stubModel) Predict(ctx context.Context, periods int, step interval.StepUnit) (*Result, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	res := &Result{}
	for _, s := range m.fitted {
		res.Points = append(res.Points, Point{Time: s.Time, Yhat: s.Value})
	}
	last := m.fitted[len(m.fitted)-1]
	for i := 1; i <= periods+m.extra; i++ {
		res.Points = append(res.Points, Point{Time: last.Time.Add(time.Duration(i) * step.Duration()), Yhat: last.Value})
	}
	return res, nil
}

type countingObserver struct{ n int }

func (o *countingObserver) ObserveFit(time.Duration) { o.n++ }

func dailySeries(n int, country string) *series.Series {
	s := &series.Series{
		Instrument:     core.Instrument{Symbol: "TCS.NS", Kind: core.KindEquity, Currency: "INR", Country: country},
		Interval:       interval.Code1d,
		TimestampField: interval.FieldDate,
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, core.Bar{
			Timestamp: start.AddDate(0, 0, i).Format("2006-01-02"),
			Close:     100 + float64(i),
		})
	}
	return s
}

func dailyPolicy(t *testing.T) interval.Policy {
	t.Helper()
	p, err := interval.Resolve("1d")
	require.NoError(t, err)
	return p
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("IN")
	assert.Equal(t, 0.95, cfg.IntervalWidth)
	assert.True(t, cfg.DailySeasonality)
	assert.False(t, cfg.WeeklySeasonality)
	assert.Equal(t, 1.0, cfg.ChangepointPriorScale)
	assert.Equal(t, "IN", cfg.Country)

	assert.Empty(t, NewConfig("").Country)
}

func TestAdapter_Run(t *testing.T) {
	var built *stubModel
	obs := &countingObserver{}
	a := NewAdapter(func(cfg Config) (Model, error) {
		built = &stubModel{cfg: cfg}
		return built, nil
	}, WithObserver(obs))

	s := dailySeries(12, "IN")
	res, err := a.Run(context.Background(), s, dailyPolicy(t))
	require.NoError(t, err)

	assert.Equal(t, 13, res.Len())
	assert.Equal(t, "IN", built.cfg.Country)
	assert.False(t, built.cfg.Intraday)
	assert.Len(t, built.fitted, 12)
	assert.Equal(t, 1, obs.n)
	assert.Equal(t, "2024-03-01", res.Points[0].Timestamp)
	assert.Equal(t, "2024-03-13", res.Last().Timestamp)
}

func TestAdapter_RunIntradayTimestamps(t *testing.T) {
	var built *stubModel
	a := NewAdapter(func(cfg Config) (Model, error) {
		built = &stubModel{cfg: cfg}
		return built, nil
	})

	s := &series.Series{
		Instrument:     core.Instrument{Symbol: "BTC-INR", Kind: core.KindCrypto},
		Interval:       interval.Code60m,
		TimestampField: interval.FieldDatetime,
	}
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		s.Bars = append(s.Bars, core.Bar{Timestamp: start.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05"), Close: 10})
	}
	p, err := interval.Resolve("60m")
	require.NoError(t, err)

	res, err := a.Run(context.Background(), s, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 20:00:00", res.Last().Timestamp)
	assert.True(t, built.cfg.Intraday)
}

func TestAdapter_RunMisaligned(t *testing.T) {
	a := NewAdapter(func(cfg Config) (Model, error) { return &stubModel{extra: 1}, nil })

	_, err := a.Run(context.Background(), dailySeries(12, ""), dailyPolicy(t))
	assert.ErrorIs(t, err, core.ErrMisaligned)
}

func TestAdapter_RunModelFailures(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
	}{
		{"factory", func(Config) (Model, error) { return nil, errors.New("no sidecar") }},
		{"fit", func(Config) (Model, error) { return &stubModel{fitErr: errors.New("singular")}, nil }},
		{"predict", func(Config) (Model, error) { return &stubModel{predictErr: fmt.Errorf("timeout")}, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.factory).Run(context.Background(), dailySeries(12, ""), dailyPolicy(t))
			assert.ErrorIs(t, err, core.ErrPredictionFailed)
		})
	}
}

func TestAdapter_RunRejectsShortSeries(t *testing.T) {
	called := false
	a := NewAdapter(func(cfg Config) (Model, error) {
		called = true
		return &stubModel{}, nil
	})

	_, err := a.Run(context.Background(), dailySeries(10, ""), dailyPolicy(t))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
	assert.False(t, called)
}

func TestAdapter_RunViewOnly(t *testing.T) {
	p, err := interval.Resolve("1wk")
	require.NoError(t, err)

	_, err = NewAdapter(func(Config) (Model, error) { return &stubModel{}, nil }).Run(context.Background(), dailySeries(12, ""), p)
	assert.ErrorIs(t, err, core.ErrInvalidInterval)
}
