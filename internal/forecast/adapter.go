package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/series"
	"go.uber.org/zap"
)

const (
	intradayLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// Adapter runs a model over a series
type Adapter struct {
	factory  Factory
	observer FitObserver
	logger   *zap.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithObserver records fit durations
func WithObserver(o FitObserver) AdapterOption {
	return func(a *Adapter) {
		a.observer = o
	}
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter creates an adapter that builds models with factory
func NewAdapter(factory Factory, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		factory: factory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run fits a fresh model on s and predicts policy.Horizon steps ahead. The
// result always holds len(s)+horizon points; anything else is rejected.
func (a *Adapter) Run(ctx context.Context, s *series.Series, policy interval.Policy) (*Result, error) {
	if !policy.ForecastEnabled {
		return nil, core.WrapError(core.ErrInvalidInterval,
			fmt.Errorf("interval %s is view-only", policy.Code))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	history, err := Samples(s)
	if err != nil {
		return nil, err
	}

	cfg := NewConfig(s.Instrument.Country)
	cfg.Intraday = policy.Intraday()
	model, err := a.factory(cfg)
	if err != nil {
		return nil, core.WrapError(core.ErrPredictionFailed, fmt.Errorf("build model: %w", err))
	}

	start := time.Now()
	if err := model.Fit(ctx, history); err != nil {
		return nil, core.WrapError(core.ErrPredictionFailed, fmt.Errorf("fit: %w", err))
	}
	elapsed := time.Since(start)
	if a.observer != nil {
		a.observer.ObserveFit(elapsed)
	}

	result, err := model.Predict(ctx, policy.Horizon, policy.StepUnit)
	if err != nil {
		return nil, core.WrapError(core.ErrPredictionFailed, fmt.Errorf("predict: %w", err))
	}

	want := s.Len() + policy.Horizon
	if result == nil || result.Len() != want {
		got := 0
		if result != nil {
			got = result.Len()
		}
		return nil, core.WrapError(core.ErrMisaligned,
			fmt.Errorf("forecast has %d points, want %d", got, want))
	}

	layout := dateLayout
	if s.TimestampField == interval.FieldDatetime {
		layout = intradayLayout
	}
	for i := range result.Points {
		p := &result.Points[i]
		if i < s.Len() {
			p.Timestamp = s.Bars[i].Timestamp
		} else {
			p.Timestamp = p.Time.Format(layout)
		}
	}

	a.logger.Debug("forecast complete",
		zap.String("symbol", s.Instrument.Symbol),
		zap.String("interval", string(policy.Code)),
		zap.Int("points", result.Len()),
		zap.Duration("fit", elapsed),
		zap.Bool("holidays", HasHolidays(cfg.Country)),
	)
	return result, nil
}

// Samples converts series closes into model input
func Samples(s *series.Series) ([]Sample, error) {
	layout := dateLayout
	if s.TimestampField == interval.FieldDatetime {
		layout = intradayLayout
	}

	out := make([]Sample, len(s.Bars))
	for i, b := range s.Bars {
		t, err := time.Parse(layout, b.Timestamp)
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("timestamp %q: %w", b.Timestamp, err))
		}
		out[i] = Sample{Time: t, Value: b.Close}
	}
	return out, nil
}
