// Package forecast hides the external forecasting capability behind a narrow
// fit/predict interface and enforces the output shape the accuracy scoring
// relies on.
package forecast

import (
	"context"
	"time"

	"github.com/newthinker/finadict/internal/interval"
)

// Fixed model configuration
const (
	DefaultIntervalWidth         = 0.95
	DefaultChangepointPriorScale = 1.0
)

// Sample is one observed (timestamp, value) pair fed to a model
type Sample struct {
	Time  time.Time
	Value float64
}

// Point is one forecast row. Time is set by the model; Timestamp is the
// canonical string form in the series' timestamp field.
type Point struct {
	Time      time.Time `json:"-"`
	Timestamp string    `json:"timestamp"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// Result holds in-sample fitted values followed by the future horizon
type Result struct {
	Points []Point `json:"points"`
}

// Len returns the number of points
func (r *Result) Len() int {
	return len(r.Points)
}

// Yhat returns the point estimates in order
func (r *Result) Yhat() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Yhat
	}
	return out
}

// Last returns the final (furthest future) point
func (r *Result) Last() Point {
	return r.Points[len(r.Points)-1]
}

// Config is what gets configured into a model
type Config struct {
	IntervalWidth         float64 `json:"interval_width"`
	DailySeasonality      bool    `json:"daily_seasonality"`
	WeeklySeasonality     bool    `json:"weekly_seasonality"`
	ChangepointPriorScale float64 `json:"changepoint_prior_scale"`
	// Country enables the holiday regressor when non-empty (ISO alpha-2).
	Country string `json:"country_holidays,omitempty"`
	// Intraday is set from the interval's timestamp field; only intraday
	// series carry an hour-of-day pattern.
	Intraday bool `json:"-"`
}

// NewConfig returns the fixed configuration. Weekly seasonality stays off;
// the high changepoint scale lets the trend follow volatile markets.
func NewConfig(country string) Config {
	return Config{
		IntervalWidth:         DefaultIntervalWidth,
		DailySeasonality:      true,
		WeeklySeasonality:     false,
		ChangepointPriorScale: DefaultChangepointPriorScale,
		Country:               country,
	}
}

// Model is a single-use forecasting model
type Model interface {
	// Fit trains the model on the full history
	Fit(ctx context.Context, history []Sample) error
	// Predict returns one point per history sample followed by periods
	// future points spaced by step
	Predict(ctx context.Context, periods int, step interval.StepUnit) (*Result, error)
}

// Factory builds a fresh model for one request
type Factory func(cfg Config) (Model, error)

// FitObserver receives fit timings
type FitObserver interface {
	ObserveFit(d time.Duration)
}
