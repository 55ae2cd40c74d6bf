// Package pipeline runs one request end to end: resolve, load, normalize,
// fit, predict, evaluate and format.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/newthinker/finadict/internal/accuracy"
	"github.com/newthinker/finadict/internal/cache"
	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/display"
	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/instrument"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/metrics"
	"github.com/newthinker/finadict/internal/series"
	"go.uber.org/zap"
)

// HistoryFetcher is the provider capability used to load bars
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (*collector.History, error)
}

// InstrumentResolver turns raw input into an instrument
type InstrumentResolver interface {
	Resolve(ctx context.Context, req instrument.Request) (core.Instrument, error)
}

// Forecaster fits and predicts over a series
type Forecaster interface {
	Run(ctx context.Context, s *series.Series, policy interval.Policy) (*forecast.Result, error)
}

// Recorder receives pipeline metrics
type Recorder interface {
	RecordPrediction(interval, outcome string)
	RecordCacheLookup(hit bool)
	RecordDegraded()
}

// Request is one user interaction
type Request struct {
	Instrument instrument.Request
	Interval   string
	// Lookback in the interval's lookback unit; zero selects the default
	Lookback int
}

// Outcome is everything the presentation layer consumes
type Outcome struct {
	Instrument core.Instrument    `json:"instrument"`
	Policy     interval.Policy    `json:"interval"`
	Lookback   int                `json:"lookback"`
	Series     *series.Series     `json:"series"`
	Forecast   *forecast.Result   `json:"forecast,omitempty"`
	Report     *accuracy.Report   `json:"report,omitempty"`
	Latest     display.Indicator  `json:"latest"`
	Predicted  *display.Indicator `json:"predicted,omitempty"`
}

// ViewOnly reports whether the interval skipped forecasting
func (o *Outcome) ViewOnly() bool {
	return o.Forecast == nil
}

// Pipeline wires the components together
type Pipeline struct {
	table      *interval.Table
	resolver   InstrumentResolver
	source     HistoryFetcher
	forecaster Forecaster
	cache      cache.Service
	cacheTTL   time.Duration
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithTable replaces the default interval table
func WithTable(t *interval.Table) Option {
	return func(p *Pipeline) {
		p.table = t
	}
}

// WithCache memoizes normalized series for ttl
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithRecorder records pipeline metrics
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithLogger sets the pipeline logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the clock used for lookback windows
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline
func New(resolver InstrumentResolver, source HistoryFetcher, forecaster Forecaster, opts ...Option) *Pipeline {
	p := &Pipeline{
		table:      interval.NewTable(interval.DefaultLimits),
		resolver:   resolver,
		source:     source,
		forecaster: forecaster,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Table returns the interval table in use
func (p *Pipeline) Table() *interval.Table {
	return p.table
}

// Run executes one request. View-only intervals return the series and the
// latest close without touching the forecaster.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	policy, err := p.table.Resolve(req.Interval)
	if err != nil {
		p.record("unknown", Classify(err))
		return nil, err
	}

	out, err := p.run(ctx, req, policy)
	if err != nil {
		p.record(string(policy.Code), Classify(err))
		p.logger.Info("prediction failed",
			zap.String("interval", string(policy.Code)),
			zap.Error(err),
		)
		return nil, err
	}

	if out.ViewOnly() {
		p.record(string(policy.Code), metrics.OutcomeViewOnly)
	} else {
		p.record(string(policy.Code), metrics.OutcomeOK)
	}
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, policy interval.Policy) (*Outcome, error) {
	inst, err := p.resolver.Resolve(ctx, req.Instrument)
	if err != nil {
		return nil, err
	}

	lookback := p.lookback(req.Lookback, policy, inst.Kind)
	s, err := p.LoadSeries(ctx, inst, policy, lookback)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Instrument: inst,
		Policy:     policy,
		Lookback:   lookback,
		Series:     s,
		Latest:     display.LatestClose(s, policy),
	}

	if !policy.ForecastEnabled {
		p.logger.Debug("view-only interval, skipping forecast",
			zap.String("symbol", inst.Symbol),
			zap.String("interval", string(policy.Code)),
		)
		return out, nil
	}

	result, err := p.forecaster.Run(ctx, s, policy)
	if err != nil {
		return nil, err
	}
	report, err := accuracy.Evaluate(s, result, policy)
	if err != nil {
		return nil, err
	}
	if report.Degraded {
		p.logger.Warn("accuracy report degraded",
			zap.String("symbol", inst.Symbol),
			zap.String("interval", string(policy.Code)),
		)
		if p.recorder != nil {
			p.recorder.RecordDegraded()
		}
	}

	predicted := display.PredictedPrice(report, inst.Currency, policy)
	out.Forecast = result
	out.Report = report
	out.Predicted = &predicted

	p.logger.Info("prediction complete",
		zap.String("symbol", inst.Symbol),
		zap.String("interval", string(policy.Code)),
		zap.Int("bars", s.Len()),
		zap.Float64("next_price", display.RoundPrice(report.NextPrice)),
		zap.Bool("degraded", report.Degraded),
	)
	return out, nil
}

func (p *Pipeline) lookback(requested int, policy interval.Policy, kind core.MarketKind) int {
	if requested <= 0 {
		return policy.DefaultLookbackFor(kind)
	}
	return policy.Clamp(requested)
}

// LoadSeries fetches and normalizes the series for an instrument, going
// through the cache when one is configured.
func (p *Pipeline) LoadSeries(ctx context.Context, inst core.Instrument, policy interval.Policy, lookback int) (*series.Series, error) {
	key := cache.Key(inst.Symbol, policy.Period(lookback), string(policy.Code), string(policy.TimestampField))

	if p.cache != nil {
		var cached series.Series
		err := p.cache.Get(ctx, key, &cached)
		if p.recorder != nil {
			p.recorder.RecordCacheLookup(err == nil)
		}
		if err == nil {
			p.logger.Debug("series cache hit", zap.String("key", key))
			cached.Instrument = inst
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("series cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	start, end := policy.Window(lookback, p.now())
	history, err := p.source.FetchHistory(ctx, inst.Symbol, start, end, string(policy.Code))
	if err != nil {
		return nil, err
	}

	s, err := series.Normalize(history.Rows, policy.TimestampField, inst, policy.Code)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("series loaded",
		zap.String("symbol", inst.Symbol),
		zap.String("period", policy.Period(lookback)),
		zap.Int("bars", s.Len()),
	)

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, s, p.cacheTTL); err != nil {
			p.logger.Warn("series cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return s, nil
}

func (p *Pipeline) record(code, outcome string) {
	if p.recorder != nil {
		p.recorder.RecordPrediction(code, outcome)
	}
}

// Classify maps an error to a metrics outcome label
func Classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, core.ErrInsufficientData):
		return metrics.OutcomeInsufficientData
	case errors.Is(err, core.ErrSymbolNotFound), errors.Is(err, core.ErrNoData):
		return metrics.OutcomeNotFound
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInvalidInterval):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}
