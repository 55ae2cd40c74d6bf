package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
)

const (
	// DefaultBaseURL is the API host; chartPath is appended to it
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart"
	userAgent      = "Mozilla/5.0 (compatible; finadict/1.0)"
)

// validSymbol matches tickers (AAPL, TCS.NS, ^NSEI, BRK-B), forex pairs
// (USDINR=X) and crypto pairs (BTC-INR)
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9]{1,12}([-=][A-Za-z0-9]{0,10})?(\.[A-Za-z]{1,4})?$`)

var validIntervals = map[string]bool{
	"5m": true, "15m": true, "30m": true, "60m": true,
	"1d": true, "1wk": true, "1mo": true,
}

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("symbol cannot be empty"))
	}
	if len(symbol) > 24 {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("symbol too long: %s", symbol))
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Option configures the Yahoo collector
type Option func(*Yahoo)

// WithBaseURL points the collector at another API host. A URL that already
// ends in the chart path is accepted as is.
func WithBaseURL(u string) Option {
	return func(y *Yahoo) {
		u = strings.TrimSuffix(strings.TrimSpace(u), "/")
		if u == "" {
			return
		}
		y.baseURL = strings.TrimSuffix(u, chartPath)
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(y *Yahoo) {
		if d > 0 {
			y.client.Timeout = d
		}
	}
}

// Yahoo implements the Yahoo Finance chart collector
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedKinds() []core.MarketKind {
	return []core.MarketKind{core.KindEquity, core.KindForex, core.KindCrypto}
}

// FetchMeta fetches instrument metadata from a one-day chart request
func (y *Yahoo) FetchMeta(ctx context.Context, symbol string) (*collector.Meta, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "1d")

	r, err := y.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	meta := r.Meta.toMeta()
	return &meta, nil
}

// FetchHistory fetches raw bars between start and end. Missing values are
// kept as nil fields so the normalizer can fill them.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (*collector.History, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if !validIntervals[interval] {
		return nil, core.WrapError(core.ErrInvalidInterval, fmt.Errorf("yahoo interval %q", interval))
	}

	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))

	r, err := y.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	if len(r.Timestamp) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for symbol: %s", symbol))
	}

	loc := r.Meta.location()
	var quotes quoteIndicator
	if len(r.Indicators.Quote) > 0 {
		quotes = r.Indicators.Quote[0]
	}

	rows := make([]collector.Row, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		rows = append(rows, collector.Row{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   at(quotes.Open, i),
			High:   at(quotes.High, i),
			Low:    at(quotes.Low, i),
			Close:  at(quotes.Close, i),
			Volume: at(quotes.Volume, i),
		})
	}

	return &collector.History{
		Meta: r.Meta.toMeta(),
		Rows: rows,
	}, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol string, q url.Values) (*chartResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.endpoint(symbol, q), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching chart: %w", err))
	}
	defer resp.Body.Close()

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol: %s", symbol))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err))
	}

	if result.Chart.Error != nil {
		if resp.StatusCode == http.StatusNotFound || strings.EqualFold(result.Chart.Error.Code, "Not Found") {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s: %s", symbol, result.Chart.Error.Description))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return &result.Chart.Result[0], nil
}

// endpoint returns the chart URL for symbol
func (y *Yahoo) endpoint(symbol string, q url.Values) string {
	return fmt.Sprintf("%s%s/%s?%s", y.baseURL, chartPath, url.PathEscape(symbol), q.Encode())
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeName         string `json:"exchangeName"`
	InstrumentType       string `json:"instrumentType"`
	Timezone             string `json:"timezone"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"`
	LongName             string `json:"longName"`
	ShortName            string `json:"shortName"`
}

func (m chartMeta) toMeta() collector.Meta {
	name := m.LongName
	if name == "" {
		name = m.ShortName
	}
	return collector.Meta{
		Symbol:           m.Symbol,
		Currency:         strings.ToUpper(m.Currency),
		ExchangeName:     m.ExchangeName,
		ExchangeTimezone: m.ExchangeTimezoneName,
		InstrumentType:   m.InstrumentType,
		LongName:         name,
		GMTOffset:        m.GMTOffset,
	}
}

// location resolves the exchange time zone, falling back to the fixed
// offset Yahoo reports alongside it
func (m chartMeta) location() *time.Location {
	if m.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(m.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	name := m.Timezone
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, m.GMTOffset)
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
