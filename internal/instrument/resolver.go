package instrument

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
	"go.uber.org/zap"
)

// Defaults used when the user leaves an input blank
const (
	DefaultEquity     = "TCS.NS"
	DefaultForexFrom  = "USD"
	DefaultForexTo    = "INR"
	DefaultCryptoPair = "BTC-INR"
)

var (
	currencyCode  = regexp.MustCompile(`^[A-Za-z]{3}$`)
	leadingAlpha  = regexp.MustCompile(`^[a-zA-Z]*`)
	trailingAlpha = regexp.MustCompile(`[a-zA-Z]*$`)
)

// Request is the raw user selection
type Request struct {
	Kind   core.MarketKind
	Symbol string // equity ticker or crypto pair
	From   string // forex base currency
	To     string // forex quote currency
}

// MetaFetcher is the provider capability the resolver needs
type MetaFetcher interface {
	FetchMeta(ctx context.Context, symbol string) (*collector.Meta, error)
}

// Resolver turns user input into an Instrument
type Resolver struct {
	meta   MetaFetcher
	logger *zap.Logger
}

// NewResolver creates a resolver backed by a provider
func NewResolver(meta MetaFetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{meta: meta, logger: logger}
}

// Resolve builds the Instrument for a request. Equities are looked up at the
// provider for currency, name and country; forex and crypto pairs derive
// their currency from the quote side and carry no country.
func (r *Resolver) Resolve(ctx context.Context, req Request) (core.Instrument, error) {
	switch req.Kind {
	case core.KindEquity:
		return r.resolveEquity(ctx, req.Symbol)
	case core.KindForex:
		return resolveForex(req.From, req.To)
	case core.KindCrypto:
		return resolveCrypto(req.Symbol)
	default:
		return core.Instrument{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown market kind %q", req.Kind))
	}
}

func (r *Resolver) resolveEquity(ctx context.Context, symbol string) (core.Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = DefaultEquity
	}

	meta, err := r.meta.FetchMeta(ctx, symbol)
	if err != nil {
		return core.Instrument{}, fmt.Errorf("resolving %s: %w", symbol, err)
	}

	inst := core.Instrument{
		Symbol:   symbol,
		Kind:     core.KindEquity,
		Currency: meta.Currency,
		Name:     meta.LongName,
	}

	country, ok := CountryCode(symbol, meta.ExchangeTimezone)
	if ok {
		inst.Country = country
	} else {
		r.logger.Debug("country not resolved, holiday regressor disabled",
			zap.String("symbol", symbol),
			zap.String("exchange_timezone", meta.ExchangeTimezone),
		)
	}

	return inst, nil
}

func resolveForex(from, to string) (core.Instrument, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" {
		from = DefaultForexFrom
	}
	if to == "" {
		to = DefaultForexTo
	}
	if !currencyCode.MatchString(from) || !currencyCode.MatchString(to) {
		return core.Instrument{}, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("currency codes must be 3 letters, got %q and %q", from, to))
	}

	return core.Instrument{
		Symbol:   from + to + "=X",
		Kind:     core.KindForex,
		Currency: to,
		Name:     from + " to " + to,
	}, nil
}

func resolveCrypto(pair string) (core.Instrument, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		pair = DefaultCryptoPair
	}

	base := leadingAlpha.FindString(pair)
	quote := trailingAlpha.FindString(pair)
	if base == "" || quote == "" || base == pair {
		return core.Instrument{}, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("crypto pair must look like BASE-QUOTE, got %q", pair))
	}

	return core.Instrument{
		Symbol:   pair,
		Kind:     core.KindCrypto,
		Currency: quote,
		Name:     base + " to " + quote,
	}, nil
}
