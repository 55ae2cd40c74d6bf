package collector

import (
	"context"
	"time"

	"github.com/newthinker/finadict/internal/core"
)

// Row is one raw provider bar. Nil fields are gaps the provider left empty.
type Row struct {
	Time   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// Meta describes the instrument as reported by the provider
type Meta struct {
	Symbol           string `json:"symbol"`
	Currency         string `json:"currency"`
	ExchangeName     string `json:"exchange_name"`
	ExchangeTimezone string `json:"exchange_timezone"`
	InstrumentType   string `json:"instrument_type"`
	LongName         string `json:"long_name"`
	GMTOffset        int    `json:"gmt_offset"`
}

// History is a raw bar series in exchange-local time
type History struct {
	Meta Meta
	Rows []Row
}

// Collector defines the interface for market data providers
type Collector interface {
	// Metadata
	Name() string
	SupportedKinds() []core.MarketKind

	// Data fetching
	FetchMeta(ctx context.Context, symbol string) (*Meta, error)
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (*History, error)
}
