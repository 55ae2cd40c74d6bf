package core

import (
	"fmt"
	"strings"
)

// MarketKind represents the kind of market an instrument trades on
type MarketKind string

const (
	KindEquity MarketKind = "equity"
	KindForex  MarketKind = "forex"
	KindCrypto MarketKind = "crypto"
)

// ParseMarketKind converts user input ("Stocks", "forex", ...) to a MarketKind
func ParseMarketKind(s string) (MarketKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "stock", "stocks":
		return KindEquity, nil
	case "forex", "fx", "currency":
		return KindForex, nil
	case "crypto", "cryptocurrency":
		return KindCrypto, nil
	default:
		return "", WrapError(ErrInvalidInput, fmt.Errorf("unknown market kind %q", s))
	}
}

// Instrument is a tradable symbol resolved from user input.
// Country is the ISO alpha-2 code of the listing country; only equities carry one.
type Instrument struct {
	Symbol   string     `json:"symbol"`
	Kind     MarketKind `json:"kind"`
	Currency string     `json:"currency"`
	Country  string     `json:"country,omitempty"`
	Name     string     `json:"name,omitempty"`
}

// HasCountry reports whether a country context is available
func (i Instrument) HasCountry() bool {
	return i.Country != ""
}

// Bar represents one OHLC observation with a canonical timestamp
type Bar struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}
