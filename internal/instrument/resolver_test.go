package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMeta struct {
	meta    *collector.Meta
	err     error
	symbols []string
}

func (s *stubMeta) FetchMeta(ctx context.Context, symbol string) (*collector.Meta, error) {
	s.symbols = append(s.symbols, symbol)
	if s.err != nil {
		return nil, s.err
	}
	return s.meta, nil
}

func TestResolve_Equity(t *testing.T) {
	stub := &stubMeta{meta: &collector.Meta{Currency: "INR", LongName: "Tata Consultancy", ExchangeTimezone: "Asia/Kolkata"}}
	r := NewResolver(stub, nil)

	inst, err := r.Resolve(context.Background(), Request{Kind: core.KindEquity, Symbol: " tcs.ns "})
	require.NoError(t, err)

	assert.Equal(t, "TCS.NS", inst.Symbol)
	assert.Equal(t, "INR", inst.Currency)
	assert.Equal(t, "IN", inst.Country)
	assert.Equal(t, "Tata Consultancy", inst.Name)
	assert.Equal(t, []string{"TCS.NS"}, stub.symbols)
}

func TestResolve_EquityDefaultSymbol(t *testing.T) {
	stub := &stubMeta{meta: &collector.Meta{Currency: "INR"}}
	inst, err := NewResolver(stub, nil).Resolve(context.Background(), Request{Kind: core.KindEquity})
	require.NoError(t, err)
	assert.Equal(t, DefaultEquity, inst.Symbol)
}

func TestResolve_EquityUnknownCountrySkipsHolidays(t *testing.T) {
	stub := &stubMeta{meta: &collector.Meta{Currency: "EUR", ExchangeTimezone: "Europe/Vilnius"}}
	inst, err := NewResolver(stub, nil).Resolve(context.Background(), Request{Kind: core.KindEquity, Symbol: "XYZ"})
	require.NoError(t, err)
	assert.False(t, inst.HasCountry())
}

func TestResolve_EquityLookupFailure(t *testing.T) {
	stub := &stubMeta{err: core.WrapError(core.ErrSymbolNotFound, errors.New("404"))}
	_, err := NewResolver(stub, nil).Resolve(context.Background(), Request{Kind: core.KindEquity, Symbol: "NOPE"})
	assert.ErrorIs(t, err, core.ErrSymbolNotFound)
}

func TestResolve_Forex(t *testing.T) {
	stub := &stubMeta{}
	r := NewResolver(stub, nil)

	inst, err := r.Resolve(context.Background(), Request{Kind: core.KindForex, From: "eur", To: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "EURUSD=X", inst.Symbol)
	assert.Equal(t, "USD", inst.Currency)
	assert.False(t, inst.HasCountry())
	assert.Empty(t, stub.symbols, "forex needs no provider lookup")

	inst, err = r.Resolve(context.Background(), Request{Kind: core.KindForex})
	require.NoError(t, err)
	assert.Equal(t, "USDINR=X", inst.Symbol)
	assert.Equal(t, "INR", inst.Currency)
}

func TestResolve_ForexInvalid(t *testing.T) {
	_, err := NewResolver(&stubMeta{}, nil).Resolve(context.Background(), Request{Kind: core.KindForex, From: "DOLLAR", To: "INR"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolve_Crypto(t *testing.T) {
	tests := []struct {
		input    string
		symbol   string
		currency string
		wantErr  bool
	}{
		{"btc-inr", "BTC-INR", "INR", false},
		{"ETH-USD", "ETH-USD", "USD", false},
		{"", "BTC-INR", "INR", false},
		{"BTCINR", "", "", true},
		{"BTC-", "", "", true},
	}

	r := NewResolver(&stubMeta{}, nil)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			inst, err := r.Resolve(context.Background(), Request{Kind: core.KindCrypto, Symbol: tt.input})
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, inst.Symbol)
			assert.Equal(t, tt.currency, inst.Currency)
			assert.Empty(t, inst.Country)
		})
	}
}

func TestResolve_UnknownKind(t *testing.T) {
	_, err := NewResolver(&stubMeta{}, nil).Resolve(context.Background(), Request{Kind: "bonds"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		symbol string
		zone   string
		want   string
		ok     bool
	}{
		{"TCS.NS", "", "IN", true},
		{"VOD.L", "", "GB", true},
		{"AAPL", "America/New_York", "US", true},
		{"0700.HK", "Asia/Hong_Kong", "HK", true},
		{"XYZ", "", "", false},
		{"ABC.", "", "", false},
	}
	for _, tt := range tests {
		got, ok := CountryCode(tt.symbol, tt.zone)
		assert.Equal(t, tt.ok, ok, tt.symbol)
		assert.Equal(t, tt.want, got, tt.symbol)
	}
}
