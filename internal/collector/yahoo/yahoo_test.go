package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "TCS.NS",
        "currency": "inr",
        "exchangeName": "NSI",
        "instrumentType": "EQUITY",
        "timezone": "IST",
        "exchangeTimezoneName": "Asia/Kolkata",
        "gmtoffset": 19800,
        "longName": "Tata Consultancy Services Limited"
      },
      "timestamp": [1700000000, 1700003600, 1700007200],
      "indicators": {
        "quote": [{
          "open":   [10.0, null, 12.0],
          "high":   [11.0, null, 13.0],
          "low":    [9.0,  null, 11.5],
          "close":  [10.5, null, 12.5],
          "volume": [100,  null, 300]
        }]
      }
    }],
    "error": null
  }
}`

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New()
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_SupportedKinds(t *testing.T) {
	kinds := New().SupportedKinds()
	if len(kinds) != 3 {
		t.Errorf("expected equity, forex and crypto, got %v", kinds)
	}
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		valid  bool
	}{
		{"AAPL", true},
		{"TCS.NS", true},
		{"USDINR=X", true},
		{"BTC-INR", true},
		{"^NSEI", true},
		{"", false},
		{"DROP TABLE", false},
		{"../etc/passwd", false},
		{strings.Repeat("A", 30), false},
	}

	for _, tt := range tests {
		err := validateSymbol(tt.symbol)
		if (err == nil) != tt.valid {
			t.Errorf("validateSymbol(%q) error = %v, want valid=%v", tt.symbol, err, tt.valid)
		}
		if err != nil && !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("validateSymbol(%q) should return ErrInvalidInput, got %v", tt.symbol, err)
		}
	}
}

func TestYahoo_FetchHistory(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/v8/finance/chart/TCS.NS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	y := New(WithBaseURL(srv.URL))
	start := time.Unix(1699990000, 0)
	end := time.Unix(1700010000, 0)

	h, err := y.FetchHistory(context.Background(), "TCS.NS", start, end, "60m")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}

	if !strings.Contains(gotQuery, "interval=60m") || !strings.Contains(gotQuery, "period1=1699990000") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(h.Rows) != 3 {
		t.Fatalf("expected 3 rows including the gap, got %d", len(h.Rows))
	}
	if h.Rows[1].Close != nil {
		t.Error("gap row should keep nil close")
	}
	if *h.Rows[2].Close != 12.5 {
		t.Errorf("expected close 12.5, got %v", *h.Rows[2].Close)
	}
	if h.Meta.Currency != "INR" {
		t.Errorf("expected upper-cased currency INR, got %s", h.Meta.Currency)
	}
	if _, offset := h.Rows[0].Time.Zone(); offset != 19800 {
		t.Errorf("expected exchange-local offset 19800, got %d", offset)
	}
}

func TestYahoo_FetchHistory_InvalidInterval(t *testing.T) {
	y := New()
	_, err := y.FetchHistory(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now(), "2h")
	if !errors.Is(err, core.ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestYahoo_FetchMeta_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).FetchMeta(context.Background(), "NOPE")
	if !errors.Is(err, core.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestYahoo_FetchMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") != "1d" {
			t.Errorf("expected range=1d, got %q", r.URL.Query().Get("range"))
		}
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	meta, err := New(WithBaseURL(srv.URL)).FetchMeta(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("FetchMeta: %v", err)
	}
	if meta.LongName != "Tata Consultancy Services Limited" {
		t.Errorf("unexpected name %q", meta.LongName)
	}
	if meta.ExchangeTimezone != "Asia/Kolkata" {
		t.Errorf("unexpected timezone %q", meta.ExchangeTimezone)
	}
}

func TestYahoo_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).FetchMeta(context.Background(), "AAPL")
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("expected ErrCollectorFailed, got %v", err)
	}
}

func TestChartMeta_LocationFallback(t *testing.T) {
	m := chartMeta{Timezone: "XYZ", ExchangeTimezoneName: "Not/AZone", GMTOffset: -18000}
	_, offset := time.Unix(0, 0).In(m.location()).Zone()
	if offset != -18000 {
		t.Errorf("expected fixed offset fallback, got %d", offset)
	}
}

func TestYahoo_Endpoint(t *testing.T) {
	q := url.Values{"interval": {"1d"}}
	want := "https://query1.finance.yahoo.com/v8/finance/chart/TCS.NS?interval=1d"

	tests := []struct {
		name string
		opts []Option
	}{
		{"default", nil},
		{"host", []Option{WithBaseURL("https://query1.finance.yahoo.com")}},
		{"host with slash", []Option{WithBaseURL("https://query1.finance.yahoo.com/")}},
		{"full chart url", []Option{WithBaseURL("https://query1.finance.yahoo.com/v8/finance/chart")}},
		{"empty keeps default", []Option{WithBaseURL("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.opts...).endpoint("TCS.NS", q); got != want {
				t.Errorf("endpoint = %q, want %q", got, want)
			}
		})
	}
}
