// Package interval maps a sampling interval to its lookback bounds,
// timestamp semantics and forecast eligibility.
//
// Forecasting is enabled for the 60m and 1d codes only. This is a policy
// choice that keeps predictions to short, single-step horizons; the
// forecasting backends could handle the other granularities.
package interval

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/finadict/internal/core"
)

// Code is the provider code of a sampling interval
type Code string

const (
	Code5m  Code = "5m"
	Code15m Code = "15m"
	Code30m Code = "30m"
	Code60m Code = "60m"
	Code1d  Code = "1d"
	Code1wk Code = "1wk"
	Code1mo Code = "1mo"
)

// Field names the timestamp column of a normalized series
type Field string

const (
	FieldDatetime Field = "Datetime"
	FieldDate     Field = "Date"
)

// StepUnit is the native step of a forecast horizon
type StepUnit string

const (
	StepHour StepUnit = "hour"
	StepDay  StepUnit = "day"
)

// Duration returns the wall-clock length of one step
func (s StepUnit) Duration() time.Duration {
	switch s {
	case StepHour:
		return time.Hour
	case StepDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// LookbackUnit is the unit the user picks a lookback length in
type LookbackUnit string

const (
	UnitDay   LookbackUnit = "day"
	UnitMonth LookbackUnit = "month" // 30 days
	UnitYear  LookbackUnit = "year"
)

const minLookback = 2

// Policy is the resolved behaviour of one sampling interval
type Policy struct {
	Code            Code         `json:"code"`
	Alias           string       `json:"alias"`
	TimestampField  Field        `json:"timestamp_field"`
	LookbackUnit    LookbackUnit `json:"lookback_unit"`
	MinLookback     int          `json:"min_lookback"`
	MaxLookback     int          `json:"max_lookback"`
	DefaultLookback int          `json:"default_lookback"`
	ForecastEnabled bool         `json:"forecast_enabled"`
	Horizon         int          `json:"horizon,omitempty"`
	StepUnit        StepUnit     `json:"step_unit,omitempty"`
	// DeltaLabel is the time reference of the next-step delta ("since today").
	DeltaLabel string `json:"delta_label,omitempty"`
}

// Intraday reports whether timestamps carry a time of day
func (p Policy) Intraday() bool {
	return p.TimestampField == FieldDatetime
}

// LookbackRange returns the selectable lookback bounds and the default
func (p Policy) LookbackRange() (min, max, def int) {
	return p.MinLookback, p.MaxLookback, p.DefaultLookback
}

// Clamp bounds a requested lookback to the policy limits. Zero or negative
// values select the default lookback.
func (p Policy) Clamp(n int) int {
	if n <= 0 {
		return p.DefaultLookback
	}
	if n < p.MinLookback {
		return p.MinLookback
	}
	if n > p.MaxLookback {
		return p.MaxLookback
	}
	return n
}

// DefaultLookbackFor returns the default lookback for a market kind.
// Crypto trades around the clock, so hourly crypto series get a longer
// default window.
func (p Policy) DefaultLookbackFor(kind core.MarketKind) int {
	if p.Code == Code60m && kind == core.KindCrypto {
		return p.Clamp(25)
	}
	return p.DefaultLookback
}

// Period renders the provider period string for n lookback units
func (p Policy) Period(n int) string {
	n = p.Clamp(n)
	switch p.LookbackUnit {
	case UnitMonth:
		return fmt.Sprintf("%dd", n*30)
	case UnitYear:
		return fmt.Sprintf("%dy", n)
	default:
		return fmt.Sprintf("%dd", n)
	}
}

// Window returns the [start, end] time range covered by n lookback units
func (p Policy) Window(n int, now time.Time) (time.Time, time.Time) {
	n = p.Clamp(n)
	switch p.LookbackUnit {
	case UnitMonth:
		return now.AddDate(0, 0, -30*n), now
	case UnitYear:
		return now.AddDate(-n, 0, 0), now
	default:
		return now.AddDate(0, 0, -n), now
	}
}

// Limits are the configurable maximum lookbacks. IntradayDays is dictated
// by the provider's intraday retention window and is passed through as is.
type Limits struct {
	IntradayDays int
	DailyMonths  int
	LongYears    int
}

// DefaultLimits mirrors the Yahoo retention window and the original UI bounds.
var DefaultLimits = Limits{
	IntradayDays: 60,
	DailyMonths:  12,
	LongYears:    20,
}

// Table is the lookup table of interval policies
type Table struct {
	policies map[Code]Policy
	order    []Code
}

// NewTable builds the policy table from lookback limits
func NewTable(l Limits) *Table {
	if l.IntradayDays < minLookback {
		l.IntradayDays = DefaultLimits.IntradayDays
	}
	if l.DailyMonths < minLookback {
		l.DailyMonths = DefaultLimits.DailyMonths
	}
	if l.LongYears < minLookback {
		l.LongYears = DefaultLimits.LongYears
	}

	intraday := func(code Code, alias string) Policy {
		return Policy{
			Code:            code,
			Alias:           alias,
			TimestampField:  FieldDatetime,
			LookbackUnit:    UnitDay,
			MinLookback:     minLookback,
			MaxLookback:     l.IntradayDays,
			DefaultLookback: min(15, l.IntradayDays),
		}
	}
	long := func(code Code, alias string) Policy {
		return Policy{
			Code:            code,
			Alias:           alias,
			TimestampField:  FieldDate,
			LookbackUnit:    UnitYear,
			MinLookback:     minLookback,
			MaxLookback:     l.LongYears,
			DefaultLookback: min(15, l.LongYears),
		}
	}

	hourly := intraday(Code60m, "1 hour")
	hourly.ForecastEnabled = true
	hourly.Horizon = 1
	hourly.StepUnit = StepHour
	hourly.DeltaLabel = "since last hour"

	daily := Policy{
		Code:            Code1d,
		Alias:           "1 day",
		TimestampField:  FieldDate,
		LookbackUnit:    UnitMonth,
		MinLookback:     minLookback,
		MaxLookback:     l.DailyMonths,
		DefaultLookback: min(4, l.DailyMonths),
		ForecastEnabled: true,
		Horizon:         1,
		StepUnit:        StepDay,
		DeltaLabel:      "since today",
	}

	all := []Policy{
		intraday(Code5m, "5 mins"),
		intraday(Code15m, "15 mins"),
		intraday(Code30m, "30 mins"),
		hourly,
		daily,
		long(Code1wk, "1 week"),
		long(Code1mo, "1 month"),
	}

	t := &Table{policies: make(map[Code]Policy, len(all))}
	for _, p := range all {
		t.policies[p.Code] = p
		t.order = append(t.order, p.Code)
	}
	return t
}

// Resolve looks up a policy by code ("60m") or alias ("1 hour")
func (t *Table) Resolve(alias string) (Policy, error) {
	key := strings.TrimSpace(alias)
	if p, ok := t.policies[Code(strings.ToLower(key))]; ok {
		return p, nil
	}
	for _, code := range t.order {
		if p := t.policies[code]; strings.EqualFold(p.Alias, key) {
			return p, nil
		}
	}
	return Policy{}, core.WrapError(core.ErrInvalidInterval, fmt.Errorf("interval %q", alias))
}

// All returns the policies from finest to coarsest granularity
func (t *Table) All() []Policy {
	out := make([]Policy, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.policies[code])
	}
	return out
}

var defaultTable = NewTable(DefaultLimits)

// Resolve looks up a policy in the default table
func Resolve(alias string) (Policy, error) {
	return defaultTable.Resolve(alias)
}
