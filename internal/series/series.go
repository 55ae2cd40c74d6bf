// Package series turns raw provider bars into a canonical, gap-free,
// time-ordered price series.
package series

import (
	"fmt"
	"math"
	"regexp"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/interval"
)

// MinBars is the smallest series length a seasonal model is fit on.
const MinBars = 11

const (
	intradayLayout = "2006-01-02 15:04:05-07:00"
	dateLayout     = "2006-01-02"
)

var offsetSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

// Series is an ordered, gap-free bar sequence
type Series struct {
	Instrument     core.Instrument `json:"instrument"`
	Interval       interval.Code   `json:"interval"`
	TimestampField interval.Field  `json:"timestamp_field"`
	Bars           []core.Bar      `json:"bars"`
}

// Len returns the number of bars
func (s *Series) Len() int {
	return len(s.Bars)
}

// Closes returns the closing prices in order
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Timestamps returns the canonical timestamps in order
func (s *Series) Timestamps() []string {
	out := make([]string, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Timestamp
	}
	return out
}

// Last returns the most recent bar
func (s *Series) Last() core.Bar {
	return s.Bars[len(s.Bars)-1]
}

// Validate checks the length invariant
func (s *Series) Validate() error {
	if len(s.Bars) < MinBars {
		return core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("series has %d bars, need more than %d", len(s.Bars), MinBars-1))
	}
	return nil
}

// StripOffset removes the trailing 6-character UTC offset ("-05:00") that
// the provider appends to intraday timestamps. Strings without an offset
// suffix are returned unchanged.
func StripOffset(ts string) string {
	if !offsetSuffix.MatchString(ts) {
		return ts
	}
	return ts[:len(ts)-6]
}

// Normalize converts raw rows into a Series. Steps run in order: explicit
// timestamp column, canonical string form, offset strip for intraday
// fields, forward-fill then backward-fill of missing values, length check.
func Normalize(rows []collector.Row, field interval.Field, inst core.Instrument, code interval.Code) (*Series, error) {
	bars := make([]core.Bar, len(rows))
	cols := newColumns(len(rows))

	for i, r := range rows {
		var ts string
		if field == interval.FieldDatetime {
			ts = StripOffset(r.Time.Format(intradayLayout))
		} else {
			ts = r.Time.Format(dateLayout)
		}
		bars[i].Timestamp = ts

		cols.open[i] = valid(r.Open)
		cols.high[i] = valid(r.High)
		cols.low[i] = valid(r.Low)
		cols.close[i] = valid(r.Close)
		cols.volume[i] = valid(r.Volume)
	}

	for name, col := range cols.prices() {
		if !fill(col) && len(rows) > 0 {
			return nil, core.WrapError(core.ErrInsufficientData, fmt.Errorf("%s column has no values", name))
		}
	}
	// Volume is informational; an empty column becomes zeros.
	if !fill(cols.volume) {
		for i := range cols.volume {
			zero := 0.0
			cols.volume[i] = &zero
		}
	}

	for i := range bars {
		bars[i].Open = *cols.open[i]
		bars[i].High = *cols.high[i]
		bars[i].Low = *cols.low[i]
		bars[i].Close = *cols.close[i]
		bars[i].Volume = *cols.volume[i]
	}

	s := &Series{
		Instrument:     inst,
		Interval:       code,
		TimestampField: field,
		Bars:           bars,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type columns struct {
	open, high, low, close, volume []*float64
}

func newColumns(n int) columns {
	return columns{
		open:   make([]*float64, n),
		high:   make([]*float64, n),
		low:    make([]*float64, n),
		close:  make([]*float64, n),
		volume: make([]*float64, n),
	}
}

func (c columns) prices() map[string][]*float64 {
	return map[string][]*float64{
		"open":  c.open,
		"high":  c.high,
		"low":   c.low,
		"close": c.close,
	}
}

func valid(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// fill forward-fills from the previous value, then backward-fills leading
// holes. It reports false when the column holds no value at all.
func fill(col []*float64) bool {
	var last *float64
	for i := range col {
		if col[i] == nil {
			col[i] = last
		} else {
			last = col[i]
		}
	}
	if last == nil {
		return false
	}

	var next *float64
	for i := len(col) - 1; i >= 0; i-- {
		if col[i] == nil {
			col[i] = next
		} else {
			next = col[i]
		}
	}
	return true
}
