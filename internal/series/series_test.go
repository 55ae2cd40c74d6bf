package series

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func dailyRows(closes ...*float64) []collector.Row {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]collector.Row, len(closes))
	for i, c := range closes {
		rows[i] = collector.Row{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: ptr(1000),
		}
	}
	return rows
}

func TestStripOffset(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-05-01T09:30:00-05:00", "2023-05-01T09:30:00"},
		{"2023-05-01 09:15:00+05:30", "2023-05-01 09:15:00"},
		{"2023-05-01", "2023-05-01"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripOffset(tt.in), tt.in)
	}
}

func TestNormalize_Daily(t *testing.T) {
	closes := make([]*float64, 12)
	for i := range closes {
		closes[i] = ptr(float64(100 + i))
	}
	inst := core.Instrument{Symbol: "AAPL", Kind: core.KindEquity, Currency: "USD"}

	s, err := Normalize(dailyRows(closes...), interval.FieldDate, inst, interval.Code1d)
	require.NoError(t, err)

	assert.Equal(t, 12, s.Len())
	assert.Equal(t, "2024-01-01", s.Bars[0].Timestamp)
	assert.Equal(t, "2024-01-12", s.Last().Timestamp)
	assert.Equal(t, interval.FieldDate, s.TimestampField)
	assert.Equal(t, 111.0, s.Last().Close)
	assert.Equal(t, inst, s.Instrument)
}

func TestNormalize_IntradayStripsOffset(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	start := time.Date(2023, 5, 1, 9, 30, 0, 0, loc)
	rows := make([]collector.Row, 11)
	for i := range rows {
		rows[i] = collector.Row{Time: start.Add(time.Duration(i) * time.Hour), Close: ptr(10), Open: ptr(10), High: ptr(10), Low: ptr(10)}
	}

	s, err := Normalize(rows, interval.FieldDatetime, core.Instrument{Symbol: "AAPL"}, interval.Code60m)
	require.NoError(t, err)

	assert.Equal(t, "2023-05-01 09:30:00", s.Bars[0].Timestamp)
	assert.Equal(t, "2023-05-01 19:30:00", s.Last().Timestamp)
}

func TestNormalize_FillsGaps(t *testing.T) {
	closes := []*float64{nil, nil, ptr(10), nil, ptr(12), nil, nil, ptr(15), ptr(16), ptr(17), nil}
	s, err := Normalize(dailyRows(closes...), interval.FieldDate, core.Instrument{}, interval.Code1d)
	require.NoError(t, err)

	assert.Equal(t, 11, s.Len(), "slots are filled, never dropped")
	assert.Equal(t, []float64{10, 10, 10, 10, 12, 12, 12, 15, 16, 17, 17}, s.Closes())
}

func TestNormalize_EmptyVolumeBecomesZero(t *testing.T) {
	rows := dailyRows(ptr(1), ptr(2), ptr(3), ptr(4), ptr(5), ptr(6), ptr(7), ptr(8), ptr(9), ptr(10), ptr(11))
	for i := range rows {
		rows[i].Volume = nil
	}

	s, err := Normalize(rows, interval.FieldDate, core.Instrument{}, interval.Code1d)
	require.NoError(t, err)
	assert.Zero(t, s.Bars[5].Volume)
}

func TestNormalize_RejectsShortSeries(t *testing.T) {
	for _, n := range []int{0, 1, 10} {
		closes := make([]*float64, n)
		for i := range closes {
			closes[i] = ptr(1)
		}
		_, err := Normalize(dailyRows(closes...), interval.FieldDate, core.Instrument{}, interval.Code1d)
		require.Error(t, err, "n=%d", n)
		assert.True(t, errors.Is(err, core.ErrInsufficientData), "n=%d: %v", n, err)
	}
}

func TestNormalize_RejectsEmptyPriceColumn(t *testing.T) {
	closes := make([]*float64, 12)
	_, err := Normalize(dailyRows(closes...), interval.FieldDate, core.Instrument{}, interval.Code1d)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestSeries_Accessors(t *testing.T) {
	s := &Series{Bars: []core.Bar{
		{Timestamp: "2024-01-01", Close: 1},
		{Timestamp: "2024-01-02", Close: 2},
	}}
	assert.Equal(t, []float64{1, 2}, s.Closes())
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, s.Timestamps())
	assert.ErrorIs(t, s.Validate(), core.ErrInsufficientData)
}
