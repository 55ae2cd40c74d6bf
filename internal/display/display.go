// Package display renders prices, percentages and the two headline
// indicators shown alongside a forecast.
package display

import (
	"fmt"
	"math"

	"github.com/newthinker/finadict/internal/accuracy"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/series"
	"github.com/shopspring/decimal"
)

// Unavailable is shown in place of any non-numeric value
const Unavailable = "unavailable"

var ninetyNine = decimal.NewFromInt(99)

// Indicator is a labelled value with a signed delta
type Indicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta"`
}

// RoundPrice rounds half away from zero to 4 places, then to 2 places when
// the 4-place magnitude exceeds 99. Non-finite values pass through.
func RoundPrice(v float64) float64 {
	if !finite(v) {
		return v
	}
	f, _ := round(v).Float64()
	return f
}

func round(v float64) decimal.Decimal {
	d := decimal.NewFromFloat(v).Round(4)
	if d.Abs().GreaterThan(ninetyNine) {
		d = d.Round(2)
	}
	return d
}

// FormatPrice renders "150.12 INR"; the currency is omitted when empty
func FormatPrice(v float64, currency string) string {
	if !finite(v) {
		return Unavailable
	}
	s := round(v).String()
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatPercent renders a rounded percentage with two decimals ("95.12%")
func FormatPercent(v float64) string {
	if !finite(v) {
		return Unavailable
	}
	return round(v).StringFixed(2) + "%"
}

// FormatDelta renders a signed percentage with its time reference
// ("+1.01% since today")
func FormatDelta(pct float64, label string) string {
	if !finite(pct) {
		return Unavailable
	}
	d := round(pct)
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return fmt.Sprintf("%s%s%% %s", sign, d.StringFixed(2), label)
}

// LatestClose is the most recent close with its change from the prior bar
func LatestClose(s *series.Series, policy interval.Policy) Indicator {
	label, ref := "Latest Closing Price", "since last time"
	if policy.Code == interval.Code1d {
		label, ref = "Today's Closing Price", "since yesterday"
	}

	ind := Indicator{Label: label, Value: Unavailable, Delta: Unavailable}
	if s.Len() == 0 {
		return ind
	}

	last := s.Last().Close
	ind.Value = FormatPrice(last, s.Instrument.Currency)
	if s.Len() > 1 {
		prev := s.Bars[s.Len()-2].Close
		ind.Delta = FormatDelta(change(RoundPrice(last), RoundPrice(prev)), ref)
	}
	return ind
}

// PredictedPrice is the next-step forecast with confidence and delta
func PredictedPrice(r *accuracy.Report, currency string, policy interval.Policy) Indicator {
	head := "Next Closing Price"
	switch policy.Code {
	case interval.Code1d:
		head = "Tomorrow's Closing Price"
	case interval.Code60m:
		head = "Next Hour's Closing Price"
	}

	return Indicator{
		Label: fmt.Sprintf("%s (confidence: %s)", head, FormatPercent(r.Confidence)),
		Value: FormatPrice(r.NextPrice, currency),
		Delta: FormatDelta(change(RoundPrice(r.NextPrice), RoundPrice(r.LastActual)), r.DeltaLabel),
	}
}

func change(now, before float64) float64 {
	if before == 0 {
		return math.NaN()
	}
	return (now - before) / before * 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
