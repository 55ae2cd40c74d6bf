// Package export serializes series and accuracy reports to CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/finadict/internal/accuracy"
	"github.com/newthinker/finadict/internal/series"
)

// ContentType of every export
const ContentType = "text/csv"

// Export kinds used in file names
const (
	KindPrediction = "prediction_data"
	KindRaw        = "raw_data"
)

var predictionHeader = []string{
	"Date",
	"Actual Price",
	"Predicted Price",
	"Accuracy (%)",
	"Predicted Price (Lower)",
	"Predicted Price (Upper)",
}

// FileName returns "<SYMBOL> <kind> <ddmmyyyyHHMMSS>.csv"
func FileName(symbol, kind string, at time.Time) string {
	return fmt.Sprintf("%s %s %s.csv", strings.ToUpper(symbol), kind, at.Format("02012006150405"))
}

// WritePredictions writes the scored points, then the closes that were not
// scored, then the forecast past the last close. Empty cells mark a missing
// actual or a non-numeric accuracy.
func WritePredictions(w io.Writer, r *accuracy.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(predictionHeader); err != nil {
		return err
	}
	rows := make([]accuracy.PointScore, 0, len(r.Points)+len(r.Unscored)+len(r.Future))
	rows = append(rows, r.Points...)
	rows = append(rows, r.Unscored...)
	rows = append(rows, future(r)...)
	for _, p := range rows {
		row := []string{
			p.Timestamp,
			number(p.Actual),
			number(p.Predicted),
			number(p.Accuracy),
			number(p.Lower),
			number(p.Upper),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// future falls back to the next-step fields when the report carries no
// forecast rows of its own
func future(r *accuracy.Report) []accuracy.PointScore {
	if len(r.Future) > 0 || r.NextTimestamp == "" {
		return r.Future
	}
	return []accuracy.PointScore{{
		Timestamp: r.NextTimestamp,
		Actual:    math.NaN(),
		Predicted: r.NextPrice,
		Lower:     r.NextLower,
		Upper:     r.NextUpper,
		Accuracy:  math.NaN(),
	}}
}

// WriteSeries writes the raw bars; the first column is named after the
// series timestamp field.
func WriteSeries(w io.Writer, s *series.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{string(s.TimestampField), "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, b := range s.Bars {
		row := []string{
			b.Timestamp,
			number(b.Open),
			number(b.High),
			number(b.Low),
			number(b.Close),
			number(b.Volume),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Predictions renders WritePredictions into memory
func Predictions(r *accuracy.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePredictions(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Series renders WriteSeries into memory
func Series(s *series.Series) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSeries(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
