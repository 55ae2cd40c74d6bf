// internal/api/handler/api/predictions.go
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/finadict/internal/api/response"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/export"
	"github.com/newthinker/finadict/internal/instrument"
	"github.com/newthinker/finadict/internal/pipeline"
	"go.uber.org/zap"
)

// Predictor runs one prediction request end to end.
type Predictor interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// PredictionRequest is the JSON body of the prediction endpoints.
type PredictionRequest struct {
	Market   string `json:"market" default:"equity" validate:"required,max=16"`
	Symbol   string `json:"symbol" validate:"max=32"`
	From     string `json:"from" validate:"omitempty,len=3,alpha"`
	To       string `json:"to" validate:"omitempty,len=3,alpha"`
	Interval string `json:"interval" default:"1d" validate:"required,max=16"`
	Lookback int    `json:"lookback" validate:"gte=0,lte=1000"`
}

func (p PredictionRequest) toPipeline() (pipeline.Request, error) {
	kind, err := core.ParseMarketKind(p.Market)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Instrument: instrument.Request{
			Kind:   kind,
			Symbol: p.Symbol,
			From:   p.From,
			To:     p.To,
		},
		Interval: p.Interval,
		Lookback: p.Lookback,
	}, nil
}

// Export kinds accepted in the ?kind= query parameter
const (
	exportPrediction = "prediction"
	exportRaw        = "raw"
)

// PredictionHandler serves prediction and CSV export requests.
type PredictionHandler struct {
	predictor Predictor
	logger    *zap.Logger
	now       func() time.Time
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(predictor Predictor, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{predictor: predictor, logger: logger, now: time.Now}
}

// Predict runs the pipeline and returns the full outcome.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	out, ok := h.run(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, out)
}

// Export runs the pipeline and returns a CSV attachment. kind=prediction
// (default) exports the scored points, kind=raw the bars.
func (h *PredictionHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = exportPrediction
	}
	if kind != exportPrediction && kind != exportRaw {
		response.Invalid(w, []response.FieldError{{
			Field:   "kind",
			Rule:    "oneof",
			Message: "kind must be one of: prediction, raw",
		}})
		return
	}

	out, ok := h.run(w, r)
	if !ok {
		return
	}

	var (
		data     []byte
		fileKind string
		err      error
	)
	switch kind {
	case exportRaw:
		fileKind = export.KindRaw
		data, err = export.Series(out.Series)
	default:
		if out.ViewOnly() {
			response.Fail(w, core.WrapError(core.ErrInvalidInput,
				fmt.Errorf("interval %s has no forecast to export", out.Policy.Code)))
			return
		}
		fileKind = export.KindPrediction
		data, err = export.Predictions(out.Report)
	}
	if err != nil {
		h.logger.Error("rendering export", zap.String("symbol", out.Instrument.Symbol), zap.Error(err))
		response.Fail(w, err)
		return
	}

	name := export.FileName(out.Instrument.Symbol, fileKind, h.now())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	bytes.NewReader(data).WriteTo(w)
}

func (h *PredictionHandler) run(w http.ResponseWriter, r *http.Request) (*pipeline.Outcome, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("method %s not allowed", r.Method)))
		return nil, false
	}

	var body PredictionRequest
	if fields := readRequest(r, &body); fields != nil {
		response.Invalid(w, fields)
		return nil, false
	}

	req, err := body.toPipeline()
	if err != nil {
		response.Fail(w, err)
		return nil, false
	}

	out, err := h.predictor.Run(r.Context(), req)
	if err != nil {
		h.logger.Warn("prediction request failed",
			zap.String("market", body.Market),
			zap.String("symbol", body.Symbol),
			zap.String("interval", body.Interval),
			zap.Error(err))
		response.Fail(w, err)
		return nil, false
	}
	return out, true
}
