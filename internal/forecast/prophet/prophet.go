// Package prophet fits and predicts through a Prophet sidecar service over
// HTTP. The sidecar owns the estimation; this package only ships the
// configuration and history and checks the response shape.
package prophet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/interval"
)

const (
	forecastPath   = "/v1/forecast"
	defaultTimeout = 60 * time.Second
	timeLayout     = "2006-01-02 15:04:05"
)

// Client talks to the sidecar
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// NewClient creates a sidecar client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory returns a forecast.Factory producing sidecar-backed models
func (c *Client) Factory() forecast.Factory {
	return func(cfg forecast.Config) (forecast.Model, error) {
		if c.baseURL == "" {
			return nil, errors.New("prophet sidecar url is not configured")
		}
		return &Model{client: c, cfg: cfg}, nil
	}
}

// Model is one sidecar-backed fit
type Model struct {
	client  *Client
	cfg     forecast.Config
	history []forecast.Sample
}

// Fit keeps the history; the sidecar fits and predicts in one call
func (m *Model) Fit(ctx context.Context, history []forecast.Sample) error {
	if len(history) == 0 {
		return errors.New("empty history")
	}
	m.history = append([]forecast.Sample(nil), history...)
	return nil
}

type row struct {
	DS string  `json:"ds"`
	Y  float64 `json:"y"`
}

type forecastRequest struct {
	Config  forecast.Config `json:"config"`
	History []row           `json:"history"`
	Periods int             `json:"periods"`
	Freq    string          `json:"freq"`
}

type forecastRow struct {
	DS        string  `json:"ds"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

type forecastResponse struct {
	Forecast []forecastRow `json:"forecast"`
	Error    string        `json:"error,omitempty"`
}

// Predict posts history and horizon to the sidecar
func (m *Model) Predict(ctx context.Context, periods int, step interval.StepUnit) (*forecast.Result, error) {
	if m.history == nil {
		return nil, errors.New("model is not fitted")
	}

	freq, err := frequency(step)
	if err != nil {
		return nil, err
	}

	req := forecastRequest{
		Config:  m.cfg,
		History: make([]row, len(m.history)),
		Periods: periods,
		Freq:    freq,
	}
	for i, s := range m.history {
		req.History[i] = row{DS: s.Time.Format(timeLayout), Y: s.Value}
	}

	var resp forecastResponse
	if err := m.client.postJSON(ctx, forecastPath, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: %s", resp.Error)
	}

	res := &forecast.Result{Points: make([]forecast.Point, len(resp.Forecast))}
	for i, r := range resp.Forecast {
		t, err := time.Parse(timeLayout, r.DS)
		if err != nil {
			return nil, fmt.Errorf("parse ds %q: %w", r.DS, err)
		}
		res.Points[i] = forecast.Point{
			Time:      t,
			Yhat:      r.Yhat,
			YhatLower: r.YhatLower,
			YhatUpper: r.YhatUpper,
		}
	}
	return res, nil
}

func frequency(step interval.StepUnit) (string, error) {
	switch step {
	case interval.StepHour:
		return "H", nil
	case interval.StepDay:
		return "D", nil
	default:
		return "", fmt.Errorf("unsupported step unit %q", step)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
