// Package huggingface calls the hosted inference summarization pipeline.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

const (
	defaultBaseURL       = "https://api-inference.huggingface.co"
	DefaultModel         = "facebook/bart-large-cnn"
	defaultMaxInputChars = 1024
	backendName          = "huggingface"
)

// Config configures the client.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxLength     int
	MinLength     int
	MaxInputChars int
	Timeout       time.Duration
}

// Parameters mirrors the summarization pipeline parameters.
type Parameters struct {
	MaxLength int  `json:"max_length,omitempty"`
	MinLength int  `json:"min_length,omitempty"`
	DoSample  bool `json:"do_sample"`
}

// Request is the inference payload.
type Request struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// Summary is one element of the pipeline output.
type Summary struct {
	SummaryText string `json:"summary_text"`
}

// Client implements summarizer.Generator against the hosted inference API.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

// NewClient constructs a client. The API key is mandatory.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("huggingface api key cannot be empty")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With("component", "llm.huggingface"),
	}, nil
}

// Backend names the backend for model info.
func (c *Client) Backend() string { return backendName }

// Summarize sends the truncated text to the summarization pipeline.
func (c *Client) Summarize(ctx context.Context, text string) (summarizer.GenerationResult, error) {
	payload := Request{
		Inputs: llm.TruncateInput(text, c.cfg.MaxInputChars),
		Parameters: Parameters{
			MaxLength: c.cfg.MaxLength,
			MinLength: c.cfg.MinLength,
			DoSample:  false,
		},
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/models/" + c.cfg.Model)
	if err != nil {
		return summarizer.GenerationResult{}, llm.TransportError(ctx, backendName, err)
	}
	if resp.IsError() {
		body := resp.Body()
		if len(body) > 4<<10 {
			body = body[:4<<10]
		}
		return summarizer.GenerationResult{}, llm.StatusError(backendName, resp.StatusCode(), string(body))
	}

	var out []Summary
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return summarizer.GenerationResult{}, apperrors.Wrap(summarizer.CodeBackendError, "huggingface returned an unreadable response", fmt.Errorf("decode summarization response: %w", err))
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return summarizer.GenerationResult{}, apperrors.Wrap(summarizer.CodeEmptyResult, fmt.Sprintf("huggingface returned an empty summary with model %s", c.cfg.Model), nil)
	}
	c.logger.Debug("summary received", "model", c.cfg.Model, "latency_ms", resp.Time().Milliseconds())
	return summarizer.GenerationResult{Text: out[0].SummaryText, Model: c.cfg.Model}, nil
}

var _ summarizer.Generator = (*Client)(nil)
