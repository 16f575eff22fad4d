// Package ollama talks to a local Ollama-compatible server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

const (
	defaultBaseURL       = "http://localhost:11434"
	DefaultModel         = "llama3.2:3b"
	defaultTimeout       = 60 * time.Second
	defaultHealthTimeout = 5 * time.Second
	backendName          = "ollama"
)

// defaultMaxInputChars keeps the prompt around 4k tokens.
const defaultMaxInputChars = 16000

// Config configures the client.
type Config struct {
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	Timeout       time.Duration
	HealthTimeout time.Duration
	MaxInputChars int
}

// Options mirrors the sampling options of /api/generate.
type Options struct {
	Temperature float32  `json:"temperature"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	TopP        float32  `json:"top_p,omitempty"`
}

// GenerateRequest is the payload of /api/generate.
type GenerateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

// GenerateResponse captures the non streaming answer.
type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Model is one entry of /api/tags.
type Model struct {
	Name string `json:"name"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

// Client implements summarizer.Generator against Ollama.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs an Ollama client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaultHealthTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "llm.ollama"),
	}
}

// Backend names the backend for model info.
func (c *Client) Backend() string { return backendName }

// Summarize checks the server is up then requests a single non streaming completion.
func (c *Client) Summarize(ctx context.Context, text string) (summarizer.GenerationResult, error) {
	if err := c.checkHealth(ctx); err != nil {
		return summarizer.GenerationResult{}, err
	}

	req := GenerateRequest{
		Model:  c.cfg.Model,
		Prompt: llm.SummaryPrompt(llm.TruncateInput(text, c.cfg.MaxInputChars)),
		Stream: false,
		Options: Options{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
			Stop:        []string{"\n\n\n", "---"},
			TopK:        40,
			TopP:        0.9,
		},
	}
	c.logger.Debug("requesting summary", "model", req.Model, "prompt_chars", len([]rune(req.Prompt)))

	body, err := c.post(ctx, "/api/generate", req)
	if err != nil {
		return summarizer.GenerationResult{}, err
	}
	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return summarizer.GenerationResult{}, apperrors.Wrap(summarizer.CodeBackendError, "ollama returned an unreadable response", fmt.Errorf("decode generate response: %w", err))
	}
	if strings.TrimSpace(out.Response) == "" {
		return summarizer.GenerationResult{}, c.emptyResult(ctx)
	}

	model := out.Model
	if model == "" {
		model = c.cfg.Model
	}
	return summarizer.GenerationResult{
		Text:  out.Response,
		Model: model,
		Usage: metrics.TokenUsage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

// Models lists the models installed on the server.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	body, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags.Models, nil
}

func (c *Client) checkHealth(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()
	if _, err := c.get(healthCtx, "/api/tags"); err != nil {
		c.logger.Warn("ollama health check failed", "base_url", c.cfg.BaseURL, "error", err)
		return apperrors.Wrap(summarizer.CodeBackendUnavailable, "ollama is not reachable, make sure it is running", err)
	}
	return nil
}

func (c *Client) emptyResult(ctx context.Context) error {
	models, err := c.Models(ctx)
	if err != nil || len(models) == 0 {
		return apperrors.Wrap(summarizer.CodeEmptyResult, "ollama returned an empty summary", err)
	}
	names := make([]string, 0, len(models))
	found := false
	for _, m := range models {
		names = append(names, m.Name)
		if m.Name == c.cfg.Model {
			found = true
		}
	}
	if !found {
		return apperrors.Wrap(summarizer.CodeEmptyResult, fmt.Sprintf("model %s is not available, installed models: %s", c.cfg.Model, strings.Join(names, ", ")), nil)
	}
	return apperrors.Wrap(summarizer.CodeEmptyResult, fmt.Sprintf("ollama returned an empty summary with model %s", c.cfg.Model), nil)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	return c.do(ctx, httpReq)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(ctx, httpReq)
}

func (c *Client) do(ctx context.Context, httpReq *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(ctx, backendName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, llm.StatusError(backendName, resp.StatusCode, errorMessage(payload))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.TransportError(ctx, backendName, err)
	}
	return body, nil
}

// errorMessage extracts {"error": "..."} when Ollama provides one.
func errorMessage(payload []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return string(payload)
}

var _ summarizer.Generator = (*Client)(nil)
