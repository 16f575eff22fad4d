package chatgpt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

const encodingName = "cl100k_base"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// defaultMaxInputChars caps the input when neither a token nor a character limit is configured.
const defaultMaxInputChars = 48000

// completer is satisfied by *Client.
type completer interface {
	CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// TokenObserver receives token usage per model.
type TokenObserver interface {
	ObserveTokens(model string, usage metrics.TokenUsage)
}

// GeneratorConfig tunes the chat based summarizer.
type GeneratorConfig struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	MaxInputTokens int
	MaxInputChars  int
}

// Generator adapts the chat completions API to summarizer.Generator.
type Generator struct {
	client   completer
	cfg      GeneratorConfig
	observer TokenObserver
	logger   *slog.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewGenerator wraps client. observer may be nil.
func NewGenerator(client completer, cfg GeneratorConfig, observer TokenObserver, logger *slog.Logger) *Generator {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxInputTokens <= 0 && cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
	}
	return &Generator{
		client:   client,
		cfg:      cfg,
		observer: observer,
		logger:   logger.With("component", "llm.chatgpt"),
	}
}

// Backend names the backend for model info.
func (g *Generator) Backend() string { return backendName }

// Summarize sends the instruction prompt as a single user message.
func (g *Generator) Summarize(ctx context.Context, text string) (summarizer.GenerationResult, error) {
	input := g.truncate(text)
	resp, err := g.client.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []Message{
			{Role: "user", Content: llm.SummaryPrompt(input)},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Stop:        []string{"\n\n\n", "---"},
	})
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return summarizer.GenerationResult{}, err
		}
		return summarizer.GenerationResult{}, apperrors.Wrap(summarizer.CodeBackendError, "openai returned an unreadable response", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return summarizer.GenerationResult{}, apperrors.Wrap(summarizer.CodeEmptyResult, fmt.Sprintf("openai returned an empty summary with model %s", g.cfg.Model), nil)
	}

	model := resp.Model
	if model == "" {
		model = g.cfg.Model
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if g.observer != nil && !usage.IsZero() {
		g.observer.ObserveTokens(model, usage)
	}
	return summarizer.GenerationResult{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: usage,
	}, nil
}

// truncate caps the input by tokens when the encoding is available, by characters otherwise.
func (g *Generator) truncate(text string) string {
	text = strings.TrimSpace(text)
	if g.cfg.MaxInputTokens > 0 {
		if enc := g.encoding(); enc != nil {
			tokens := enc.Encode(text, nil, nil)
			if len(tokens) > g.cfg.MaxInputTokens {
				return enc.Decode(tokens[:g.cfg.MaxInputTokens])
			}
			return text
		}
	}
	return llm.TruncateInput(text, g.cfg.MaxInputChars)
}

func (g *Generator) encoding() *tiktoken.Tiktoken {
	g.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			g.logger.Warn("token encoding unavailable, truncating by characters", "encoding", encodingName, "error", err)
			return
		}
		g.enc = enc
	})
	return g.enc
}

var _ summarizer.Generator = (*Generator)(nil)
