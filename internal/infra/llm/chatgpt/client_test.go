package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

type stubCompleter struct {
	createFn func(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

func (s *stubCompleter) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	return s.createFn(ctx, req)
}

type recordingObserver struct {
	model string
	usage metrics.TokenUsage
}

func (r *recordingObserver) ObserveTokens(model string, usage metrics.TokenUsage) {
	r.model = model
	r.usage = usage
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completion(content string) ChatCompletionResponse {
	var resp ChatCompletionResponse
	_ = json.Unmarshal([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":`+mustJSON(content)+`}}],"usage":{"prompt_tokens":40,"completion_tokens":10,"total_tokens":50}}`), &resp)
	return resp
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestClientCreateChatCompletion(t *testing.T) {
	t.Parallel()

	var captured ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = io.WriteString(w, `{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"Résumé."}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, 0)
	require.NoError(t, err)
	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "bonjour"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "Résumé.", resp.Choices[0].Message.Content)
	require.Equal(t, 5, resp.Usage.TotalTokens)
	require.Equal(t, "bonjour", captured.Messages[0].Content)
}

func TestClientMapsStatusCodes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down"}}`)
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, 0)
	require.NoError(t, err)
	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	require.True(t, apperrors.IsCode(err, summarizer.CodeRateLimited))
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(" ", "", 0)
	require.Error(t, err)
}

func TestGeneratorSummarize(t *testing.T) {
	t.Parallel()

	var captured ChatCompletionRequest
	observer := &recordingObserver{}
	gen := NewGenerator(&stubCompleter{createFn: func(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
		captured = req
		return completion("Le document présente les résultats."), nil
	}}, GeneratorConfig{Model: "gpt-4o-mini", MaxTokens: 300, MaxInputChars: 12}, observer, discardLogger())

	res, err := gen.Summarize(context.Background(), "Un texte source assez long pour être tronqué.")
	require.NoError(t, err)
	require.Equal(t, "Le document présente les résultats.", res.Text)
	require.Equal(t, "gpt-4o-mini", res.Model)
	require.Equal(t, 50, res.Usage.TotalTokens)

	require.Len(t, captured.Messages, 1)
	require.Equal(t, "user", captured.Messages[0].Role)
	require.Contains(t, captured.Messages[0].Content, "\n\nUn texte sou\n\n")
	require.Equal(t, 300, captured.MaxTokens)
	require.Equal(t, "gpt-4o-mini", observer.model)
	require.Equal(t, 40, observer.usage.PromptTokens)
	require.Equal(t, "openai", gen.Backend())
}

func TestGeneratorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp ChatCompletionResponse
		err  error
		code string
	}{
		{name: "no choices", resp: ChatCompletionResponse{}, code: summarizer.CodeEmptyResult},
		{name: "blank content", resp: completion("   "), code: summarizer.CodeEmptyResult},
		{name: "classified error kept", err: apperrors.Wrap(summarizer.CodeBackendAuth, "denied", nil), code: summarizer.CodeBackendAuth},
		{name: "decode error", err: errors.New("decode chat completion: unexpected EOF"), code: summarizer.CodeBackendError},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gen := NewGenerator(&stubCompleter{createFn: func(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
				return tc.resp, tc.err
			}}, GeneratorConfig{}, nil, discardLogger())
			_, err := gen.Summarize(context.Background(), "texte")
			require.Equal(t, tc.code, apperrors.CodeOf(err))
		})
	}
}

func TestGeneratorCapsInputByDefault(t *testing.T) {
	t.Parallel()

	var captured ChatCompletionRequest
	gen := NewGenerator(&stubCompleter{createFn: func(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
		captured = req
		return completion("Un résumé du très long document."), nil
	}}, GeneratorConfig{}, nil, discardLogger())

	_, err := gen.Summarize(context.Background(), strings.Repeat("a", defaultMaxInputChars)+"FIN-DU-TEXTE")
	require.NoError(t, err)
	require.Len(t, captured.Messages, 1)
	require.Contains(t, captured.Messages[0].Content, strings.Repeat("a", defaultMaxInputChars))
	require.NotContains(t, captured.Messages[0].Content, "FIN-DU-TEXTE")
}
