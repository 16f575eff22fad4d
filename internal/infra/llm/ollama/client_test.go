package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

type fakeServer struct {
	tags     func(w http.ResponseWriter)
	generate func(w http.ResponseWriter, req GenerateRequest)
	calls    atomic.Int32
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/tags":
		if f.tags != nil {
			f.tags(w)
			return
		}
		_, _ = io.WriteString(w, `{"models":[{"name":"llama3.2:3b"}]}`)
	case "/api/generate":
		f.calls.Add(1)
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.generate(w, req)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, handler http.Handler, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSummarizeSendsPromptAndOptions(t *testing.T) {
	t.Parallel()

	var captured GenerateRequest
	fake := &fakeServer{generate: func(w http.ResponseWriter, req GenerateRequest) {
		captured = req
		_, _ = io.WriteString(w, `{"model":"llama3.2:3b","response":"Un résumé court.","done":true,"prompt_eval_count":12,"eval_count":5}`)
	}}
	client := newTestClient(t, fake, Config{Model: "llama3.2:3b", Temperature: 0.3, MaxTokens: 500, MaxInputChars: 20})

	res, err := client.Summarize(context.Background(), "Ceci est un texte beaucoup plus long que la limite autorisée.")
	require.NoError(t, err)
	require.Equal(t, "Un résumé court.", res.Text)
	require.Equal(t, "llama3.2:3b", res.Model)
	require.Equal(t, 17, res.Usage.TotalTokens)

	require.False(t, captured.Stream)
	require.Equal(t, "llama3.2:3b", captured.Model)
	require.Contains(t, captured.Prompt, "Ceci est un texte be\n")
	require.NotContains(t, captured.Prompt, "limite autorisée")
	require.InDelta(t, 0.3, captured.Options.Temperature, 0.0001)
	require.Equal(t, 500, captured.Options.NumPredict)
	require.Equal(t, []string{"\n\n\n", "---"}, captured.Options.Stop)
	require.Equal(t, 40, captured.Options.TopK)
	require.InDelta(t, 0.9, captured.Options.TopP, 0.0001)
	require.Equal(t, "ollama", client.Backend())
}

func TestSummarizeHealthCheckFailureSkipsGeneration(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{
		tags: func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
		generate: func(w http.ResponseWriter, req GenerateRequest) {
			_, _ = io.WriteString(w, `{"response":"jamais"}`)
		},
	}
	client := newTestClient(t, fake, Config{})

	_, err := client.Summarize(context.Background(), "texte")
	require.True(t, apperrors.IsCode(err, summarizer.CodeBackendUnavailable))
	require.Zero(t, fake.calls.Load())
}

func TestSummarizeUnreachableServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := NewClient(Config{BaseURL: url, HealthTimeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Summarize(context.Background(), "texte")
	require.True(t, apperrors.IsCode(err, summarizer.CodeBackendUnavailable))
}

func TestSummarizeErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model crashed"}`, code: summarizer.CodeBackendError},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, code: summarizer.CodeBackendAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, code: summarizer.CodeRateLimited},
		{name: "malformed json", status: http.StatusOK, body: `{"response":`, code: summarizer.CodeBackendError},
		{name: "empty response", status: http.StatusOK, body: `{"response":"  "}`, code: summarizer.CodeEmptyResult, message: "empty summary"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeServer{generate: func(w http.ResponseWriter, req GenerateRequest) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}}
			client := newTestClient(t, fake, Config{Model: "llama3.2:3b"})

			_, err := client.Summarize(context.Background(), "texte")
			require.Error(t, err)
			require.Equal(t, tc.code, apperrors.CodeOf(err))
			if tc.message != "" {
				require.Contains(t, apperrors.MessageOf(err), tc.message)
			}
		})
	}
}

func TestSummarizeEmptyResponseListsModels(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{
		tags: func(w http.ResponseWriter) {
			_, _ = io.WriteString(w, `{"models":[{"name":"mistral:7b"},{"name":"phi3:mini"}]}`)
		},
		generate: func(w http.ResponseWriter, req GenerateRequest) {
			_, _ = io.WriteString(w, `{"done":true}`)
		},
	}
	client := newTestClient(t, fake, Config{Model: "llama3.2:3b"})

	_, err := client.Summarize(context.Background(), "texte")
	require.True(t, apperrors.IsCode(err, summarizer.CodeEmptyResult))
	msg := apperrors.MessageOf(err)
	require.Contains(t, msg, "llama3.2:3b is not available")
	require.Contains(t, msg, "mistral:7b, phi3:mini")
}

func TestSummarizeTimeout(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{generate: func(w http.ResponseWriter, req GenerateRequest) {
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, `{"response":"trop tard"}`)
	}}
	client := newTestClient(t, fake, Config{Timeout: 50 * time.Millisecond, HealthTimeout: time.Second})

	_, err := client.Summarize(context.Background(), "texte")
	require.True(t, apperrors.IsCode(err, summarizer.CodeGenerationTimeout))
}

func TestSummarizeCapsInputByDefault(t *testing.T) {
	t.Parallel()

	var captured GenerateRequest
	fake := &fakeServer{generate: func(w http.ResponseWriter, req GenerateRequest) {
		captured = req
		_, _ = io.WriteString(w, `{"response":"Un résumé du long document."}`)
	}}
	client := newTestClient(t, fake, Config{Model: "llama3.2:3b"})

	_, err := client.Summarize(context.Background(), strings.Repeat("b", defaultMaxInputChars)+"FIN-DU-TEXTE")
	require.NoError(t, err)
	require.Contains(t, captured.Prompt, strings.Repeat("b", defaultMaxInputChars))
	require.NotContains(t, captured.Prompt, "FIN-DU-TEXTE")
}

func TestSummarizeHangingHealthCheckFailsWithinHealthTimeout(t *testing.T) {
	t.Parallel()

	var generateCalls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/generate" {
			generateCalls.Add(1)
			_, _ = io.WriteString(w, `{"response":"jamais"}`)
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})
	client := newTestClient(t, handler, Config{HealthTimeout: 200 * time.Millisecond, Timeout: 10 * time.Second})

	start := time.Now()
	_, err := client.Summarize(context.Background(), "texte")
	elapsed := time.Since(start)

	require.True(t, apperrors.IsCode(err, summarizer.CodeBackendUnavailable), "got %v", err)
	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
	require.Zero(t, generateCalls.Load())
}
