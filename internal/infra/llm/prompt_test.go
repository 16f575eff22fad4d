package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

func TestSummaryPromptForbidsMarkdown(t *testing.T) {
	t.Parallel()

	prompt := SummaryPrompt("Le contenu du document.")
	require.True(t, strings.HasPrefix(prompt, "IMPORTANT: Réponds UNIQUEMENT en français"))
	require.Contains(t, prompt, "sans formatage Markdown")
	require.Contains(t, prompt, "\n\nLe contenu du document.\n\n")
	require.True(t, strings.HasSuffix(prompt, "Résumé simple en français :"))
}

func TestTruncateInputKeepsPrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, "éèà", TruncateInput("  éèàù  ", 3))
	require.Equal(t, "abc", TruncateInput("abc", 10))
	require.Equal(t, "abc", TruncateInput(" abc ", 0))
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		code   string
	}{
		{status: http.StatusUnauthorized, code: summarizer.CodeBackendAuth},
		{status: http.StatusForbidden, code: summarizer.CodeBackendAuth},
		{status: http.StatusTooManyRequests, code: summarizer.CodeRateLimited},
		{status: http.StatusServiceUnavailable, code: summarizer.CodeBackendUnavailable},
		{status: http.StatusInternalServerError, code: summarizer.CodeBackendError},
		{status: http.StatusBadRequest, code: summarizer.CodeBackendError},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			t.Parallel()
			err := StatusError("ollama", tc.status, "boom")
			require.Equal(t, tc.code, apperrors.CodeOf(err))
			require.NotContains(t, apperrors.MessageOf(err), "boom")
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportErrorClassification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Equal(t, summarizer.CodeGenerationTimeout, apperrors.CodeOf(TransportError(ctx, "ollama", context.DeadlineExceeded)))
	require.Equal(t, summarizer.CodeGenerationTimeout, apperrors.CodeOf(TransportError(ctx, "ollama", fmt.Errorf("do: %w", timeoutErr{}))))
	require.Equal(t, summarizer.CodeBackendUnavailable, apperrors.CodeOf(TransportError(ctx, "ollama", errors.New("connection refused"))))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, summarizer.CodeBackendError, apperrors.CodeOf(TransportError(cancelled, "ollama", context.Canceled)))
}
