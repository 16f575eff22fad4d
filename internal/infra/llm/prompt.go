// Package llm holds the helpers shared by the generation backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/util"
)

const summaryPrompt = `IMPORTANT: Réponds UNIQUEMENT en français en TEXTE SIMPLE sans formatage Markdown (pas de **, *, #, etc.).

Résume ce texte de façon concise en français. N'utilise pas de formatage. Écris directement le contenu du résumé en texte simple :

%s

Résumé simple en français :`

// SummaryPrompt wraps text in the instruction used by instruction-following backends.
func SummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPrompt, text)
}

// TruncateInput keeps the first limit characters of text. A non-positive limit disables truncation.
func TruncateInput(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return text
	}
	return util.TruncateRunes(text, limit)
}

// StatusError classifies a non-2xx backend response.
func StatusError(backend string, status int, body string) error {
	detail := strings.TrimSpace(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.Wrap(summarizer.CodeBackendAuth, fmt.Sprintf("%s rejected the credentials", backend), fmt.Errorf("status=%d body=%s", status, detail))
	case status == http.StatusTooManyRequests:
		return apperrors.Wrap(summarizer.CodeRateLimited, fmt.Sprintf("%s rate limit reached, try again later", backend), fmt.Errorf("status=%d body=%s", status, detail))
	case status == http.StatusServiceUnavailable:
		return apperrors.Wrap(summarizer.CodeBackendUnavailable, fmt.Sprintf("%s is temporarily unavailable", backend), fmt.Errorf("status=%d body=%s", status, detail))
	default:
		return apperrors.Wrap(summarizer.CodeBackendError, fmt.Sprintf("%s request failed with status %d", backend, status), fmt.Errorf("body=%s", detail))
	}
}

// TransportError classifies a failed round trip. ctx is the caller context of the request.
func TransportError(ctx context.Context, backend string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return apperrors.Wrap(summarizer.CodeBackendError, "request cancelled by caller", err)
	}
	if IsTimeout(err) {
		return apperrors.Wrap(summarizer.CodeGenerationTimeout, fmt.Sprintf("%s did not answer in time", backend), err)
	}
	return apperrors.Wrap(summarizer.CodeBackendUnavailable, fmt.Sprintf("could not reach %s", backend), err)
}

// IsTimeout reports deadline and network timeouts.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
