package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

var (
	// ErrEmptyDocument is returned for zero-length buffers.
	ErrEmptyDocument = errors.New("empty document")
	// ErrNoText is returned when a valid PDF carries no extractable text (e.g. scanned images).
	ErrNoText = errors.New("no extractable text")

	disableConfigDir sync.Once
)

// Extractor validates PDF structure with pdfcpu and reads page text with ledongthuc/pdf.
type Extractor struct {
	conf   *model.Configuration
	logger *slog.Logger
}

// NewExtractor constructs the extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf, logger: logger.With("component", "pdftext.extractor")}
}

// Extract returns the normalized plain text of every page.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", extractionError("empty pdf buffer", ErrEmptyDocument)
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), e.conf)
	if err != nil {
		return "", extractionError("invalid pdf structure", err)
	}

	text, err := readText(ctx, data)
	if err != nil {
		return "", err
	}
	text = normalizeExtractedText(text)
	if text == "" {
		return "", extractionError("pdf contains no extractable text", ErrNoText)
	}
	e.logger.Debug("pdf text extracted", "pages", pageCount, "chars", len([]rune(text)))
	return text, nil
}

func readText(ctx context.Context, data []byte) (text string, err error) {
	// the parser panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = extractionError("pdf parser failure", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extractionError("open pdf", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", apperrors.Wrap(summarizer.CodeCancelled, "pdf extraction cancelled", err)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", extractionError(fmt.Sprintf("read page %d", i), err)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var buf bytes.Buffer
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		blank = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String())
}

func extractionError(message string, err error) error {
	return apperrors.Wrap(summarizer.CodeExtraction, message, err)
}

var _ summarizer.TextExtractor = (*Extractor)(nil)
