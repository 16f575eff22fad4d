package summarizer

import (
	"context"
	"time"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

// MinTextLength is the minimum number of characters a resolved input must contain.
const MinTextLength = 50

// Config configures the orchestrator.
type Config struct {
	MaxKeywords      int
	MaxPDFSizeMB     int
	ModelDescription string
	Generation       GenerationParams
}

// GenerationParams is fixed per deployment and handed to the generation clients at construction.
type GenerationParams struct {
	Model           string
	MaxOutputLength int
	MinOutputLength int
	Temperature     float32
}

// GenerationResult is the raw backend output, validated right after the network call.
type GenerationResult struct {
	Text  string
	Model string
	Usage metrics.TokenUsage
}

// PDFRequest carries an uploaded document. UserID is zero for anonymous callers.
type PDFRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
	UserID      int64
}

// TextRequest carries pasted text.
type TextRequest struct {
	Text   string `json:"text"`
	UserID int64  `json:"-"`
}

// PDFResponse is returned by the PDF endpoint.
type PDFResponse struct {
	Success             bool     `json:"success"`
	Filename            string   `json:"filename,omitempty"`
	FileSize            int64    `json:"file_size,omitempty"`
	ExtractedTextLength int      `json:"extracted_text_length"`
	SummaryLength       int      `json:"summary_length"`
	Summary             string   `json:"summary"`
	Keywords            []string `json:"keywords"`
	ModelUsed           string   `json:"model_used"`
}

// TextResponse is returned by the text endpoint.
type TextResponse struct {
	Success        bool     `json:"success"`
	OriginalLength int      `json:"original_length"`
	SummaryLength  int      `json:"summary_length"`
	Summary        string   `json:"summary"`
	Keywords       []string `json:"keywords"`
	ModelUsed      string   `json:"model_used"`
}

// ModelInfo echoes the static generation configuration.
type ModelInfo struct {
	Model       string `json:"model"`
	Backend     string `json:"backend"`
	Description string `json:"description"`
	MaxLength   int    `json:"max_length"`
	MinLength   int    `json:"min_length"`
	MaxPDFSize  string `json:"max_pdf_size"`
}

// TextExtractor turns a PDF byte buffer into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Generator wraps a summarization backend.
type Generator interface {
	Summarize(ctx context.Context, text string) (GenerationResult, error)
	Backend() string
}

// HistoryRecorder appends history records without blocking the caller.
type HistoryRecorder interface {
	Record(ctx context.Context, rec history.Record)
}

// Archive stores uploaded documents and returns the object key.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Observer receives pipeline timings.
type Observer interface {
	ObserveStage(stage, code string, latency time.Duration)
	ObserveRequest(kind, code string, latency time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, string, time.Duration)   {}
func (noopObserver) ObserveRequest(string, string, time.Duration) {}
