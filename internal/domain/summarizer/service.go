package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/util"
)

// Service exposes the summarization pipeline.
type Service interface {
	SummarizePDF(ctx context.Context, req PDFRequest) (PDFResponse, error)
	SummarizeText(ctx context.Context, req TextRequest) (TextResponse, error)
	ModelInfo() ModelInfo
}

type service struct {
	cfg       Config
	extractor TextExtractor
	generator Generator
	recorder  HistoryRecorder
	archive   Archive
	observer  Observer
	logger    *slog.Logger
}

// NewService is a wire provider for the summarization pipeline. archive and observer may be nil.
func NewService(cfg Config, extractor TextExtractor, generator Generator, recorder HistoryRecorder, archive Archive, observer Observer, logger *slog.Logger) Service {
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = DefaultMaxKeywords
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &service{
		cfg:       cfg,
		extractor: extractor,
		generator: generator,
		recorder:  recorder,
		archive:   archive,
		observer:  observer,
		logger:    logger.With("component", "summarizer.service"),
	}
}

// outcome carries the shared tail of both pipeline variants.
type outcome struct {
	summary  string
	keywords []string
	model    string
}

func (s *service) SummarizePDF(ctx context.Context, req PDFRequest) (resp PDFResponse, err error) {
	start := time.Now()
	defer func() { s.finish("pdf", start, err) }()

	if len(req.Content) == 0 {
		return PDFResponse{}, s.stageFailed(stageValidate, apperrors.Wrap(CodeValidation, "no file provided, please upload a PDF file", nil))
	}
	if limit := s.maxPDFBytes(); limit > 0 && int64(len(req.Content)) > limit {
		return PDFResponse{}, s.stageFailed(stageValidate, apperrors.Wrap(CodeFileTooLarge, fmt.Sprintf("file exceeds the %dMB limit", s.cfg.MaxPDFSizeMB), nil))
	}
	size := req.Size
	if size <= 0 {
		size = int64(len(req.Content))
	}

	var text string
	err = s.timed(stageExtract, func() error {
		extracted, extractErr := s.extractor.Extract(ctx, req.Content)
		if apperrors.IsCode(extractErr, CodeCancelled) {
			return extractErr
		}
		if extractErr != nil {
			return apperrors.Wrap(CodeInvalidPDF, "the file could not be read as a PDF", extractErr)
		}
		text = strings.TrimSpace(extracted)
		return nil
	})
	if err != nil {
		return PDFResponse{}, err
	}
	if util.RuneLen(text) < MinTextLength {
		return PDFResponse{}, s.stageFailed(stageValidate, apperrors.Wrap(CodeValidation, fmt.Sprintf("the PDF must contain at least %d characters", MinTextLength), nil))
	}

	out, err := s.run(ctx, text)
	if err != nil {
		return PDFResponse{}, err
	}
	// only documents that produced a summary are archived
	objectKey := s.archiveUpload(ctx, req)

	textLength := util.RuneLen(text)
	summaryLength := util.RuneLen(out.summary)
	if req.UserID > 0 {
		s.persist(ctx, history.Record{
			UserID:      req.UserID,
			Action:      history.ActionPDFSummarized,
			SummaryText: out.summary,
			Keywords:    out.keywords,
			Metadata: history.Metadata{
				Filename:            req.Filename,
				FileSize:            size,
				ExtractedTextLength: textLength,
				SummaryLength:       summaryLength,
				ObjectKey:           objectKey,
				Model:               out.model,
			},
		})
	}

	return PDFResponse{
		Success:             true,
		Filename:            req.Filename,
		FileSize:            size,
		ExtractedTextLength: textLength,
		SummaryLength:       summaryLength,
		Summary:             out.summary,
		Keywords:            out.keywords,
		ModelUsed:           out.model,
	}, nil
}

func (s *service) SummarizeText(ctx context.Context, req TextRequest) (resp TextResponse, err error) {
	start := time.Now()
	defer func() { s.finish("text", start, err) }()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return TextResponse{}, s.stageFailed(stageValidate, apperrors.Wrap(CodeValidation, "text is required", nil))
	}
	if util.RuneLen(text) < MinTextLength {
		return TextResponse{}, s.stageFailed(stageValidate, apperrors.Wrap(CodeValidation, fmt.Sprintf("text must contain at least %d characters", MinTextLength), nil))
	}

	out, err := s.run(ctx, text)
	if err != nil {
		return TextResponse{}, err
	}

	originalLength := util.RuneLen(text)
	summaryLength := util.RuneLen(out.summary)
	if req.UserID > 0 {
		s.persist(ctx, history.Record{
			UserID:      req.UserID,
			Action:      history.ActionTextSummarized,
			SummaryText: out.summary,
			Keywords:    out.keywords,
			Metadata: history.Metadata{
				ExtractedTextLength: originalLength,
				SummaryLength:       summaryLength,
				Model:               out.model,
			},
		})
	}

	return TextResponse{
		Success:        true,
		OriginalLength: originalLength,
		SummaryLength:  summaryLength,
		Summary:        out.summary,
		Keywords:       out.keywords,
		ModelUsed:      out.model,
	}, nil
}

func (s *service) ModelInfo() ModelInfo {
	return ModelInfo{
		Model:       s.cfg.Generation.Model,
		Backend:     s.generator.Backend(),
		Description: s.cfg.ModelDescription,
		MaxLength:   s.cfg.Generation.MaxOutputLength,
		MinLength:   s.cfg.Generation.MinOutputLength,
		MaxPDFSize:  fmt.Sprintf("%dMB", s.cfg.MaxPDFSizeMB),
	}
}

// run executes generate, normalize and keyword extraction. No stage is retried.
func (s *service) run(ctx context.Context, text string) (outcome, error) {
	var result GenerationResult
	err := s.timed(stageGenerate, func() error {
		var genErr error
		result, genErr = s.generator.Summarize(ctx, text)
		if genErr != nil && apperrors.CodeOf(genErr) == "" {
			return apperrors.Wrap(CodeBackendError, "generation backend failed", genErr)
		}
		return genErr
	})
	if err != nil {
		return outcome{}, err
	}

	var summary string
	err = s.timed(stageNormalize, func() error {
		var normErr error
		summary, normErr = Normalize(result.Text)
		return normErr
	})
	if err != nil {
		s.logger.Debug("normalized summary rejected", "raw_length", util.RuneLen(result.Text))
		return outcome{}, err
	}

	var keywords []string
	_ = s.timed(stageKeywords, func() error {
		keywords = ExtractKeywords(summary, s.cfg.MaxKeywords)
		return nil
	})

	model := result.Model
	if model == "" {
		model = s.cfg.Generation.Model
	}
	return outcome{summary: summary, keywords: keywords, model: model}, nil
}

func (s *service) persist(ctx context.Context, rec history.Record) {
	if s.recorder == nil {
		return
	}
	_ = s.timed(stagePersist, func() error {
		s.recorder.Record(ctx, rec)
		return nil
	})
}

func (s *service) archiveUpload(ctx context.Context, req PDFRequest) string {
	if s.archive == nil {
		return ""
	}
	owner := "anonymous"
	if req.UserID > 0 {
		owner = fmt.Sprintf("%d", req.UserID)
	}
	name := path.Base(strings.ReplaceAll(req.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document.pdf"
	}
	key := fmt.Sprintf("uploads/%s/%s-%s", owner, uuid.NewString(), name)
	stored, err := s.archive.Put(ctx, key, req.Content, "application/pdf")
	if err != nil {
		s.logger.Warn("pdf archive failed", "filename", req.Filename, "error", err)
		return ""
	}
	return stored
}

func (s *service) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.observer.ObserveStage(stage, apperrors.CodeOf(err), time.Since(start))
	if err != nil {
		s.logger.Warn("pipeline stage failed", "stage", stage, "code", apperrors.CodeOf(err), "error", err)
	}
	return err
}

func (s *service) stageFailed(stage string, err error) error {
	s.observer.ObserveStage(stage, apperrors.CodeOf(err), 0)
	return err
}

func (s *service) finish(kind string, start time.Time, err error) {
	latency := time.Since(start)
	code := apperrors.CodeOf(err)
	if err != nil && code == "" {
		code = "internal_error"
	}
	s.observer.ObserveRequest(kind, code, latency)
	if err == nil {
		s.logger.Info("summary generated", "kind", kind, "latency_ms", latency.Milliseconds())
	}
}

func (s *service) maxPDFBytes() int64 {
	return int64(s.cfg.MaxPDFSizeMB) * 1024 * 1024
}
