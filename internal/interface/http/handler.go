package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
)

const (
	pdfFormField   = "pdf"
	pdfContentType = "application/pdf"
	// multipartSlack leaves room for boundaries and headers around the file part.
	multipartSlack = 1 << 20
)

// Handler wires the HTTP transport to the summarization and history services.
type Handler struct {
	summarizerSvc summarizer.Service
	historySvc    history.Service
	maxPDFSizeMB  int
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc summarizer.Service, historySvc history.Service, maxPDFSizeMB int, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc: summarySvc,
		historySvc:    historySvc,
		maxPDFSizeMB:  maxPDFSizeMB,
		logger:        logger.With("component", "http.handler"),
	}
}

// SummarizeText handles pasted text.
func (h *Handler) SummarizeText(c *gin.Context) {
	var req summarizer.TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, summarizer.CodeValidation, "request body must be JSON with a text field", err))
		return
	}
	req.UserID = callerID(c)

	resp, err := h.summarizerSvc.SummarizeText(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SummarizePDF handles a multipart upload in the "pdf" field.
func (h *Handler) SummarizePDF(c *gin.Context) {
	maxBytes := h.maxPDFBytes()
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartSlack)
	}

	fileHeader, err := c.FormFile(pdfFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, h.fileTooLarge(err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, summarizer.CodeValidation, "no file provided, please upload a PDF file", err))
		return
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		abortWithError(c, h.fileTooLarge(nil))
		return
	}
	if !isPDF(fileHeader.Header.Get("Content-Type")) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, summarizer.CodeValidation, "only PDF files are accepted", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, summarizer.CodeValidation, "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, summarizer.CodeValidation, "failed to read upload", err))
		return
	}

	resp, err := h.summarizerSvc.SummarizePDF(c.Request.Context(), summarizer.PDFRequest{
		Filename:    fileHeader.Filename,
		ContentType: pdfContentType,
		Size:        fileHeader.Size,
		Content:     data,
		UserID:      callerID(c),
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ModelInfo echoes the generation configuration.
func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.summarizerSvc.ModelInfo())
}

// History lists the caller's most recent records, newest first.
func (h *Handler) History(c *gin.Context) {
	limit, ok := queryLimit(c, history.DefaultListLimit)
	if !ok {
		return
	}
	records, err := h.historySvc.Recent(c.Request.Context(), callerID(c), limit)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// TopKeywords returns the caller's most frequent summary keywords.
func (h *Handler) TopKeywords(c *gin.Context) {
	limit, ok := queryLimit(c, 10)
	if !ok {
		return
	}
	items, err := h.historySvc.TopKeywords(c.Request.Context(), callerID(c), limit)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Health is the liveness check.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) maxPDFBytes() int64 {
	return int64(h.maxPDFSizeMB) * 1024 * 1024
}

func (h *Handler) fileTooLarge(err error) *HTTPError {
	return NewHTTPError(http.StatusRequestEntityTooLarge, summarizer.CodeFileTooLarge, "file exceeds the "+strconv.Itoa(h.maxPDFSizeMB)+"MB limit", err)
}

func isPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, pdfContentType)
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "limit must be a positive integer", err))
		return 0, false
	}
	return limit, true
}
