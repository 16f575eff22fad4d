package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

const genericErrorMessage = "something went wrong"

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// statusByCode maps application error codes to HTTP statuses. Unknown codes become 500.
var statusByCode = map[string]int{
	summarizer.CodeValidation:         http.StatusBadRequest,
	summarizer.CodeInvalidPDF:         http.StatusBadRequest,
	summarizer.CodeExtraction:         http.StatusBadRequest,
	summarizer.CodeFileTooLarge:       http.StatusRequestEntityTooLarge,
	summarizer.CodeBackendAuth:        http.StatusUnauthorized,
	summarizer.CodeRateLimited:        http.StatusTooManyRequests,
	summarizer.CodeBackendError:       http.StatusBadGateway,
	summarizer.CodeEmptyResult:        http.StatusBadGateway,
	summarizer.CodeSummaryTooShort:    http.StatusBadGateway,
	summarizer.CodeBackendUnavailable: http.StatusServiceUnavailable,
	summarizer.CodeGenerationTimeout:  http.StatusGatewayTimeout,
	summarizer.CodeCancelled:          http.StatusRequestTimeout,
	history.CodePersistence:           http.StatusInternalServerError,

	"invalid_input":       http.StatusBadRequest,
	"invalid_credentials": http.StatusUnauthorized,
	"invalid_token":       http.StatusUnauthorized,
	"email_exists":        http.StatusConflict,
	"user_not_found":      http.StatusNotFound,
}

// fromAppError converts a domain error into its transport representation.
// Server-side failures keep the cause for logging but expose a generic message.
func fromAppError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if code == "" {
		code = "internal_error"
	}
	message := apperrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = genericErrorMessage
	}
	return NewHTTPError(status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromAppError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
