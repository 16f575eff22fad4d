package summarizer

// Error codes raised by the pipeline stages. The HTTP layer maps each code to a status.
const (
	CodeValidation         = "validation_error"
	CodeFileTooLarge       = "file_too_large"
	CodeExtraction         = "extraction_error"
	CodeInvalidPDF         = "invalid_pdf"
	CodeBackendUnavailable = "backend_unavailable"
	CodeBackendAuth        = "backend_auth"
	CodeRateLimited        = "rate_limited"
	CodeGenerationTimeout  = "generation_timeout"
	CodeBackendError       = "generation_backend_error"
	CodeEmptyResult        = "empty_generation_result"
	CodeSummaryTooShort    = "summary_too_short"
	CodeCancelled          = "request_cancelled"
)

// Pipeline stage names used for logging and metrics.
const (
	stageValidate  = "validate"
	stageExtract   = "extract"
	stageGenerate  = "generate"
	stageNormalize = "normalize"
	stageKeywords  = "keywords"
	stagePersist   = "persist"
)
