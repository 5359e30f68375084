package printing

import "errors"

// ErrorKind names the pipeline stage that produced a job failure
type ErrorKind string

const (
	ErrorKindIngress           ErrorKind = "INGRESS_ERROR"
	ErrorKindStaging           ErrorKind = "STAGING_ERROR"
	ErrorKindPrinterResolution ErrorKind = "PRINTER_RESOLUTION_ERROR"
	ErrorKindRender            ErrorKind = "RENDER_ERROR"
	ErrorKindDispatch          ErrorKind = "DISPATCH_ERROR"
)

// Error codes carried by JobError
const (
	ErrCodeMissingMultipart  = "MISSING_MULTIPART"
	ErrCodeMissingFile       = "MISSING_FILE"
	ErrCodeInvalidPayload    = "INVALID_PAYLOAD"
	ErrCodeEmptyFile         = "EMPTY_FILE"
	ErrCodeInvalidCopies     = "INVALID_COPIES"
	ErrCodeQueueFull         = "QUEUE_FULL"
	ErrCodeNotRunning        = "NOT_RUNNING"
	ErrCodeWriteFailed       = "WRITE_FAILED"
	ErrCodeFileMissing       = "FILE_MISSING"
	ErrCodeNoPrinters        = "NO_PRINTERS"
	ErrCodeEnumerationFailed = "ENUMERATION_FAILED"
	ErrCodeLoadFailed        = "LOAD_FAILED"
	ErrCodeNoPages           = "NO_PAGES"
	ErrCodeRenderTimeout     = "RENDER_TIMEOUT"
	ErrCodeDecodeFailed      = "DECODE_FAILED"
	ErrCodeComposeFailed     = "COMPOSE_FAILED"
	ErrCodeDispatchFailed    = "DISPATCH_FAILED"
	ErrCodeInternal          = "INTERNAL"
	ErrCodeInvalidState      = "INVALID_STATE"
)

// JobError is the error type every pipeline stage converts its failures to
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *JobError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// Is matches another JobError of the same kind. A target with a code
// only matches errors carrying that code.
func (e *JobError) Is(target error) bool {
	t, ok := target.(*JobError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels usable with errors.Is
var (
	ErrIngress           = &JobError{Kind: ErrorKindIngress}
	ErrStaging           = &JobError{Kind: ErrorKindStaging}
	ErrPrinterResolution = &JobError{Kind: ErrorKindPrinterResolution}
	ErrRender            = &JobError{Kind: ErrorKindRender}
	ErrRenderTimeout     = &JobError{Kind: ErrorKindRender, Code: ErrCodeRenderTimeout}
	ErrDispatch          = &JobError{Kind: ErrorKindDispatch}
)

func newJobError(kind ErrorKind, code, message string, cause error) *JobError {
	return &JobError{Kind: kind, Code: code, Message: message, Cause: cause}
}

// NewIngressError creates an IngressError
func NewIngressError(code, message string, cause error) *JobError {
	return newJobError(ErrorKindIngress, code, message, cause)
}

// NewStagingError creates a StagingError
func NewStagingError(code, message string, cause error) *JobError {
	return newJobError(ErrorKindStaging, code, message, cause)
}

// NewPrinterResolutionError creates a PrinterResolutionError
func NewPrinterResolutionError(code, message string, cause error) *JobError {
	return newJobError(ErrorKindPrinterResolution, code, message, cause)
}

// NewRenderError creates a RenderError
func NewRenderError(code, message string, cause error) *JobError {
	return newJobError(ErrorKindRender, code, message, cause)
}

// NewDispatchError creates a DispatchError
func NewDispatchError(code, message string, cause error) *JobError {
	return newJobError(ErrorKindDispatch, code, message, cause)
}

// AsJobError converts err to a JobError. Errors that are not already a
// JobError are wrapped as an internal DispatchError.
func AsJobError(err error) *JobError {
	if err == nil {
		return nil
	}
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr
	}
	return NewDispatchError(ErrCodeInternal, "unexpected pipeline failure", err)
}
