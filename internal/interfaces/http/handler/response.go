package handler

// Response messages shared with the socket adapter
const (
	MessagePrintAccepted = "Print on process, if not appear. Please re-check your printer"
	MessagePrintFailed   = "Print failed"
	MessageHereIsData    = "Here is your data"
	MessageNotFound      = "Not found"
)

// ErrorResponse is the body of request-level rejections
type ErrorResponse struct {
	Error string `json:"error"`
}

// PrintAcceptedResponse is returned when a job completes or is still running
type PrintAcceptedResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// PrintFailedResponse is returned when a job fails or cannot be queued
type PrintFailedResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	JobID   string `json:"jobId,omitempty"`
}

// PrinterListResponse mirrors the socket getPrinter reply
type PrinterListResponse struct {
	StatusCode int    `json:"statusCode"`
	List       any    `json:"list,omitempty"`
	Message    string `json:"message"`
}
