package printing

import (
	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
)

// AggregateTypePrintJob is the aggregate type of print job events
const AggregateTypePrintJob = "PrintJob"

// Event type constants for PrintJob
const (
	EventTypePrintJobReceived      = "PrintJobReceived"
	EventTypePrintJobStatusChanged = "PrintJobStatusChanged"
	EventTypePrintJobCompleted     = "PrintJobCompleted"
	EventTypePrintJobFailed        = "PrintJobFailed"
)

// PrintJobReceivedEvent is published when an ingress adapter hands over a job
type PrintJobReceivedEvent struct {
	shared.BaseDomainEvent
	JobID                uuid.UUID     `json:"job_id"`
	Channel              SourceChannel `json:"channel"`
	FileName             string        `json:"file_name"`
	FileSize             int           `json:"file_size"`
	RequestedPrinterName string        `json:"requested_printer_name,omitempty"`
	Copies               int           `json:"copies"`
	Snapshot             JobSnapshot   `json:"snapshot"`
}

// NewPrintJobReceivedEvent creates a new PrintJobReceivedEvent
func NewPrintJobReceivedEvent(job *PrintJob) *PrintJobReceivedEvent {
	return &PrintJobReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypePrintJobReceived,
			AggregateTypePrintJob,
			job.ID,
		),
		JobID:                job.ID,
		Channel:              job.Channel,
		FileName:             job.FileName,
		FileSize:             len(job.FileBytes),
		RequestedPrinterName: job.RequestedPrinterName,
		Copies:               job.Copies,
		Snapshot:             job.Snapshot(),
	}
}

// PrintJobStatusChangedEvent is published on every status transition
type PrintJobStatusChangedEvent struct {
	shared.BaseDomainEvent
	JobID     uuid.UUID   `json:"job_id"`
	OldStatus JobStatus   `json:"old_status"`
	NewStatus JobStatus   `json:"new_status"`
	Snapshot  JobSnapshot `json:"snapshot"`
}

// NewPrintJobStatusChangedEvent creates a new PrintJobStatusChangedEvent
func NewPrintJobStatusChangedEvent(job *PrintJob, oldStatus, newStatus JobStatus) *PrintJobStatusChangedEvent {
	return &PrintJobStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypePrintJobStatusChanged,
			AggregateTypePrintJob,
			job.ID,
		),
		JobID:     job.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Snapshot:  job.Snapshot(),
	}
}

// PrintJobCompletedEvent is published when a job completes
type PrintJobCompletedEvent struct {
	shared.BaseDomainEvent
	JobID       uuid.UUID     `json:"job_id"`
	Channel     SourceChannel `json:"channel"`
	PrinterName string        `json:"printer_name"`
	Class       PrinterClass  `json:"class"`
	PageCount   int           `json:"page_count"`
	Copies      int           `json:"copies"`
	Snapshot    JobSnapshot   `json:"snapshot"`
}

// NewPrintJobCompletedEvent creates a new PrintJobCompletedEvent
func NewPrintJobCompletedEvent(job *PrintJob) *PrintJobCompletedEvent {
	return &PrintJobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypePrintJobCompleted,
			AggregateTypePrintJob,
			job.ID,
		),
		JobID:       job.ID,
		Channel:     job.Channel,
		PrinterName: job.PrinterName(),
		Class:       job.Class,
		PageCount:   len(job.Pages),
		Copies:      job.Copies,
		Snapshot:    job.Snapshot(),
	}
}

// PrintJobFailedEvent is published when a job fails
type PrintJobFailedEvent struct {
	shared.BaseDomainEvent
	JobID       uuid.UUID     `json:"job_id"`
	Channel     SourceChannel `json:"channel"`
	FailedAt    JobStatus     `json:"failed_at"`
	ErrorKind   ErrorKind     `json:"error_kind"`
	ErrorCode   string        `json:"error_code"`
	ErrorDetail string        `json:"error_detail"`
	Snapshot    JobSnapshot   `json:"snapshot"`
}

// NewPrintJobFailedEvent creates a new PrintJobFailedEvent. FailedAt is the
// last status reached before failure.
func NewPrintJobFailedEvent(job *PrintJob) *PrintJobFailedEvent {
	evt := &PrintJobFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypePrintJobFailed,
			AggregateTypePrintJob,
			job.ID,
		),
		JobID:    job.ID,
		Channel:  job.Channel,
		Snapshot: job.Snapshot(),
	}
	if events := job.GetDomainEvents(); len(events) > 0 {
		if changed, ok := events[len(events)-1].(*PrintJobStatusChangedEvent); ok {
			evt.FailedAt = changed.OldStatus
		}
	}
	if job.ErrorDetail != nil {
		evt.ErrorKind = job.ErrorDetail.Kind
		evt.ErrorCode = job.ErrorDetail.Code
		evt.ErrorDetail = job.ErrorDetail.Error()
	}
	return evt
}
