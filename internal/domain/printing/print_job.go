package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
)

const (
	// DefaultCopies is used when a request does not ask for a copy count
	DefaultCopies = 1
	// DefaultFileName is used when the client does not supply a file name
	DefaultFileName = "file.pdf"
)

// PrintJob is one submitted print request, owned by the orchestrator from
// ingress until its result is reported. Once the job reaches a terminal
// status every mutator is rejected.
type PrintJob struct {
	shared.BaseAggregateRoot
	Channel              SourceChannel
	FileName             string
	FileBytes            []byte
	RequestedPrinterName string
	Copies               int
	Status               JobStatus
	ErrorDetail          *JobError // set iff Status == JobStatusFailed

	StagedPath string
	Printer    *PrinterDescriptor
	Class      PrinterClass
	Pages      []PageRaster
	Geometry   []PageGeometry
}

// NewPrintJob creates a job in the Received status. A copies value of zero
// selects DefaultCopies.
func NewPrintJob(channel SourceChannel, fileName string, fileBytes []byte, requestedPrinter string, copies int) (*PrintJob, error) {
	if !channel.IsValid() {
		return nil, NewIngressError(ErrCodeInvalidPayload, "unknown source channel: "+channel.String(), nil)
	}
	if len(fileBytes) == 0 {
		return nil, NewIngressError(ErrCodeEmptyFile, "file content is empty", nil)
	}
	if copies == 0 {
		copies = DefaultCopies
	}
	if copies < 1 {
		return nil, NewIngressError(ErrCodeInvalidCopies, "number of copies must be at least 1", nil)
	}
	if fileName == "" {
		fileName = DefaultFileName
	}

	job := &PrintJob{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Channel:              channel,
		FileName:             fileName,
		FileBytes:            fileBytes,
		RequestedPrinterName: requestedPrinter,
		Copies:               copies,
		Status:               JobStatusReceived,
	}

	job.AddDomainEvent(NewPrintJobReceivedEvent(job))

	return job, nil
}

// MarkStaged records where the job's file was written
func (j *PrintJob) MarkStaged(path string) error {
	if path == "" {
		return shared.NewDomainError("INVALID_STAGED_PATH", "Staged path cannot be empty")
	}
	if err := j.advance(JobStatusStaged); err != nil {
		return err
	}
	j.StagedPath = path
	return nil
}

// MarkPrinterResolved records the printer the job will be dispatched to
func (j *PrintJob) MarkPrinterResolved(printer PrinterDescriptor) error {
	if printer.Name == "" {
		return shared.NewDomainError("INVALID_PRINTER", "Resolved printer must have a name")
	}
	if err := j.advance(JobStatusPrinterResolved); err != nil {
		return err
	}
	j.Printer = &printer
	return nil
}

// MarkRendered records the rendered pages in document order
func (j *PrintJob) MarkRendered(pages []PageRaster) error {
	if len(pages) == 0 {
		return shared.NewDomainError("INVALID_PAGES", "Rendered document has no pages")
	}
	for i, p := range pages {
		if p.Index != i {
			return shared.NewDomainError("INVALID_PAGES", "Rendered pages are out of document order")
		}
	}
	if err := j.advance(JobStatusRendered); err != nil {
		return err
	}
	j.Pages = pages
	return nil
}

// MarkClassified records the printer class
func (j *PrintJob) MarkClassified(class PrinterClass) error {
	if err := j.advance(JobStatusClassified); err != nil {
		return err
	}
	j.Class = class
	return nil
}

// MarkGeometryComputed records the per-page geometry applied at dispatch
func (j *PrintJob) MarkGeometryComputed(geometry []PageGeometry) error {
	if len(geometry) != len(j.Pages) {
		return shared.NewDomainError("INVALID_GEOMETRY", "Geometry must cover every rendered page")
	}
	if err := j.advance(JobStatusGeometryComputed); err != nil {
		return err
	}
	j.Geometry = geometry
	return nil
}

// MarkDispatched records that the native print command succeeded
func (j *PrintJob) MarkDispatched() error {
	return j.advance(JobStatusDispatched)
}

// Complete marks the job as completed
func (j *PrintJob) Complete() error {
	if err := j.advance(JobStatusCompleted); err != nil {
		return err
	}
	j.AddDomainEvent(NewPrintJobCompletedEvent(j))
	return nil
}

// Fail marks the job as failed. A nil cause is recorded as an internal
// dispatch error.
func (j *PrintJob) Fail(cause error) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	detail := AsJobError(cause)
	if detail == nil {
		detail = NewDispatchError(ErrCodeInternal, "job failed without a cause", nil)
	}

	oldStatus := j.Status
	j.Status = JobStatusFailed
	j.ErrorDetail = detail
	j.Touch()

	j.AddDomainEvent(NewPrintJobStatusChangedEvent(j, oldStatus, JobStatusFailed))
	j.AddDomainEvent(NewPrintJobFailedEvent(j))

	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// IsCompleted returns true if the job is completed
func (j *PrintJob) IsCompleted() bool {
	return j.Status == JobStatusCompleted
}

// IsFailed returns true if the job failed
func (j *PrintJob) IsFailed() bool {
	return j.Status == JobStatusFailed
}

// PrinterName returns the resolved printer name, or "" before resolution
func (j *PrintJob) PrinterName() string {
	if j.Printer == nil {
		return ""
	}
	return j.Printer.Name
}

func (j *PrintJob) advance(to JobStatus) error {
	if !j.Status.CanTransitionTo(to) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot move from "+j.Status.String()+" to "+to.String())
	}
	from := j.Status
	j.Status = to
	j.Touch()
	j.AddDomainEvent(NewPrintJobStatusChangedEvent(j, from, to))
	return nil
}

// JobSnapshot is a payload-free view of a job, safe to cache and serialize
type JobSnapshot struct {
	ID                   uuid.UUID      `json:"id"`
	Channel              SourceChannel  `json:"channel"`
	FileName             string         `json:"fileName"`
	RequestedPrinterName string         `json:"requestedPrinterName,omitempty"`
	PrinterName          string         `json:"printerName,omitempty"`
	Copies               int            `json:"copies"`
	Status               JobStatus      `json:"status"`
	Class                PrinterClass   `json:"class,omitempty"`
	PageCount            int            `json:"pageCount"`
	Geometry             []PageGeometry `json:"geometry,omitempty"`
	Error                *JobError      `json:"error,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// Snapshot returns a copy of the job without file or raster payloads
func (j *PrintJob) Snapshot() JobSnapshot {
	var geometry []PageGeometry
	if len(j.Geometry) > 0 {
		geometry = make([]PageGeometry, len(j.Geometry))
		copy(geometry, j.Geometry)
	}
	var jobErr *JobError
	if j.ErrorDetail != nil {
		e := *j.ErrorDetail
		jobErr = &e
	}
	return JobSnapshot{
		ID:                   j.ID,
		Channel:              j.Channel,
		FileName:             j.FileName,
		RequestedPrinterName: j.RequestedPrinterName,
		PrinterName:          j.PrinterName(),
		Copies:               j.Copies,
		Status:               j.Status,
		Class:                j.Class,
		PageCount:            len(j.Pages),
		Geometry:             geometry,
		Error:                jobErr,
		CreatedAt:            j.CreatedAt,
		UpdatedAt:            j.UpdatedAt,
	}
}
