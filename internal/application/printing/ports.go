package printing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

// Stager persists a job's document bytes so the rendering surface can load them
type Stager interface {
	// Stage writes data and returns the absolute path of the staged file.
	// Implementations verify the file exists after writing.
	Stage(ctx context.Context, jobID uuid.UUID, fileName string, data []byte) (string, error)
}

// PrinterEnumerator lists the printers installed on the host
type PrinterEnumerator interface {
	ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error)
}

// Renderer rasterizes a staged document. Implementations need not be
// safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, stagedPath string) ([]printing.PageRaster, error)
}

// DispatchRequest is everything a Dispatcher needs to print one job
type DispatchRequest struct {
	JobID           uuid.UUID
	DocumentName    string
	PrinterName     string
	Class           printing.PrinterClass
	Pages           []printing.PageRaster
	Geometry        []printing.PageGeometry
	Copies          int
	Silent          bool
	PrintBackground bool
	MarginsMM       float64
	TargetDPI       int
}

// Dispatcher hands rendered pages to the native print system
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) error
}

// JobTracker keeps recent job snapshots for status queries
type JobTracker interface {
	Save(ctx context.Context, snapshot printing.JobSnapshot) error
	Get(ctx context.Context, id uuid.UUID) (*printing.JobSnapshot, error)
}
