package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
)

func newTestJob(t *testing.T) *PrintJob {
	t.Helper()
	job, err := NewPrintJob(SourceChannelHTTPUpload, "a.pdf", []byte("%PDF-1.4"), "Office", 2)
	require.NoError(t, err)
	return job
}

func testPages(n int) []PageRaster {
	pages := make([]PageRaster, n)
	for i := range pages {
		pages[i] = PageRaster{Index: i, PixelWidth: 850, PixelHeight: 1700, SourceResolutionDPI: RenderSourceDPI}
	}
	return pages
}

// driveToDispatched walks a job through every forward transition up to Dispatched
func driveToDispatched(t *testing.T, job *PrintJob) {
	t.Helper()
	require.NoError(t, job.MarkStaged("/tmp/a.pdf"))
	require.NoError(t, job.MarkPrinterResolved(PrinterDescriptor{Name: "Office"}))
	require.NoError(t, job.MarkRendered(testPages(2)))
	require.NoError(t, job.MarkClassified(PrinterClassPaper))
	require.NoError(t, job.MarkGeometryComputed(ComputeDocumentGeometry(job.Pages, PaperProfile(0), GeometryPolicyLastPage)))
	require.NoError(t, job.MarkDispatched())
}

func TestNewPrintJob(t *testing.T) {
	tests := []struct {
		name       string
		channel    SourceChannel
		fileName   string
		fileBytes  []byte
		copies     int
		wantCopies int
		wantName   string
		wantCode   string
	}{
		{
			name:       "valid http job",
			channel:    SourceChannelHTTPUpload,
			fileName:   "a.pdf",
			fileBytes:  []byte("data"),
			copies:     3,
			wantCopies: 3,
			wantName:   "a.pdf",
		},
		{
			name:       "zero copies defaults to one",
			channel:    SourceChannelSocketEvent,
			fileName:   "b.pdf",
			fileBytes:  []byte("data"),
			copies:     0,
			wantCopies: 1,
			wantName:   "b.pdf",
		},
		{
			name:       "empty file name defaults",
			channel:    SourceChannelSocketEvent,
			fileBytes:  []byte("data"),
			copies:     1,
			wantCopies: 1,
			wantName:   DefaultFileName,
		},
		{
			name:      "empty file bytes",
			channel:   SourceChannelHTTPUpload,
			fileName:  "a.pdf",
			fileBytes: nil,
			wantCode:  ErrCodeEmptyFile,
		},
		{
			name:      "negative copies",
			channel:   SourceChannelHTTPUpload,
			fileName:  "a.pdf",
			fileBytes: []byte("data"),
			copies:    -1,
			wantCode:  ErrCodeInvalidCopies,
		},
		{
			name:       "large copy count",
			channel:    SourceChannelSocketEvent,
			fileName:   "a.pdf",
			fileBytes:  []byte("data"),
			copies:     150,
			wantCopies: 150,
			wantName:   "a.pdf",
		},
		{
			name:      "unknown channel",
			channel:   SourceChannel("CARRIER_PIGEON"),
			fileName:  "a.pdf",
			fileBytes: []byte("data"),
			wantCode:  ErrCodeInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewPrintJob(tt.channel, tt.fileName, tt.fileBytes, "", tt.copies)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrIngress))
				var jobErr *JobError
				require.True(t, errors.As(err, &jobErr))
				assert.Equal(t, tt.wantCode, jobErr.Code)
				assert.Nil(t, job)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, [16]byte{}, [16]byte(job.ID))
			assert.Equal(t, JobStatusReceived, job.Status)
			assert.Equal(t, tt.wantCopies, job.Copies)
			assert.Equal(t, tt.wantName, job.FileName)
			assert.Nil(t, job.ErrorDetail)

			events := job.GetDomainEvents()
			require.Len(t, events, 1)
			assert.Equal(t, EventTypePrintJobReceived, events[0].EventType())
		})
	}
}

func TestNewPrintJob_UniqueIDs(t *testing.T) {
	a := newTestJob(t)
	b := newTestJob(t)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPrintJob_ForwardTransitions(t *testing.T) {
	job := newTestJob(t)
	driveToDispatched(t, job)
	require.NoError(t, job.Complete())

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.True(t, job.IsCompleted())
	assert.True(t, job.IsTerminal())
	assert.Equal(t, "Office", job.PrinterName())
	assert.Len(t, job.Geometry, 2)

	var types []string
	for _, e := range job.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, EventTypePrintJobReceived, types[0])
	assert.Equal(t, EventTypePrintJobCompleted, types[len(types)-1])
}

func TestPrintJob_RejectsSkippingStages(t *testing.T) {
	job := newTestJob(t)

	err := job.MarkRendered(testPages(1))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	assert.Equal(t, JobStatusReceived, job.Status)
	assert.Nil(t, job.Pages)

	assert.Error(t, job.Complete())
	assert.Error(t, job.MarkDispatched())
}

func TestPrintJob_RejectsOutOfOrderPages(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.MarkStaged("/tmp/a.pdf"))
	require.NoError(t, job.MarkPrinterResolved(PrinterDescriptor{Name: "Office"}))

	pages := testPages(3)
	pages[0], pages[1] = pages[1], pages[0]
	assert.Error(t, job.MarkRendered(pages))
	assert.Equal(t, JobStatusPrinterResolved, job.Status)
}

func TestPrintJob_GeometryMustCoverPages(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.MarkStaged("/tmp/a.pdf"))
	require.NoError(t, job.MarkPrinterResolved(PrinterDescriptor{Name: "Office"}))
	require.NoError(t, job.MarkRendered(testPages(3)))
	require.NoError(t, job.MarkClassified(PrinterClassPaper))

	assert.Error(t, job.MarkGeometryComputed([]PageGeometry{{}}))
}

func TestPrintJob_FailFromEveryNonTerminalStatus(t *testing.T) {
	steps := []func(*PrintJob) error{
		func(j *PrintJob) error { return nil },
		func(j *PrintJob) error { return j.MarkStaged("/tmp/a.pdf") },
		func(j *PrintJob) error { return j.MarkPrinterResolved(PrinterDescriptor{Name: "Office"}) },
		func(j *PrintJob) error { return j.MarkRendered(testPages(1)) },
		func(j *PrintJob) error { return j.MarkClassified(PrinterClassLabel) },
		func(j *PrintJob) error {
			return j.MarkGeometryComputed(ComputeDocumentGeometry(j.Pages, LabelProfile(), GeometryPolicyLastPage))
		},
		func(j *PrintJob) error { return j.MarkDispatched() },
	}

	for depth := range steps {
		job := newTestJob(t)
		for _, step := range steps[:depth+1] {
			require.NoError(t, step(job))
		}
		before := job.Status

		cause := NewRenderError(ErrCodeNoPages, "no pages", nil)
		require.NoError(t, job.Fail(cause), "fail from %s", before)
		assert.Equal(t, JobStatusFailed, job.Status)
		require.NotNil(t, job.ErrorDetail)
		assert.Equal(t, ErrorKindRender, job.ErrorDetail.Kind)

		events := job.GetDomainEvents()
		failed, ok := events[len(events)-1].(*PrintJobFailedEvent)
		require.True(t, ok)
		assert.Equal(t, before, failed.FailedAt)
		assert.Equal(t, ErrorKindRender, failed.ErrorKind)
	}
}

func TestPrintJob_FailWrapsUnknownErrors(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Fail(errors.New("boom")))
	assert.Equal(t, ErrorKindDispatch, job.ErrorDetail.Kind)
	assert.Equal(t, ErrCodeInternal, job.ErrorDetail.Code)

	job = newTestJob(t)
	require.NoError(t, job.Fail(nil))
	assert.Equal(t, ErrCodeInternal, job.ErrorDetail.Code)
}

func TestPrintJob_TerminalJobIsFrozen(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		job := newTestJob(t)
		driveToDispatched(t, job)
		require.NoError(t, job.Complete())
		snapshot := job.Snapshot()
		version := job.GetVersion()

		assert.Error(t, job.Fail(errors.New("late")))
		assert.Error(t, job.MarkStaged("/tmp/other.pdf"))
		assert.Error(t, job.MarkPrinterResolved(PrinterDescriptor{Name: "Other"}))
		assert.Error(t, job.MarkClassified(PrinterClassLabel))
		assert.Error(t, job.MarkDispatched())
		assert.Error(t, job.Complete())

		assert.Equal(t, snapshot, job.Snapshot())
		assert.Equal(t, version, job.GetVersion())
		assert.Nil(t, job.ErrorDetail)
	})

	t.Run("failed", func(t *testing.T) {
		job := newTestJob(t)
		require.NoError(t, job.MarkStaged("/tmp/a.pdf"))
		require.NoError(t, job.Fail(NewPrinterResolutionError(ErrCodeNoPrinters, "none", nil)))
		snapshot := job.Snapshot()

		assert.Error(t, job.Fail(errors.New("again")))
		assert.Error(t, job.MarkPrinterResolved(PrinterDescriptor{Name: "Office"}))
		assert.Error(t, job.Complete())

		assert.Equal(t, snapshot, job.Snapshot())
		assert.Equal(t, ErrorKindPrinterResolution, job.ErrorDetail.Kind)
	})
}

func TestPrintJob_Snapshot(t *testing.T) {
	job := newTestJob(t)
	driveToDispatched(t, job)

	snap := job.Snapshot()
	assert.Equal(t, job.ID, snap.ID)
	assert.Equal(t, 2, snap.PageCount)
	assert.Equal(t, "Office", snap.PrinterName)
	assert.Equal(t, JobStatusDispatched, snap.Status)

	// mutating the snapshot must not leak into the job
	snap.Geometry[0].TargetDPI = 1
	assert.NotEqual(t, 1, job.Geometry[0].TargetDPI)
}
