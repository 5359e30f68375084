package cache

import (
	"context"

	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
)

// JobTrackerHandler records the snapshot carried by every print job event
type JobTrackerHandler struct {
	tracker app.JobTracker
}

// NewJobTrackerHandler creates a handler saving snapshots into tracker
func NewJobTrackerHandler(tracker app.JobTracker) *JobTrackerHandler {
	return &JobTrackerHandler{tracker: tracker}
}

// EventTypes returns the event types this handler consumes
func (h *JobTrackerHandler) EventTypes() []string {
	return []string{
		printing.EventTypePrintJobReceived,
		printing.EventTypePrintJobStatusChanged,
		printing.EventTypePrintJobCompleted,
		printing.EventTypePrintJobFailed,
	}
}

// Handle saves the event's snapshot
func (h *JobTrackerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var snapshot printing.JobSnapshot
	switch e := event.(type) {
	case *printing.PrintJobReceivedEvent:
		snapshot = e.Snapshot
	case *printing.PrintJobStatusChangedEvent:
		snapshot = e.Snapshot
	case *printing.PrintJobCompletedEvent:
		snapshot = e.Snapshot
	case *printing.PrintJobFailedEvent:
		snapshot = e.Snapshot
	default:
		return nil
	}
	return h.tracker.Save(ctx, snapshot)
}

var _ shared.EventHandler = (*JobTrackerHandler)(nil)
