package telemetry

import (
	"context"

	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the meter used for print job metrics
const MeterName = "expert-printer-guide/printing"

// PrintMetrics records print job counters from lifecycle events.
type PrintMetrics struct {
	received   *Counter
	completed  *Counter
	failed     *Counter
	pages      *Counter
	duration   *Histogram
	queueDepth *Gauge
	depthFn    func() int
}

// NewPrintMetrics creates the print job instruments on meter. depthFn, when
// set, is sampled into the queue depth gauge on every event.
func NewPrintMetrics(meter metric.Meter, depthFn func() int) (*PrintMetrics, error) {
	received, err := NewCounter(meter, "epg.print_jobs.received", "Print jobs accepted by an ingress adapter", "{job}")
	if err != nil {
		return nil, err
	}
	completed, err := NewCounter(meter, "epg.print_jobs.completed", "Print jobs handed to the native print subsystem", "{job}")
	if err != nil {
		return nil, err
	}
	failed, err := NewCounter(meter, "epg.print_jobs.failed", "Print jobs that failed", "{job}")
	if err != nil {
		return nil, err
	}
	pages, err := NewCounter(meter, "epg.print_jobs.pages", "Pages dispatched", "{page}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "epg.print_job.duration",
		Description: "Time from receipt to a terminal status",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	queueDepth, err := NewGauge(meter, "epg.print_queue.depth", "Jobs waiting for the worker", "{job}")
	if err != nil {
		return nil, err
	}

	return &PrintMetrics{
		received:   received,
		completed:  completed,
		failed:     failed,
		pages:      pages,
		duration:   duration,
		queueDepth: queueDepth,
		depthFn:    depthFn,
	}, nil
}

// EventTypes returns the event types PrintMetrics listens to
func (m *PrintMetrics) EventTypes() []string {
	return []string{
		printing.EventTypePrintJobReceived,
		printing.EventTypePrintJobCompleted,
		printing.EventTypePrintJobFailed,
	}
}

// Handle records the event
func (m *PrintMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *printing.PrintJobReceivedEvent:
		m.received.Inc(ctx, AttrChannel.String(e.Channel.String()))
	case *printing.PrintJobCompletedEvent:
		m.completed.Inc(ctx,
			AttrChannel.String(e.Channel.String()),
			AttrPrinterClass.String(e.Class.String()),
		)
		m.pages.Add(ctx, int64(e.PageCount*e.Copies), AttrPrinterClass.String(e.Class.String()))
		m.recordDuration(ctx, e.Snapshot, "completed")
	case *printing.PrintJobFailedEvent:
		m.failed.Inc(ctx,
			AttrChannel.String(e.Channel.String()),
			AttrErrorKind.String(string(e.ErrorKind)),
			AttrErrorCode.String(e.ErrorCode),
		)
		m.recordDuration(ctx, e.Snapshot, "failed")
	}

	if m.depthFn != nil {
		m.queueDepth.Record(ctx, int64(m.depthFn()))
	}
	return nil
}

func (m *PrintMetrics) recordDuration(ctx context.Context, snap printing.JobSnapshot, status string) {
	if snap.CreatedAt.IsZero() || snap.UpdatedAt.Before(snap.CreatedAt) {
		return
	}
	m.duration.RecordDuration(ctx, snap.UpdatedAt.Sub(snap.CreatedAt), AttrStatus.String(status))
}

var _ shared.EventHandler = (*PrintMetrics)(nil)
