package event

import (
	"context"

	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
	"go.uber.org/zap"
)

// PrintJobLogHandler writes an audit line for every print job lifecycle event
type PrintJobLogHandler struct {
	logger *zap.Logger
}

// NewPrintJobLogHandler creates a new PrintJobLogHandler
func NewPrintJobLogHandler(logger *zap.Logger) *PrintJobLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintJobLogHandler{logger: logger.Named("print_job")}
}

// EventTypes returns the print job event types
func (h *PrintJobLogHandler) EventTypes() []string {
	return []string{
		printing.EventTypePrintJobReceived,
		printing.EventTypePrintJobStatusChanged,
		printing.EventTypePrintJobCompleted,
		printing.EventTypePrintJobFailed,
	}
}

// Handle logs the event
func (h *PrintJobLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{zap.String("job_id", event.AggregateID().String())}

	switch e := event.(type) {
	case *printing.PrintJobReceivedEvent:
		h.logger.Info("print job received", append(fields,
			zap.String("channel", e.Channel.String()),
			zap.String("file_name", e.FileName),
			zap.Int("file_size", e.FileSize),
			zap.String("requested_printer", e.RequestedPrinterName),
			zap.Int("copies", e.Copies),
		)...)
	case *printing.PrintJobStatusChangedEvent:
		h.logger.Debug("print job status changed", append(fields,
			zap.String("from", e.OldStatus.String()),
			zap.String("to", e.NewStatus.String()),
		)...)
	case *printing.PrintJobCompletedEvent:
		h.logger.Info("print job completed", append(fields,
			zap.String("printer", e.PrinterName),
			zap.String("class", e.Class.String()),
			zap.Int("pages", e.PageCount),
			zap.Int("copies", e.Copies),
		)...)
	case *printing.PrintJobFailedEvent:
		h.logger.Warn("print job failed", append(fields,
			zap.String("failed_at", e.FailedAt.String()),
			zap.String("error_kind", string(e.ErrorKind)),
			zap.String("error_code", e.ErrorCode),
			zap.String("error", e.ErrorDetail),
		)...)
	default:
		h.logger.Debug("unhandled event", append(fields, zap.String("event_type", event.EventType()))...)
	}
	return nil
}

var _ shared.EventHandler = (*PrintJobLogHandler)(nil)
