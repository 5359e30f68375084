package printing

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"go.uber.org/zap"
)

// PrintService is the entry point ingress adapters use to submit jobs
// and query printers
type PrintService struct {
	orchestrator *Orchestrator
	enumerator   PrinterEnumerator
	tracker      JobTracker
	platform     printing.Platform
	version      string
	logger       *zap.Logger
}

// PrintServiceOption configures a PrintService
type PrintServiceOption func(*PrintService)

// WithPlatform overrides the host platform used to describe printer status
func WithPlatform(p printing.Platform) PrintServiceOption {
	return func(s *PrintService) {
		s.platform = p
	}
}

// WithVersion sets the version reported by System
func WithVersion(v string) PrintServiceOption {
	return func(s *PrintService) {
		s.version = v
	}
}

// NewPrintService creates a new PrintService. tracker may be nil.
func NewPrintService(
	orchestrator *Orchestrator,
	enumerator PrinterEnumerator,
	tracker JobTracker,
	logger *zap.Logger,
	opts ...PrintServiceOption,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PrintService{
		orchestrator: orchestrator,
		enumerator:   enumerator,
		tracker:      tracker,
		platform:     printing.PlatformFromGOOS(runtime.GOOS),
		version:      "dev",
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates a request, creates the job and enqueues it
func (s *PrintService) Submit(ctx context.Context, req SubmitRequest) (*Ticket, error) {
	job, err := printing.NewPrintJob(req.Channel, req.FileName, req.FileBytes, req.PrinterName, req.Copies)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, job)
}

// ListPrinters enumerates printers
func (s *PrintService) ListPrinters(ctx context.Context) ([]PrinterInfo, error) {
	printers, err := s.enumerator.ListPrinters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate printers: %w", err)
	}
	result := make([]PrinterInfo, 0, len(printers))
	for _, p := range printers {
		result = append(result, s.describe(p))
	}
	return result, nil
}

// CheckPrinter looks up one printer by exact name
func (s *PrintService) CheckPrinter(ctx context.Context, name string) (*PrinterInfo, error) {
	printers, err := s.enumerator.ListPrinters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate printers: %w", err)
	}
	p, ok := printing.FindPrinter(name, printers)
	if !ok {
		return nil, ErrPrinterNotFound
	}
	info := s.describe(p)
	return &info, nil
}

// GetJob returns the tracked snapshot of a job
func (s *PrintService) GetJob(ctx context.Context, id uuid.UUID) (*printing.JobSnapshot, error) {
	if s.tracker == nil {
		return nil, ErrJobNotFound
	}
	return s.tracker.Get(ctx, id)
}

// System describes the host
func (s *PrintService) System() SystemInfo {
	return SystemInfo{
		OS:       runtime.GOOS,
		Platform: string(s.platform),
		Version:  s.version,
	}
}

// Platform returns the host platform
func (s *PrintService) Platform() printing.Platform {
	return s.platform
}

func (s *PrintService) describe(p printing.PrinterDescriptor) PrinterInfo {
	return PrinterInfo{
		PrinterDescriptor: p,
		Class:             printing.Classify(p.Name, p),
		StatusString:      printing.DescribeStatus(s.platform, p.StatusCode),
		StatusClass:       printing.ClassifyStatus(s.platform, p.StatusCode),
	}
}
