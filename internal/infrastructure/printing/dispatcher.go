package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"go.uber.org/zap"
)

// LPDispatcherConfig contains configuration for the lp dispatcher
type LPDispatcherConfig struct {
	Runner   CommandRunner
	LPPath   string
	Composer *PDFComposer
	// WorkDir holds composed documents until lp has spooled them
	WorkDir   string
	FitToPage bool
	Logger    *zap.Logger
}

// LPDispatcher prints composed documents with the CUPS lp command
type LPDispatcher struct {
	config LPDispatcherConfig
	logger *zap.Logger
}

// NewLPDispatcher creates an LPDispatcher
func NewLPDispatcher(config LPDispatcherConfig) (*LPDispatcher, error) {
	if config.Runner == nil {
		config.Runner = ExecRunner{}
	}
	if config.LPPath == "" {
		config.LPPath = "lp"
	}
	if config.Composer == nil {
		config.Composer = NewPDFComposer()
	}
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dispatch work directory: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LPDispatcher{config: config, logger: logger}, nil
}

// Dispatch composes the pages and submits them to lp. lp never shows a
// dialog, so the silent flag needs no handling.
func (d *LPDispatcher) Dispatch(ctx context.Context, req app.DispatchRequest) error {
	doc, err := d.config.Composer.Compose(req.DocumentName, req.Pages, req.Geometry)
	if err != nil {
		return err
	}

	path := filepath.Join(d.config.WorkDir, req.JobID.String()+"-print.pdf")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		return printing.NewDispatchError(printing.ErrCodeDispatchFailed, "failed to write print document", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			d.logger.Warn("failed to remove print document", zap.String("path", path), zap.Error(err))
		}
	}()

	args := LPArgs(req, d.config.FitToPage)
	args = append(args, path)

	out, err := d.config.Runner.Run(ctx, d.config.LPPath, args...)
	if err != nil {
		return printing.NewDispatchError(printing.ErrCodeDispatchFailed,
			fmt.Sprintf("lp failed for printer %q", req.PrinterName), err)
	}

	d.logger.Info("document sent to printer",
		zap.String("job_id", req.JobID.String()),
		zap.String("printer", req.PrinterName),
		zap.Int("copies", req.Copies),
		zap.Int("pages", len(req.Pages)),
		zap.ByteString("lp_output", out),
	)
	return nil
}

// LPArgs builds the lp options for req, excluding the document path. Media
// size comes from the last geometry entry.
func LPArgs(req app.DispatchRequest, fitToPage bool) []string {
	copies := req.Copies
	if copies < 1 {
		copies = printing.DefaultCopies
	}

	args := []string{
		"-d", req.PrinterName,
		"-n", strconv.Itoa(copies),
	}
	if req.DocumentName != "" {
		args = append(args, "-t", req.DocumentName)
	}
	if len(req.Geometry) > 0 {
		g := req.Geometry[len(req.Geometry)-1]
		args = append(args, "-o", fmt.Sprintf("media=Custom.%sx%smm", formatMM(g.PhysicalWidthMM), formatMM(g.PhysicalHeightMM)))
	}
	if req.TargetDPI > 0 {
		args = append(args, "-o", fmt.Sprintf("Resolution=%ddpi", req.TargetDPI))
	}
	margin := formatMM(req.MarginsMM)
	args = append(args,
		"-o", "page-left="+margin,
		"-o", "page-right="+margin,
		"-o", "page-top="+margin,
		"-o", "page-bottom="+margin,
	)
	if fitToPage {
		args = append(args, "-o", "fit-to-page")
	}
	return args
}

func formatMM(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64)
}

// FileDispatcher writes composed documents to a directory instead of a
// printer. Used for dry runs.
type FileDispatcher struct {
	outputDir string
	composer  *PDFComposer
	logger    *zap.Logger
}

// NewFileDispatcher creates a FileDispatcher
func NewFileDispatcher(outputDir string, composer *PDFComposer, logger *zap.Logger) (*FileDispatcher, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if composer == nil {
		composer = NewPDFComposer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileDispatcher{outputDir: outputDir, composer: composer, logger: logger}, nil
}

// Dispatch writes {jobID}-{printer}-x{copies}.pdf to the output directory
func (d *FileDispatcher) Dispatch(ctx context.Context, req app.DispatchRequest) error {
	if err := ctx.Err(); err != nil {
		return printing.NewDispatchError(printing.ErrCodeDispatchFailed, "dispatch cancelled", err)
	}

	doc, err := d.composer.Compose(req.DocumentName, req.Pages, req.Geometry)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s-x%d.pdf", req.JobID, SanitizeFileName(req.PrinterName), req.Copies)
	path := filepath.Join(d.outputDir, name)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return printing.NewDispatchError(printing.ErrCodeDispatchFailed, "failed to write output document", err)
	}

	d.logger.Info("document written",
		zap.String("job_id", req.JobID.String()),
		zap.String("printer", req.PrinterName),
		zap.String("path", path),
	)
	return nil
}

var (
	_ app.Dispatcher        = (*LPDispatcher)(nil)
	_ app.Dispatcher        = (*FileDispatcher)(nil)
	_ app.Stager            = (*FileSystemStager)(nil)
	_ app.Renderer          = (*ChromedpRenderer)(nil)
	_ app.PrinterEnumerator = (*CUPSEnumerator)(nil)
	_ app.PrinterEnumerator = (*StaticEnumerator)(nil)
)
