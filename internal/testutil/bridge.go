// Package testutil provides fixtures shared by the bridge's package tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
	infraprinting "github.com/ythchandraap/expert-printer-guide/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// PNGPage renders a solid page of the given size as a raster
func PNGPage(t *testing.T, index, width, height int) printing.PageRaster {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return printing.PageRaster{
		Index:               index,
		PixelWidth:          width,
		PixelHeight:         height,
		Image:               buf.Bytes(),
		SourceResolutionDPI: printing.RenderSourceDPI,
	}
}

// FakeRenderer returns fixed pages or a fixed error. A non-nil Block
// channel holds every render until it is closed.
type FakeRenderer struct {
	Pages []printing.PageRaster
	Err   error
	Block chan struct{}

	mu    sync.Mutex
	paths []string
}

// Render implements app.Renderer
func (r *FakeRenderer) Render(ctx context.Context, stagedPath string) ([]printing.PageRaster, error) {
	r.mu.Lock()
	r.paths = append(r.paths, stagedPath)
	r.mu.Unlock()

	if r.Block != nil {
		select {
		case <-r.Block:
		case <-ctx.Done():
			return nil, printing.NewRenderError(printing.ErrCodeRenderTimeout, "render cancelled", ctx.Err())
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Pages, nil
}

// Paths returns every staged path rendered so far
func (r *FakeRenderer) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// RecordingDispatcher records dispatch requests and returns Err
type RecordingDispatcher struct {
	Err error

	mu       sync.Mutex
	requests []app.DispatchRequest
}

// Dispatch implements app.Dispatcher
func (d *RecordingDispatcher) Dispatch(_ context.Context, req app.DispatchRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	return d.Err
}

// Requests returns the recorded requests
func (d *RecordingDispatcher) Requests() []app.DispatchRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]app.DispatchRequest(nil), d.requests...)
}

// Bridge is a running print service backed by a temp staging directory,
// a static printer list and in-memory fakes for rendering and dispatch
type Bridge struct {
	Service      *app.PrintService
	Orchestrator *app.Orchestrator
	Stager       *infraprinting.FileSystemStager
	Renderer     *FakeRenderer
	Dispatcher   *RecordingDispatcher
	Printers     []printing.PrinterDescriptor
}

// BridgeOption customizes NewBridge
type BridgeOption func(*bridgeOptions)

type bridgeOptions struct {
	printers   []printing.PrinterDescriptor
	config     app.OrchestratorConfig
	tracker    app.JobTracker
	publisher  shared.EventPublisher
	renderer   *FakeRenderer
	dispatcher *RecordingDispatcher
	notStarted bool
}

// WithPrinters sets the enumerated printers
func WithPrinters(printers ...printing.PrinterDescriptor) BridgeOption {
	return func(o *bridgeOptions) { o.printers = printers }
}

// WithOrchestratorConfig overrides the orchestrator configuration
func WithOrchestratorConfig(cfg app.OrchestratorConfig) BridgeOption {
	return func(o *bridgeOptions) { o.config = cfg }
}

// WithTracker sets the job tracker queried by GetJob
func WithTracker(tracker app.JobTracker) BridgeOption {
	return func(o *bridgeOptions) { o.tracker = tracker }
}

// WithPublisher sets the publisher job events go to
func WithPublisher(publisher shared.EventPublisher) BridgeOption {
	return func(o *bridgeOptions) { o.publisher = publisher }
}

// WithRenderer replaces the default renderer
func WithRenderer(r *FakeRenderer) BridgeOption {
	return func(o *bridgeOptions) { o.renderer = r }
}

// WithDispatcher replaces the default dispatcher
func WithDispatcher(d *RecordingDispatcher) BridgeOption {
	return func(o *bridgeOptions) { o.dispatcher = d }
}

// NotStarted leaves the orchestrator stopped
func NotStarted() BridgeOption {
	return func(o *bridgeOptions) { o.notStarted = true }
}

// NewBridge builds a print service whose orchestrator is stopped on test cleanup
func NewBridge(t *testing.T, opts ...BridgeOption) *Bridge {
	t.Helper()

	o := &bridgeOptions{
		printers: []printing.PrinterDescriptor{
			{Name: "Office Laser", DisplayName: "Office Laser", IsDefault: true, StatusCode: 3, PaperSizeWidth: 2100},
			{Name: "Zebra ZD420", DisplayName: "Zebra ZD420", StatusCode: 3, PaperSizeWidth: 1000},
		},
		config: app.DefaultOrchestratorConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = &FakeRenderer{Pages: []printing.PageRaster{PNGPage(t, 0, 85, 85)}}
	}
	if o.dispatcher == nil {
		o.dispatcher = &RecordingDispatcher{}
	}

	stager, err := infraprinting.NewFileSystemStager(&infraprinting.FileSystemStagerConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	enumerator := infraprinting.NewStaticEnumerator(o.printers)
	orch := app.NewOrchestrator(o.config, stager, enumerator, o.renderer, o.dispatcher, o.publisher, zap.NewNop())
	if !o.notStarted {
		require.NoError(t, orch.Start(context.Background()))
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = orch.Stop(ctx)
		})
	}

	svc := app.NewPrintService(orch, enumerator, o.tracker, zap.NewNop(),
		app.WithPlatform(printing.PlatformLinux),
		app.WithVersion("test"),
	)

	return &Bridge{
		Service:      svc,
		Orchestrator: orch,
		Stager:       stager,
		Renderer:     o.renderer,
		Dispatcher:   o.dispatcher,
		Printers:     o.printers,
	}
}
