package printing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	defaultReadyTimeout = 60 * time.Second
	defaultPollInterval = 100 * time.Millisecond

	readyExpression = `window.__printReady === true || window.__printError !== null`
	errorExpression = `window.__printError || ""`
	pagesExpression = `Array.from(document.querySelectorAll("canvas.page")).map(function (c) {
		return { data: c.toDataURL("image/png"), width: c.width, height: c.height };
	})`
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// RemoteURL is the DevTools websocket URL of a running Chrome. If empty
	// a browser is launched.
	RemoteURL string
	Headless  bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// ReadyTimeout bounds the wait for the viewer to finish rasterizing
	ReadyTimeout time.Duration
	// ViewerBaseURL is where the browser reaches the embedded viewer
	ViewerBaseURL string
	SourceDPI     int
	Logger        *zap.Logger
}

// ChromedpRenderer rasterizes staged documents in headless Chrome through
// the embedded viewer. It keeps one browser for its lifetime and opens a
// fresh tab per document. Calls must be serialized by the caller.
type ChromedpRenderer struct {
	config *ChromedpConfig
	logger *zap.Logger

	mu            sync.Mutex
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

type canvasPage struct {
	Data   string `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewChromedpRenderer creates a renderer. The browser starts on first use.
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.ViewerBaseURL == "" {
		return nil, errors.New("viewer base URL is required")
	}
	if config.ReadyTimeout == 0 {
		config.ReadyTimeout = defaultReadyTimeout
	}
	if config.SourceDPI == 0 {
		config.SourceDPI = printing.RenderSourceDPI
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChromedpRenderer{
		config: config,
		logger: logger,
	}, nil
}

// browser returns a running browser context, starting one if needed
func (r *ChromedpRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}

	if r.allocCancel != nil {
		r.allocCancel()
	}

	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", r.config.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-default-apps", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("disable-sync", true),
			chromedp.Flag("disable-translate", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		if r.config.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	r.browserCtx, r.browserCancel = chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(r.browserCtx); err != nil {
		r.browserCancel()
		r.browserCtx = nil
		return nil, err
	}
	r.logger.Info("rendering browser started", zap.Bool("remote", r.config.RemoteURL != ""))
	return r.browserCtx, nil
}

// Render loads the staged file into the viewer and returns one raster per
// page in document order
func (r *ChromedpRenderer) Render(ctx context.Context, stagedPath string) ([]printing.PageRaster, error) {
	if strings.TrimSpace(stagedPath) == "" {
		return nil, printing.NewRenderError(printing.ErrCodeLoadFailed, "staged path is empty", nil)
	}

	started := time.Now()
	target := ViewerURL(r.config.ViewerBaseURL, stagedPath, r.config.SourceDPI)

	browserCtx, err := r.browser()
	if err != nil {
		return nil, printing.NewRenderError(printing.ErrCodeLoadFailed, "failed to start rendering browser", err)
	}
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var (
		viewerErr string
		raw       []canvasPage
	)
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.Poll(readyExpression, nil,
			chromedp.WithPollingInterval(defaultPollInterval),
			chromedp.WithPollingTimeout(r.config.ReadyTimeout),
		),
		chromedp.Evaluate(errorExpression, &viewerErr),
	)
	if err != nil {
		return nil, r.classify(ctx, err)
	}
	if viewerErr != "" {
		return nil, printing.NewRenderError(printing.ErrCodeLoadFailed, "viewer failed to load document", errors.New(viewerErr))
	}

	if err := chromedp.Run(tabCtx, chromedp.Evaluate(pagesExpression, &raw)); err != nil {
		return nil, r.classify(ctx, err)
	}

	pages, err := decodePages(raw, r.config.SourceDPI)
	if err != nil {
		return nil, err
	}

	r.logger.Info("document rasterized",
		zap.String("path", stagedPath),
		zap.Int("pages", len(pages)),
		zap.Duration("duration", time.Since(started)),
	)
	return pages, nil
}

func (r *ChromedpRenderer) classify(ctx context.Context, err error) error {
	if errors.Is(err, chromedp.ErrPollingTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return printing.NewRenderError(printing.ErrCodeRenderTimeout,
			fmt.Sprintf("document was not ready within %v", r.config.ReadyTimeout), err)
	}
	r.logger.Error("chromedp rendering failed", zap.Error(err))
	return printing.NewRenderError(printing.ErrCodeLoadFailed, "chromedp execution failed", err)
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCancel != nil {
		r.browserCancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	r.browserCtx = nil
	return nil
}

func decodePages(raw []canvasPage, sourceDPI int) ([]printing.PageRaster, error) {
	if len(raw) == 0 {
		return nil, printing.NewRenderError(printing.ErrCodeNoPages, "document rendered no pages", nil)
	}

	pages := make([]printing.PageRaster, 0, len(raw))
	for i, p := range raw {
		if p.Width <= 0 || p.Height <= 0 {
			return nil, printing.NewRenderError(printing.ErrCodeLoadFailed,
				fmt.Sprintf("page %d has no pixels", i+1), nil)
		}
		img, err := dataURLToBytes(p.Data)
		if err != nil {
			return nil, printing.NewRenderError(printing.ErrCodeLoadFailed,
				fmt.Sprintf("page %d image is unreadable", i+1), err)
		}
		pages = append(pages, printing.PageRaster{
			Index:               i,
			PixelWidth:          p.Width,
			PixelHeight:         p.Height,
			Image:               img,
			SourceResolutionDPI: sourceDPI,
		})
	}
	return pages, nil
}

// dataURLToBytes decodes data:image/png;base64,....
func dataURLToBytes(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, ",")
	if idx == -1 || !strings.HasPrefix(dataURL, "data:") {
		return nil, errors.New("invalid data URL format")
	}
	return base64.StdEncoding.DecodeString(dataURL[idx+1:])
}
