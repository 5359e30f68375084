package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/cache"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/config"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/event"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/network"
	infraprinting "github.com/ythchandraap/expert-printer-guide/internal/infrastructure/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/storage"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/telemetry"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/handler"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/middleware"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/router"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/socket"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the print bridge (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLog, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// OTLP log export tees into the main logger
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: logProvider,
		Level:          logger.ParseLevel(cfg.Log.Level),
	}))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting print bridge",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Event bus and subscribers
	eventBus := event.NewInMemoryEventBus(log)

	tracker, err := cache.NewJobTrackerFactory(cfg.Tracker, cfg.Redis, cache.WithLogger(log)).CreateTracker()
	if err != nil {
		return fmt.Errorf("failed to create job tracker: %w", err)
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			log.Error("Error closing job tracker", zap.Error(err))
		}
	}()

	eventBus.Subscribe(event.NewPrintJobLogHandler(log))
	eventBus.Subscribe(cache.NewJobTrackerHandler(tracker))

	// Pipeline
	stager, err := infraprinting.NewFileSystemStager(&infraprinting.FileSystemStagerConfig{
		BaseDir: cfg.Staging.Dir,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("failed to prepare staging directory: %w", err)
	}

	renderer, err := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
		RemoteURL:     cfg.Renderer.RemoteURL,
		Headless:      cfg.Renderer.Headless,
		NoSandbox:     cfg.Renderer.NoSandbox,
		ReadyTimeout:  cfg.Renderer.ReadyTimeout,
		ViewerBaseURL: cfg.Renderer.ViewerBaseURL,
		SourceDPI:     cfg.Renderer.SourceDPI,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer func() { _ = renderer.Close() }()

	enumerator := newEnumerator(cfg, log)

	dispatcher, err := newDispatcher(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	orchestrator := app.NewOrchestrator(app.OrchestratorConfig{
		QueueSize:      cfg.Pipeline.QueueSize,
		JobTimeout:     cfg.Pipeline.JobTimeout,
		GeometryPolicy: cfg.Pipeline.Policy(),
		PaperTargetDPI: cfg.Pipeline.PaperTargetDPI,
	}, stager, enumerator, renderer, dispatcher, eventBus, log)

	printMetrics, err := telemetry.NewPrintMetrics(meterProvider.Meter("expert-printer-guide/printing"), orchestrator.QueueDepth)
	if err != nil {
		return fmt.Errorf("failed to create print metrics: %w", err)
	}
	eventBus.Subscribe(printMetrics)

	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if err := orchestrator.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := orchestrator.Stop(stopCtx); err != nil {
			log.Error("Error stopping orchestrator", zap.Error(err))
		}
	}()

	sweeper, err := newSweeper(ctx, cfg, stager, log)
	if err != nil {
		return err
	}
	sweeper.Start(context.WithoutCancel(ctx))
	defer sweeper.Stop()

	printService := app.NewPrintService(orchestrator, enumerator, tracker, log, app.WithVersion(version))

	hub := socket.NewHub(printService, socket.HubConfig{
		PushInterval:   cfg.Socket.PushInterval,
		ResultWait:     cfg.HTTP.ResultWait,
		MaxMessageSize: base64Size(cfg.HTTP.MaxBodySize) + 64<<10,
	}, socket.WithLogger(log))

	engine, err := newEngine(cfg, log, meterProvider, printService, stager, hub)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := hub.Close(shutdownCtx); err != nil {
		log.Warn("Socket connections did not close in time", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("Server exited gracefully")
	return nil
}

// newEngine assembles the gin engine with the middleware stack and every
// route group
func newEngine(
	cfg *config.Config,
	log *zap.Logger,
	meterProvider *telemetry.MeterProvider,
	printService *app.PrintService,
	stager *infraprinting.FileSystemStager,
	hub *socket.Hub,
) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	viewerPage, err := infraprinting.ViewerPage(cfg.Renderer.PDFJSURL, cfg.Renderer.SourceDPI)
	if err != nil {
		return nil, err
	}

	engine := gin.New()

	// Apply middleware stack in order:
	// 1. RequestID
	// 2. Recovery
	// 3. Tracing, then span enrichment
	// 4. Metrics
	// 5. Logger
	// 6. CORS
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log, "/health", infraprinting.ViewerDocumentPath))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))

	system := handler.NewSystemHandler(printService, network.LocalIP)

	router.NewRouter(engine).
		Register(handler.ConnectRoutes(
			handler.NewPrintHandler(printService, cfg.HTTP.ResultWait),
			handler.NewJobHandler(printService),
			handler.NewPrinterHandler(printService),
			system,
			cfg.HTTP.MaxBodySize,
		)).
		Register(handler.HealthRoutes(system)).
		Register(handler.ViewerRoutes(handler.NewViewerHandler(viewerPage, stager))).
		Register(socket.Routes(hub, cfg.Socket.Path)).
		Setup()

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

func newEnumerator(cfg *config.Config, log *zap.Logger) app.PrinterEnumerator {
	if cfg.Printers.Backend == "static" {
		return infraprinting.NewStaticEnumerator(cfg.Printers.Descriptors())
	}
	return infraprinting.NewCUPSEnumerator(infraprinting.CUPSEnumeratorConfig{
		LPStatPath:    cfg.Printers.LPStatPath,
		LPOptionsPath: cfg.Printers.LPOptionsPath,
		Logger:        log,
	})
}

func newDispatcher(cfg *config.Config, log *zap.Logger) (app.Dispatcher, error) {
	composer := infraprinting.NewPDFComposer()
	if cfg.Dispatch.Backend == "file" {
		return infraprinting.NewFileDispatcher(cfg.Dispatch.OutputDir, composer, log)
	}
	return infraprinting.NewLPDispatcher(infraprinting.LPDispatcherConfig{
		LPPath:    cfg.Dispatch.LPPath,
		Composer:  composer,
		WorkDir:   cfg.Dispatch.OutputDir,
		FitToPage: cfg.Dispatch.FitToPage,
		Logger:    log,
	})
}

func newSweeper(ctx context.Context, cfg *config.Config, stager *infraprinting.FileSystemStager, log *zap.Logger) (*infraprinting.RetentionSweeper, error) {
	sweeperCfg := infraprinting.SweeperConfig{
		Retention: cfg.Staging.Retention,
		Interval:  cfg.Staging.SweepInterval,
		Logger:    log,
	}

	if cfg.Archive.Enabled {
		archiver, err := storage.NewS3Archiver(&cfg.Archive, storage.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			log.Warn("Archive bucket is not ready, swept files stay local until it is", zap.Error(err))
		}
		sweeperCfg.Archiver = archiver
		sweeperCfg.ArchivePrefix = cfg.Archive.Prefix
	}

	return infraprinting.NewRetentionSweeper(stager, sweeperCfg), nil
}

// base64Size is the encoded length of n raw bytes
func base64Size(n int64) int64 {
	return (n + 2) / 3 * 4
}
