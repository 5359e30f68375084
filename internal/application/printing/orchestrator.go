package printing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/shared"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrchestratorConfig holds orchestrator configuration
type OrchestratorConfig struct {
	QueueSize      int
	JobTimeout     time.Duration
	GeometryPolicy printing.GeometryPolicy
	PaperTargetDPI int
}

// DefaultOrchestratorConfig returns default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		QueueSize:      100,
		JobTimeout:     2 * time.Minute,
		GeometryPolicy: printing.GeometryPolicyLastPage,
		PaperTargetDPI: printing.MaxPaperTargetDPI,
	}
}

// Result is the terminal outcome of a job
type Result struct {
	JobID    uuid.UUID
	Snapshot printing.JobSnapshot
	Err      *printing.JobError
}

// Succeeded reports whether the job completed
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Snapshot.Status == printing.JobStatusCompleted
}

// Ticket is the handle an ingress adapter waits on for a job's result.
// Exactly one Result is delivered per ticket.
type Ticket struct {
	JobID   uuid.UUID
	Channel printing.SourceChannel
	done    chan Result
}

func newTicket(job *printing.PrintJob) *Ticket {
	return &Ticket{
		JobID:   job.ID,
		Channel: job.Channel,
		done:    make(chan Result, 1),
	}
}

// Done returns a channel that receives the job's result
func (t *Ticket) Done() <-chan Result {
	return t.done
}

// Wait blocks until the job finishes or ctx is done
func (t *Ticket) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-t.done:
		return r, nil
	case <-ctx.Done():
		return Result{JobID: t.JobID}, ctx.Err()
	}
}

type queuedJob struct {
	ctx    context.Context
	job    *printing.PrintJob
	ticket *Ticket
}

// Orchestrator runs print jobs one at a time through
// Stage, Resolve, Render, Classify, Geometry and Dispatch.
// A single worker drains a bounded FIFO queue, so the renderer and
// dispatcher are never used concurrently.
type Orchestrator struct {
	config     OrchestratorConfig
	stager     Stager
	enumerator PrinterEnumerator
	renderer   Renderer
	dispatcher Dispatcher
	publisher  shared.EventPublisher
	logger     *zap.Logger

	queue     chan *queuedJob
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
}

// NewOrchestrator creates a new orchestrator. publisher may be nil.
func NewOrchestrator(
	config OrchestratorConfig,
	stager Stager,
	enumerator PrinterEnumerator,
	renderer Renderer,
	dispatcher Dispatcher,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultOrchestratorConfig().QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultOrchestratorConfig().JobTimeout
	}
	if config.GeometryPolicy == "" {
		config.GeometryPolicy = printing.GeometryPolicyLastPage
	}
	return &Orchestrator{
		config:     config,
		stager:     stager,
		enumerator: enumerator,
		renderer:   renderer,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// Start starts the worker
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isRunning {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.queue = make(chan *queuedJob, o.config.QueueSize)
	o.done = make(chan struct{})
	o.isRunning = true

	go o.worker(ctx, o.queue, o.done)

	o.logger.Info("Print orchestrator started",
		zap.Int("queue_size", o.config.QueueSize),
		zap.Duration("job_timeout", o.config.JobTimeout),
		zap.String("geometry_policy", o.config.GeometryPolicy.String()),
	)
	return nil
}

// Stop stops accepting jobs and waits for queued jobs to drain. If ctx
// ends first, in-flight work is cancelled and every remaining job fails.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.isRunning {
		o.mu.Unlock()
		return nil
	}
	o.isRunning = false
	close(o.queue)
	done := o.done
	cancel := o.cancel
	o.mu.Unlock()

	select {
	case <-done:
		cancel()
		o.logger.Info("Print orchestrator stopped gracefully")
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		o.logger.Warn("Print orchestrator stop timed out, pending jobs were cancelled")
		return ctx.Err()
	}
}

// IsRunning reports whether the orchestrator accepts jobs
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isRunning
}

// QueueDepth returns the number of jobs waiting for the worker
func (o *Orchestrator) QueueDepth() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queue == nil {
		return 0
	}
	return len(o.queue)
}

// Submit enqueues a freshly received job without blocking. A rejected
// job is failed and its events are still published.
func (o *Orchestrator) Submit(ctx context.Context, job *printing.PrintJob) (*Ticket, error) {
	if job == nil || job.Status != printing.JobStatusReceived {
		return nil, ErrInvalidJob
	}

	ticket := newTicket(job)
	o.publish(ctx, job)

	o.mu.Lock()
	if !o.isRunning {
		o.mu.Unlock()
		o.reject(ctx, job, printing.NewIngressError(printing.ErrCodeNotRunning, ErrOrchestratorNotRunning.Error(), nil))
		return nil, ErrOrchestratorNotRunning
	}

	select {
	case o.queue <- &queuedJob{ctx: context.WithoutCancel(ctx), job: job, ticket: ticket}:
		o.mu.Unlock()
		o.logger.Debug("Print job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("channel", job.Channel.String()),
		)
		return ticket, nil
	default:
		o.mu.Unlock()
		o.reject(ctx, job, printing.NewIngressError(printing.ErrCodeQueueFull, ErrQueueFull.Error(), nil))
		return nil, ErrQueueFull
	}
}

func (o *Orchestrator) reject(ctx context.Context, job *printing.PrintJob, cause *printing.JobError) {
	if err := job.Fail(cause); err != nil {
		o.logger.Error("Failed to mark rejected job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	o.publish(ctx, job)
	o.logger.Warn("Print job rejected",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", cause.Code),
	)
}

func (o *Orchestrator) worker(ctx context.Context, queue <-chan *queuedJob, done chan<- struct{}) {
	defer close(done)

	for q := range queue {
		o.process(ctx, q)
	}
}

// process runs one job end to end and delivers its Result
func (o *Orchestrator) process(ctx context.Context, q *queuedJob) {
	job := q.job
	log := o.logger.With(zap.String("job_id", job.ID.String()))

	jobCtx, cancel := context.WithTimeout(ctx, o.config.JobTimeout)
	defer cancel()
	jobCtx = telemetry.ContextWithSpan(jobCtx, telemetry.SpanFromContext(q.ctx))
	jobCtx, span := telemetry.StartServiceSpan(jobCtx, "print_job", "process",
		telemetry.WithAttribute("job.id", job.ID.String()),
		telemetry.WithAttribute("job.channel", job.Channel.String()),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		o.failJob(q.ctx, job, printing.NewDispatchError(printing.ErrCodeInternal, "orchestrator stopped before job ran", err), log)
	} else {
		log.Info("Processing print job",
			zap.String("channel", job.Channel.String()),
			zap.String("file_name", job.FileName),
			zap.String("requested_printer", job.RequestedPrinterName),
			zap.Int("copies", job.Copies),
		)
		start := time.Now()
		if err := o.run(jobCtx, q.ctx, job, log); err != nil {
			jobErr := printing.AsJobError(err)
			telemetry.RecordError(span, jobErr)
			o.failJob(q.ctx, job, jobErr, log)
		} else {
			telemetry.SetAttribute(span, "job.printer", job.PrinterName())
			telemetry.SetOK(span)
			log.Info("Print job completed",
				zap.String("printer", job.PrinterName()),
				zap.String("class", job.Class.String()),
				zap.Int("pages", len(job.Pages)),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}

	q.ticket.done <- Result{
		JobID:    job.ID,
		Snapshot: job.Snapshot(),
		Err:      job.ErrorDetail,
	}
	close(q.ticket.done)
}

func (o *Orchestrator) failJob(ctx context.Context, job *printing.PrintJob, cause *printing.JobError, log *zap.Logger) {
	if err := job.Fail(cause); err != nil {
		log.Error("Failed to mark job as failed", zap.Error(err))
	}
	o.publish(ctx, job)
	log.Error("Print job failed",
		zap.String("status", job.Status.String()),
		zap.String("error_kind", string(cause.Kind)),
		zap.String("error_code", cause.Code),
		zap.Error(cause),
	)
}

// run executes the pipeline stages. Panics are converted to internal
// dispatch errors. Events are published with pubCtx so they survive the
// job deadline.
func (o *Orchestrator) run(ctx, pubCtx context.Context, job *printing.PrintJob, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Print pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = printing.NewDispatchError(printing.ErrCodeInternal, fmt.Sprintf("pipeline panic: %v", r), nil)
		}
	}()

	stages := []struct {
		name string
		fn   func(context.Context, *printing.PrintJob) error
	}{
		{"stage", o.stage},
		{"resolve", o.resolve},
		{"render", o.render},
		{"classify", o.classify},
		{"geometry", o.geometry},
		{"dispatch", o.dispatch},
		{"complete", func(_ context.Context, j *printing.PrintJob) error {
			return transition(j.Complete(), printing.NewDispatchError)
		}},
	}

	for _, st := range stages {
		stageCtx, span := telemetry.StartServiceSpan(ctx, "print_job", st.name)
		started := time.Now()
		stageErr := st.fn(stageCtx, job)
		if stageErr != nil {
			telemetry.RecordError(span, stageErr)
		}
		span.End()
		telemetry.AddEvent(telemetry.SpanFromContext(ctx), st.name, "status", job.Status.String())
		log.Debug("Pipeline stage finished",
			zap.String("stage", st.name),
			zap.String("status", job.Status.String()),
			zap.Duration("duration", time.Since(started)),
			zap.Error(stageErr),
		)
		o.publish(pubCtx, job)
		if stageErr != nil {
			return stageErr
		}
	}
	return nil
}

func (o *Orchestrator) stage(ctx context.Context, job *printing.PrintJob) error {
	path, err := o.stager.Stage(ctx, job.ID, job.FileName, job.FileBytes)
	if err != nil {
		return asKind(err, printing.ErrStaging, func() *printing.JobError {
			return printing.NewStagingError(printing.ErrCodeWriteFailed, "File save failed", err)
		})
	}
	return transition(job.MarkStaged(path), printing.NewStagingError)
}

func (o *Orchestrator) resolve(ctx context.Context, job *printing.PrintJob) error {
	printers, err := o.enumerator.ListPrinters(ctx)
	if err != nil {
		return asKind(err, printing.ErrPrinterResolution, func() *printing.JobError {
			return printing.NewPrinterResolutionError(printing.ErrCodeEnumerationFailed, "failed to enumerate printers", err)
		})
	}
	printer, err := printing.ResolvePrinter(job.RequestedPrinterName, printers)
	if err != nil {
		return err
	}
	return transition(job.MarkPrinterResolved(printer), printing.NewPrinterResolutionError)
}

func (o *Orchestrator) render(ctx context.Context, job *printing.PrintJob) error {
	pages, err := o.renderer.Render(ctx, job.StagedPath)
	if err != nil {
		return asKind(err, printing.ErrRender, func() *printing.JobError {
			if errors.Is(err, context.DeadlineExceeded) {
				return printing.NewRenderError(printing.ErrCodeRenderTimeout, "document did not become ready in time", err)
			}
			return printing.NewRenderError(printing.ErrCodeLoadFailed, "failed to load document", err)
		})
	}
	if len(pages) == 0 {
		return printing.NewRenderError(printing.ErrCodeNoPages, "document rendered no pages", nil)
	}
	return transition(job.MarkRendered(pages), printing.NewRenderError)
}

func (o *Orchestrator) classify(_ context.Context, job *printing.PrintJob) error {
	return transition(job.MarkClassified(printing.Classify(job.Printer.Name, *job.Printer)), printing.NewRenderError)
}

func (o *Orchestrator) geometry(_ context.Context, job *printing.PrintJob) error {
	profile := printing.ProfileFor(job.Class, o.config.PaperTargetDPI)
	geometry := printing.ComputeDocumentGeometry(job.Pages, profile, o.config.GeometryPolicy)
	return transition(job.MarkGeometryComputed(geometry), printing.NewRenderError)
}

func (o *Orchestrator) dispatch(ctx context.Context, job *printing.PrintJob) error {
	req := DispatchRequest{
		JobID:           job.ID,
		DocumentName:    job.FileName,
		PrinterName:     job.Printer.Name,
		Class:           job.Class,
		Pages:           job.Pages,
		Geometry:        job.Geometry,
		Copies:          job.Copies,
		Silent:          true,
		PrintBackground: false,
		MarginsMM:       0,
		TargetDPI:       job.Geometry[len(job.Geometry)-1].TargetDPI,
	}
	if err := o.dispatcher.Dispatch(ctx, req); err != nil {
		return asKind(err, printing.ErrDispatch, func() *printing.JobError {
			return printing.NewDispatchError(printing.ErrCodeDispatchFailed, "native print failed", err)
		})
	}
	return transition(job.MarkDispatched(), printing.NewDispatchError)
}

// transition reports a rejected state change as a JobError of the stage's kind
func transition(err error, newErr func(code, message string, cause error) *printing.JobError) error {
	if err == nil {
		return nil
	}
	return newErr(printing.ErrCodeInvalidState, "job rejected stage result", err)
}

// asKind keeps err if it already carries the stage's error kind, else wraps it
func asKind(err error, kind *printing.JobError, wrap func() *printing.JobError) error {
	if errors.Is(err, kind) {
		return err
	}
	return wrap()
}

func (o *Orchestrator) publish(ctx context.Context, job *printing.PrintJob) {
	events := job.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	job.ClearDomainEvents()
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, events...); err != nil {
		o.logger.Warn("Failed to publish print job events",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
