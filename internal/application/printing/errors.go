package printing

import "errors"

var (
	// ErrOrchestratorNotRunning is returned when submitting to a stopped orchestrator
	ErrOrchestratorNotRunning = errors.New("print orchestrator is not running")

	// ErrQueueFull is returned when the job queue is full
	ErrQueueFull = errors.New("job queue is full")

	// ErrJobNotFound is returned when a job is unknown or has expired from the tracker
	ErrJobNotFound = errors.New("job not found")

	// ErrPrinterNotFound is returned when a named printer is not installed
	ErrPrinterNotFound = errors.New("printer not found")

	// ErrInvalidJob is returned when a job that is not freshly received is submitted
	ErrInvalidJob = errors.New("job is not in received status")
)
