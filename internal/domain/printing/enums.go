package printing

import "strings"

// JobStatus represents the lifecycle status of a print job
type JobStatus string

const (
	JobStatusReceived         JobStatus = "RECEIVED"
	JobStatusStaged           JobStatus = "STAGED"
	JobStatusPrinterResolved  JobStatus = "PRINTER_RESOLVED"
	JobStatusRendered         JobStatus = "RENDERED"
	JobStatusClassified       JobStatus = "CLASSIFIED"
	JobStatusGeometryComputed JobStatus = "GEOMETRY_COMPUTED"
	JobStatusDispatched       JobStatus = "DISPATCHED"
	JobStatusCompleted        JobStatus = "COMPLETED"
	JobStatusFailed           JobStatus = "FAILED"
)

// pipelineOrder is the forward order of the non-failure statuses
var pipelineOrder = []JobStatus{
	JobStatusReceived,
	JobStatusStaged,
	JobStatusPrinterResolved,
	JobStatusRendered,
	JobStatusClassified,
	JobStatusGeometryComputed,
	JobStatusDispatched,
	JobStatusCompleted,
}

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	return s == JobStatusFailed || s.position() >= 0
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Next returns the status that follows s in the pipeline.
// The second return value is false for terminal statuses.
func (s JobStatus) Next() (JobStatus, bool) {
	pos := s.position()
	if pos < 0 || pos+1 >= len(pipelineOrder) {
		return "", false
	}
	return pipelineOrder[pos+1], true
}

// CanTransitionTo checks if a transition to the target status is allowed.
// Only the immediate forward step is allowed, plus Failed from any
// non-terminal status.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == JobStatusFailed {
		return s.IsValid()
	}
	next, ok := s.Next()
	return ok && next == target
}

func (s JobStatus) position() int {
	for i, st := range pipelineOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// SourceChannel identifies the ingress channel a job arrived on
type SourceChannel string

const (
	SourceChannelHTTPUpload  SourceChannel = "HTTP_UPLOAD"
	SourceChannelSocketEvent SourceChannel = "SOCKET_EVENT"
)

// IsValid checks if the SourceChannel is a valid value
func (c SourceChannel) IsValid() bool {
	return c == SourceChannelHTTPUpload || c == SourceChannelSocketEvent
}

// String returns the string representation of SourceChannel
func (c SourceChannel) String() string {
	return string(c)
}

// PrinterClass tags a printer as a label or sheet device
type PrinterClass string

const (
	PrinterClassLabel PrinterClass = "LABEL"
	PrinterClassPaper PrinterClass = "PAPER"
)

// String returns the string representation of PrinterClass
func (c PrinterClass) String() string {
	return string(c)
}

// GeometryPolicy selects how page geometry is applied to a document
type GeometryPolicy string

const (
	// GeometryPolicyLastPage computes geometry once from the last rendered
	// page and applies it to every page.
	GeometryPolicyLastPage GeometryPolicy = "LAST_PAGE"
	// GeometryPolicyPerPage computes and applies geometry for each page.
	GeometryPolicyPerPage GeometryPolicy = "PER_PAGE"
)

// IsValid checks if the GeometryPolicy is a valid value
func (p GeometryPolicy) IsValid() bool {
	return p == GeometryPolicyLastPage || p == GeometryPolicyPerPage
}

// String returns the string representation of GeometryPolicy
func (p GeometryPolicy) String() string {
	return string(p)
}

// ParseGeometryPolicy parses a policy name, accepting "last_page",
// "last-page", "per_page" and friends. Empty input yields the default.
func ParseGeometryPolicy(s string) (GeometryPolicy, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch normalized {
	case "":
		return GeometryPolicyLastPage, true
	case string(GeometryPolicyLastPage):
		return GeometryPolicyLastPage, true
	case string(GeometryPolicyPerPage):
		return GeometryPolicyPerPage, true
	}
	return "", false
}

// Platform is the host operating system family used to interpret native
// printer status codes
type Platform string

const (
	PlatformWindows Platform = "Windows"
	PlatformMacOS   Platform = "macOS"
	PlatformLinux   Platform = "Linux"
	PlatformFreeBSD Platform = "FreeBSD"
	PlatformOpenBSD Platform = "OpenBSD"
	PlatformSunOS   Platform = "SunOS"
	PlatformAIX     Platform = "AIX"
	PlatformUnknown Platform = "Unknown OS"
)

// PlatformFromGOOS maps a runtime.GOOS value to a Platform
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	case "freebsd":
		return PlatformFreeBSD
	case "openbsd":
		return PlatformOpenBSD
	case "solaris", "illumos":
		return PlatformSunOS
	case "aix":
		return PlatformAIX
	default:
		return PlatformUnknown
	}
}
