package printing

// StatusClass is the coarse classification of a native printer status code
type StatusClass string

const (
	StatusClassSuccess      StatusClass = "Success"
	StatusClassError        StatusClass = "Error"
	StatusClassNotConnected StatusClass = "Not Connected"
	StatusClassIdle         StatusClass = "Idle"
	StatusClassUnknown      StatusClass = "Unknown"
)

type statusKey struct {
	platform Platform
	code     int
}

var statusClasses = map[statusKey]StatusClass{
	{PlatformWindows, 0}:   StatusClassSuccess,
	{PlatformWindows, 2}:   StatusClassError,
	{PlatformWindows, 3}:   StatusClassNotConnected,
	{PlatformWindows, 4}:   StatusClassError,
	{PlatformWindows, 8}:   StatusClassError,
	{PlatformWindows, 16}:  StatusClassError,
	{PlatformWindows, 32}:  StatusClassError,
	{PlatformWindows, 64}:  StatusClassError,
	{PlatformWindows, 128}: StatusClassError,

	{PlatformMacOS, 0}: StatusClassSuccess,
	{PlatformMacOS, 3}: StatusClassNotConnected,
	{PlatformMacOS, 4}: StatusClassError,
	{PlatformMacOS, 5}: StatusClassError,

	// CUPS printer-state values
	{PlatformLinux, 3}: StatusClassIdle,
	{PlatformLinux, 4}: StatusClassSuccess,
	{PlatformLinux, 5}: StatusClassError,
}

var statusDescriptions = map[statusKey]string{
	{PlatformWindows, 0}:   "Ready/Idle",
	{PlatformWindows, 1}:   "Paused",
	{PlatformWindows, 2}:   "Error",
	{PlatformWindows, 4}:   "Pending Deletion",
	{PlatformWindows, 8}:   "Paper Jam",
	{PlatformWindows, 16}:  "Paper Out",
	{PlatformWindows, 32}:  "Manual Feed Required",
	{PlatformWindows, 64}:  "Paper Problem",
	{PlatformWindows, 128}: "Offline",

	{PlatformMacOS, 0}: "No Error",
	{PlatformMacOS, 3}: "Offline/Not Connected",
	{PlatformMacOS, 4}: "Out of Paper",
	{PlatformMacOS, 5}: "Paper Jam",

	{PlatformLinux, 3}: "Idle",
	{PlatformLinux, 4}: "Printing",
	{PlatformLinux, 5}: "Stopped/Error",
}

// ClassifyStatus maps a native status code to a StatusClass for the platform
func ClassifyStatus(platform Platform, code int) StatusClass {
	if class, ok := statusClasses[statusKey{platform, code}]; ok {
		return class
	}
	return StatusClassUnknown
}

// DescribeStatus returns a human-readable description of a native status code
func DescribeStatus(platform Platform, code int) string {
	switch platform {
	case PlatformWindows, PlatformMacOS, PlatformLinux:
	default:
		return "Printer status detection not supported for this OS."
	}
	if desc, ok := statusDescriptions[statusKey{platform, code}]; ok {
		return desc
	}
	return "Unknown Status"
}
