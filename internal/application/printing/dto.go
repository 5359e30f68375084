package printing

import (
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

// SubmitRequest carries one decoded print request from an ingress adapter
type SubmitRequest struct {
	Channel     printing.SourceChannel
	FileName    string
	FileBytes   []byte
	PrinterName string
	Copies      int
}

// PrinterInfo is an enumerated printer enriched with its classification
// and a human-readable status for the host platform
type PrinterInfo struct {
	printing.PrinterDescriptor
	Class        printing.PrinterClass `json:"class"`
	StatusString string                `json:"statusString"`
	StatusClass  printing.StatusClass  `json:"statusClass"`
}

// SystemInfo describes the host the bridge runs on
type SystemInfo struct {
	OS       string `json:"os"`
	Platform string `json:"platform"`
	Version  string `json:"version"`
}
