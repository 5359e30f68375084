package printing

import (
	"strings"

	"golang.org/x/text/cases"
)

// PrinterDescriptor is one enumerated printer
type PrinterDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	IsDefault   bool   `json:"isDefault"`
	StatusCode  int    `json:"status"`
	// PaperSizeWidth is the default media width in tenths of a millimeter.
	// A zero width counts only when HasPaperSize is set; otherwise the
	// width is unknown.
	PaperSizeWidth int               `json:"paperSizeWidth,omitempty"`
	HasPaperSize   bool              `json:"-"`
	Options        map[string]string `json:"options,omitempty"`
}

// PaperSizeKnown reports whether the printer reported a media width
func (d PrinterDescriptor) PaperSizeKnown() bool {
	return d.HasPaperSize || d.PaperSizeWidth > 0
}

// ResolvePrinter picks the printer for a job: an exact name match, else
// the default printer, else the first printer in the list.
func ResolvePrinter(requested string, printers []PrinterDescriptor) (PrinterDescriptor, error) {
	if len(printers) == 0 {
		return PrinterDescriptor{}, NewPrinterResolutionError(ErrCodeNoPrinters, "no printers available", nil)
	}

	if requested != "" {
		for _, p := range printers {
			if p.Name == requested {
				return p, nil
			}
		}
	}

	for _, p := range printers {
		if p.IsDefault {
			return p, nil
		}
	}

	return printers[0], nil
}

// FindPrinter returns the printer with the exact given name
func FindPrinter(name string, printers []PrinterDescriptor) (PrinterDescriptor, bool) {
	for _, p := range printers {
		if p.Name == name {
			return p, true
		}
	}
	return PrinterDescriptor{}, false
}

// labelKeywords are matched against the case-folded printer name
var labelKeywords = []string{"zebra", "label", "tsc", "dymo", "brother ql"}

// LabelWidthThreshold is the media width, in tenths of a millimeter,
// below which a printer is treated as a label device.
const LabelWidthThreshold = 1000

// Classify tags a printer as Label or Paper
func Classify(name string, descriptor PrinterDescriptor) PrinterClass {
	folded := cases.Fold().String(name)
	for _, kw := range labelKeywords {
		if strings.Contains(folded, kw) {
			return PrinterClassLabel
		}
	}
	if descriptor.PaperSizeKnown() && descriptor.PaperSizeWidth < LabelWidthThreshold {
		return PrinterClassLabel
	}
	return PrinterClassPaper
}
