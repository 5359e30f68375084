package printing

import "math"

const (
	// MillimetersPerInch converts between inches and millimeters
	MillimetersPerInch = 25.4
	// RenderSourceDPI is the resolution the rendering surface rasterizes at
	RenderSourceDPI = 850
	// LabelTargetDPI is the output resolution for label printers
	LabelTargetDPI = 203
	// LabelMarginAdjustmentMM is trimmed from each label dimension
	LabelMarginAdjustmentMM = 2.0

	MinPaperTargetDPI = 203
	MaxPaperTargetDPI = 850
)

// PageRaster is one rendered page
type PageRaster struct {
	Index               int
	PixelWidth          int
	PixelHeight         int
	Image               []byte // PNG
	SourceResolutionDPI int
}

// PageGeometry is the physical sizing applied to a page at dispatch
type PageGeometry struct {
	PhysicalWidthMM       float64 `json:"physicalWidthMM"`
	PhysicalHeightMM      float64 `json:"physicalHeightMM"`
	TargetDPI             int     `json:"targetDPI"`
	OutputPixelWidth      int     `json:"outputPixelWidth"`
	OutputPixelHeight     int     `json:"outputPixelHeight"`
	PageSizeMicronsWidth  int     `json:"pageSizeMicronsWidth"`
	PageSizeMicronsHeight int     `json:"pageSizeMicronsHeight"`
}

// PrinterProfile parameterizes geometry for a printer class
type PrinterProfile struct {
	Class              PrinterClass
	SourceDPI          int
	TargetDPI          int
	MarginAdjustmentMM float64
}

// LabelProfile returns the profile for label printers
func LabelProfile() PrinterProfile {
	return PrinterProfile{
		Class:              PrinterClassLabel,
		SourceDPI:          RenderSourceDPI,
		TargetDPI:          LabelTargetDPI,
		MarginAdjustmentMM: LabelMarginAdjustmentMM,
	}
}

// PaperProfile returns the profile for sheet printers. targetDPI is
// clamped to [MinPaperTargetDPI, MaxPaperTargetDPI]; zero selects the
// maximum.
func PaperProfile(targetDPI int) PrinterProfile {
	switch {
	case targetDPI == 0:
		targetDPI = MaxPaperTargetDPI
	case targetDPI < MinPaperTargetDPI:
		targetDPI = MinPaperTargetDPI
	case targetDPI > MaxPaperTargetDPI:
		targetDPI = MaxPaperTargetDPI
	}
	return PrinterProfile{
		Class:     PrinterClassPaper,
		SourceDPI: RenderSourceDPI,
		TargetDPI: targetDPI,
	}
}

// ProfileFor selects the profile for a printer class
func ProfileFor(class PrinterClass, paperTargetDPI int) PrinterProfile {
	if class == PrinterClassLabel {
		return LabelProfile()
	}
	return PaperProfile(paperTargetDPI)
}

// ComputeGeometry derives the physical sizing of one page. The raster's own
// source resolution wins over the profile's when set.
func ComputeGeometry(page PageRaster, profile PrinterProfile) PageGeometry {
	sourceDPI := profile.SourceDPI
	if page.SourceResolutionDPI > 0 {
		sourceDPI = page.SourceResolutionDPI
	}
	if sourceDPI <= 0 {
		sourceDPI = RenderSourceDPI
	}

	widthMM := pixelsToMM(page.PixelWidth, sourceDPI) - profile.MarginAdjustmentMM
	heightMM := pixelsToMM(page.PixelHeight, sourceDPI) - profile.MarginAdjustmentMM
	widthMM = math.Max(widthMM, 0)
	heightMM = math.Max(heightMM, 0)

	return PageGeometry{
		PhysicalWidthMM:       widthMM,
		PhysicalHeightMM:      heightMM,
		TargetDPI:             profile.TargetDPI,
		OutputPixelWidth:      mmToPixels(widthMM, profile.TargetDPI),
		OutputPixelHeight:     mmToPixels(heightMM, profile.TargetDPI),
		PageSizeMicronsWidth:  mmToMicrons(widthMM),
		PageSizeMicronsHeight: mmToMicrons(heightMM),
	}
}

// ComputeDocumentGeometry returns one geometry per page, in page order.
// Under GeometryPolicyLastPage every entry is the last page's geometry.
func ComputeDocumentGeometry(pages []PageRaster, profile PrinterProfile, policy GeometryPolicy) []PageGeometry {
	if len(pages) == 0 {
		return nil
	}

	result := make([]PageGeometry, len(pages))
	if policy == GeometryPolicyPerPage {
		for i, page := range pages {
			result[i] = ComputeGeometry(page, profile)
		}
		return result
	}

	last := ComputeGeometry(pages[len(pages)-1], profile)
	for i := range result {
		result[i] = last
	}
	return result
}

func pixelsToMM(px, dpi int) float64 {
	return float64(px) * MillimetersPerInch / float64(dpi)
}

func mmToPixels(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / MillimetersPerInch))
}

func mmToMicrons(mm float64) int {
	return int(math.Round(mm * 1000))
}
