package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGeometry_PaperRoundTrip(t *testing.T) {
	page := PageRaster{PixelWidth: 850, PixelHeight: 1700, SourceResolutionDPI: 850}

	geo := ComputeGeometry(page, PaperProfile(203))

	assert.InDelta(t, 25.4, geo.PhysicalWidthMM, 1e-9)
	assert.InDelta(t, 50.8, geo.PhysicalHeightMM, 1e-9)
	assert.Equal(t, 203, geo.TargetDPI)
	assert.Equal(t, 203, geo.OutputPixelWidth)
	assert.Equal(t, 406, geo.OutputPixelHeight)
	assert.Equal(t, 25400, geo.PageSizeMicronsWidth)
	assert.Equal(t, 50800, geo.PageSizeMicronsHeight)
}

func TestComputeGeometry_Label(t *testing.T) {
	// 4x6 inch label rendered at 850 dpi
	page := PageRaster{PixelWidth: 3400, PixelHeight: 5100, SourceResolutionDPI: RenderSourceDPI}

	geo := ComputeGeometry(page, LabelProfile())

	assert.InDelta(t, 99.6, geo.PhysicalWidthMM, 1e-9)
	assert.InDelta(t, 150.4, geo.PhysicalHeightMM, 1e-9)
	assert.Equal(t, LabelTargetDPI, geo.TargetDPI)
	assert.Equal(t, 796, geo.OutputPixelWidth)
	assert.Equal(t, 1202, geo.OutputPixelHeight)
	assert.Equal(t, 99600, geo.PageSizeMicronsWidth)
	assert.Equal(t, 150400, geo.PageSizeMicronsHeight)
}

func TestComputeGeometry_MarginNeverNegative(t *testing.T) {
	page := PageRaster{PixelWidth: 10, PixelHeight: 10, SourceResolutionDPI: RenderSourceDPI}

	geo := ComputeGeometry(page, LabelProfile())

	assert.Zero(t, geo.PhysicalWidthMM)
	assert.Zero(t, geo.PhysicalHeightMM)
	assert.Zero(t, geo.OutputPixelWidth)
	assert.Zero(t, geo.PageSizeMicronsHeight)
}

func TestComputeGeometry_ProfileSourceDPIFallback(t *testing.T) {
	page := PageRaster{PixelWidth: 850, PixelHeight: 850}

	geo := ComputeGeometry(page, PaperProfile(0))

	assert.InDelta(t, 25.4, geo.PhysicalWidthMM, 1e-9)
	assert.Equal(t, MaxPaperTargetDPI, geo.TargetDPI)
	assert.Equal(t, 850, geo.OutputPixelWidth)
}

func TestPaperProfile_Clamp(t *testing.T) {
	assert.Equal(t, MaxPaperTargetDPI, PaperProfile(0).TargetDPI)
	assert.Equal(t, MinPaperTargetDPI, PaperProfile(72).TargetDPI)
	assert.Equal(t, MaxPaperTargetDPI, PaperProfile(1200).TargetDPI)
	assert.Equal(t, 600, PaperProfile(600).TargetDPI)
	assert.Zero(t, PaperProfile(600).MarginAdjustmentMM)
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, LabelProfile(), ProfileFor(PrinterClassLabel, 600))
	assert.Equal(t, PaperProfile(600), ProfileFor(PrinterClassPaper, 600))
}

func TestComputeDocumentGeometry(t *testing.T) {
	pages := []PageRaster{
		{Index: 0, PixelWidth: 1700, PixelHeight: 1700, SourceResolutionDPI: RenderSourceDPI},
		{Index: 1, PixelWidth: 850, PixelHeight: 1700, SourceResolutionDPI: RenderSourceDPI},
		{Index: 2, PixelWidth: 3400, PixelHeight: 5100, SourceResolutionDPI: RenderSourceDPI},
	}
	profile := LabelProfile()

	t.Run("last page policy", func(t *testing.T) {
		geo := ComputeDocumentGeometry(pages, profile, GeometryPolicyLastPage)
		require.Len(t, geo, len(pages))
		want := ComputeGeometry(pages[2], profile)
		for _, g := range geo {
			assert.Equal(t, want, g)
		}
	})

	t.Run("per page policy", func(t *testing.T) {
		geo := ComputeDocumentGeometry(pages, profile, GeometryPolicyPerPage)
		require.Len(t, geo, len(pages))
		for i, p := range pages {
			assert.Equal(t, ComputeGeometry(p, profile), geo[i])
		}
	})

	t.Run("no pages", func(t *testing.T) {
		assert.Empty(t, ComputeDocumentGeometry(nil, profile, GeometryPolicyPerPage))
	})
}
