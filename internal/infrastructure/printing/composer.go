package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"golang.org/x/image/draw"
)

// PDFComposer assembles rendered pages into the document handed to the
// native print system. Each page is resampled to its output pixel size and
// placed on a page of its physical size with no margins.
type PDFComposer struct {
	scaler draw.Scaler
}

// NewPDFComposer creates a PDFComposer
func NewPDFComposer() *PDFComposer {
	return &PDFComposer{scaler: draw.CatmullRom}
}

// Compose returns the PDF bytes for pages laid out with geometry. geometry
// must hold one entry per page.
func (c *PDFComposer) Compose(title string, pages []printing.PageRaster, geometry []printing.PageGeometry) ([]byte, error) {
	if len(pages) == 0 {
		return nil, printing.NewDispatchError(printing.ErrCodeComposeFailed, "no pages to compose", nil)
	}
	if len(geometry) != len(pages) {
		return nil, printing.NewDispatchError(printing.ErrCodeComposeFailed,
			fmt.Sprintf("have %d geometry entries for %d pages", len(geometry), len(pages)), nil)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: geometry[0].PhysicalWidthMM, Ht: geometry[0].PhysicalHeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	if title != "" {
		pdf.SetTitle(title, true)
	}

	for i, page := range pages {
		g := geometry[i]
		if g.PhysicalWidthMM <= 0 || g.PhysicalHeightMM <= 0 {
			return nil, printing.NewDispatchError(printing.ErrCodeComposeFailed,
				fmt.Sprintf("page %d has no printable area", i+1), nil)
		}

		img, err := c.resample(page.Image, g.OutputPixelWidth, g.OutputPixelHeight)
		if err != nil {
			return nil, printing.NewDispatchError(printing.ErrCodeDecodeFailed,
				fmt.Sprintf("page %d image could not be prepared", i+1), err)
		}

		name := fmt.Sprintf("page-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: g.PhysicalWidthMM, Ht: g.PhysicalHeightMM})
		pdf.ImageOptions(name, 0, 0, g.PhysicalWidthMM, g.PhysicalHeightMM, false, opts, 0, "")

		if err := pdf.Error(); err != nil {
			return nil, printing.NewDispatchError(printing.ErrCodeComposeFailed,
				fmt.Sprintf("page %d could not be composed", i+1), err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, printing.NewDispatchError(printing.ErrCodeComposeFailed, "failed to write PDF", err)
	}
	return buf.Bytes(), nil
}

// resample decodes a PNG and scales it to width x height. The source is
// returned unchanged when it already has that size.
func (c *PDFComposer) resample(data []byte, width, height int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if width <= 0 || height <= 0 || (bounds.Dx() == width && bounds.Dy() == height) {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	c.scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
