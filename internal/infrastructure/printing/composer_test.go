package printing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

func pngPage(t *testing.T, index, width, height int) printing.PageRaster {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return printing.PageRaster{
		Index:               index,
		PixelWidth:          width,
		PixelHeight:         height,
		Image:               buf.Bytes(),
		SourceResolutionDPI: printing.RenderSourceDPI,
	}
}

func TestPDFComposer_Compose(t *testing.T) {
	pages := []printing.PageRaster{pngPage(t, 0, 120, 80), pngPage(t, 1, 120, 80)}
	geometry := printing.ComputeDocumentGeometry(pages, printing.LabelProfile(), printing.GeometryPolicyPerPage)

	doc, err := NewPDFComposer().Compose("label.pdf", pages, geometry)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Equal(t, 2, bytes.Count(doc, []byte("/Type /Page\n")))
}

func TestPDFComposer_Compose_Errors(t *testing.T) {
	c := NewPDFComposer()
	page := pngPage(t, 0, 40, 40)
	g := printing.ComputeGeometry(page, printing.PaperProfile(printing.MaxPaperTargetDPI))

	_, err := c.Compose("x", nil, nil)
	assert.ErrorIs(t, err, printing.ErrDispatch)

	_, err = c.Compose("x", []printing.PageRaster{page}, nil)
	assert.ErrorIs(t, err, printing.ErrDispatch)

	_, err = c.Compose("x", []printing.PageRaster{page}, []printing.PageGeometry{{}})
	require.Error(t, err)
	assert.Equal(t, printing.ErrCodeComposeFailed, printing.AsJobError(err).Code)

	broken := page
	broken.Image = []byte("not a png")
	_, err = c.Compose("x", []printing.PageRaster{broken}, []printing.PageGeometry{g})
	require.Error(t, err)
	assert.Equal(t, printing.ErrCodeDecodeFailed, printing.AsJobError(err).Code)
}

func TestPDFComposer_Resample(t *testing.T) {
	c := NewPDFComposer()
	page := pngPage(t, 0, 100, 50)

	out, err := c.resample(page.Image, 25, 12)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Width)
	assert.Equal(t, 12, cfg.Height)

	same, err := c.resample(page.Image, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, page.Image, same)
}
