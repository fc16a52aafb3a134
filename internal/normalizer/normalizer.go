package normalizer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// Fixed print page: 210mm x 297mm at 300 DPI.
const (
	CanvasWidth  = 2480
	CanvasHeight = 3508
)

const jpegQuality = 90

// Normalizer converts raster images into single-page PDFs laid out on
// the fixed print canvas. Safe for concurrent use: pdfcpu mutates the
// configuration it is handed, so one is allocated per call.
type Normalizer struct {
	imp *pdfcpu.Import
}

func New() (*Normalizer, error) {
	imp, err := pdfcpu.ParseImportDetails("form:A4, pos:full, dpi:300", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("parse import details: %w", err)
	}
	return &Normalizer{imp: imp}, nil
}

// Normalize decodes an image, composites it centered onto an opaque
// white canvas preserving aspect ratio, and encodes the canvas as a
// one-page PDF.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	flat := flattenToWhite(src)

	sw, sh := FitCanvas(b.Dx(), b.Dy())
	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), flat, flat.Bounds(), xdraw.Src, nil)

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	offset := image.Pt((CanvasWidth-sw)/2, (CanvasHeight-sh)/2)
	draw.Draw(canvas, scaled.Bounds().Add(offset), scaled, image.Point{}, draw.Src)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode canvas: %w", err)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(jpg.Bytes())}, n.imp, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	log.Debug().
		Str("format", format).
		Int("src_width", b.Dx()).
		Int("src_height", b.Dy()).
		Int("scaled_width", sw).
		Int("scaled_height", sh).
		Int("pdf_size", out.Len()).
		Msg("normalized image to one-page PDF")

	return out.Bytes(), nil
}

// FitCanvas scales (w, h) to fit inside the canvas preserving aspect
// ratio. Landscape images are driven width-first, portrait images
// height-first; the result never exceeds either canvas dimension and
// never upscales the source.
func FitCanvas(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	r := float64(w) / float64(h)

	var sw, sh int
	if r > 1 {
		sw = min(CanvasWidth, w)
		sh = int(float64(sw)/r + 0.5)
		if sh > CanvasHeight {
			sh = CanvasHeight
			sw = int(float64(sh)*r + 0.5)
		}
	} else {
		sh = min(CanvasHeight, h)
		sw = int(float64(sh)*r + 0.5)
		if sw > CanvasWidth {
			sw = CanvasWidth
			sh = int(float64(sw)/r + 0.5)
		}
	}
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// flattenToWhite composites the image over an opaque white background,
// dropping any alpha channel or palette transparency.
func flattenToWhite(src image.Image) *image.RGBA {
	b := src.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, b.Min, draw.Over)
	return flat
}
