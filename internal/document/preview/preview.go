// Package preview draws PNG thumbnails of composed pages.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

const (
	// drawing happens at supersample x the output width, then scaled down
	supersample = 2
	a4Ratio     = 297.0 / 210.0

	DefaultWidth = 420
	maxLines     = 60
)

type Renderer struct {
	log   *logger.Logger
	width int

	regular *truetype.Font
	bold    *truetype.Font
}

func NewRenderer(log *logger.Logger, width int) (*Renderer, error) {
	if log == nil {
		log = logger.Nop()
	}
	if width <= 0 {
		width = DefaultWidth
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &Renderer{
		log:     log.With("component", "PagePreview"),
		width:   width,
		regular: regular,
		bold:    bold,
	}, nil
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Size returns the output dimensions for a page.
func (r *Renderer) Size(page compose.Page) (int, int) {
	w := r.width
	h := int(float64(w) * a4Ratio)
	if page.Landscape {
		h = int(float64(w) / a4Ratio)
	}
	return w, h
}

// Image draws the page without encoding it.
func (r *Renderer) Image(page compose.Page) image.Image {
	outW, outH := r.Size(page)
	w, h := outW*supersample, outH*supersample
	scale := float64(w) / 420.0

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	margin := 28 * scale
	dc.SetColor(color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	dc.SetLineWidth(1 * scale)
	dc.DrawRectangle(0.5, 0.5, float64(w)-1, float64(h)-1)
	dc.Stroke()

	y := margin
	textW := float64(w) - 2*margin
	dc.SetColor(color.Black)

	if title := strings.TrimSpace(page.Title); title != "" {
		dc.SetFontFace(r.face(r.bold, 13*scale))
		for _, line := range dc.WordWrap(title, textW) {
			tw, _ := dc.MeasureString(line)
			y += 16 * scale
			dc.DrawString(line, (float64(w)-tw)/2, y)
		}
		y += 10 * scale
	}

	dc.SetFontFace(r.face(r.regular, 8*scale))
	lineH := 11 * scale
	bottom := float64(h) - margin - 14*scale
	lines := 0
text:
	for _, para := range strings.Split(layout.PlainText(page.Blocks), "\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		for _, line := range dc.WordWrap(para, textW) {
			if y+lineH > bottom || lines >= maxLines {
				dc.DrawString("…", margin, y+lineH)
				break text
			}
			y += lineH
			lines++
			dc.DrawString(line, margin, y)
		}
	}

	if !page.HideNumber && page.Number > 0 {
		dc.SetFontFace(r.face(r.regular, 8*scale))
		label := strconv.Itoa(page.Number)
		tw, _ := dc.MeasureString(label)
		dc.DrawString(label, (float64(w)-tw)/2, float64(h)-margin/2)
	}

	src := dc.Image()
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// PNG encodes the thumbnail of page to w.
func (r *Renderer) PNG(w io.Writer, page compose.Page) error {
	if err := png.Encode(w, r.Image(page)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
