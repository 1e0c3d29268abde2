package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/petuhovskiy/powerpick/internal/display"
)

// ErrExportUnavailable means the capture dependency is missing or failed.
var ErrExportUnavailable = errors.New("image export unavailable")

// MaxScale bounds the output size.
const MaxScale = 8

type Options struct {
	BackgroundTransparent bool
	Scale                 float64
}

// Service rasterises a capture region into PNG bytes.
type Service interface {
	Capture(ctx context.Context, region display.CaptureRegion, opts Options) ([]byte, error)
}

const (
	ballSize = 48
	ballGap  = 12
	padding  = 16
)

var (
	colorBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorMain       = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
	colorMainText   = color.RGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff}
	colorSecondary  = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
	colorHidden     = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	colorLightText  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Renderer draws the labels of a capture region as a row of balls.
type Renderer struct {
	face font.Face
}

func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

func (r *Renderer) Capture(ctx context.Context, region display.CaptureRegion, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if region == nil {
		return nil, fmt.Errorf("no capture region: %w", ErrExportUnavailable)
	}

	cells := region.Cells()
	if len(cells) == 0 {
		return nil, fmt.Errorf("capture region is empty: %w", ErrExportUnavailable)
	}

	img := r.render(cells, opts.BackgroundTransparent)
	img = scale(img, opts.Scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Size returns the unscaled image size for n cells.
func Size(n int) image.Point {
	return image.Pt(
		2*padding+n*ballSize+(n-1)*ballGap,
		2*padding+ballSize,
	)
}

func (r *Renderer) render(cells []display.Cell, transparent bool) *image.RGBA {
	size := Size(len(cells))
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	if !transparent {
		xdraw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, xdraw.Src)
	}

	for i, cell := range cells {
		fill, text := colorMain, colorMainText
		switch {
		case !cell.Revealed:
			fill, text = colorHidden, colorLightText
		case cell.Secondary:
			fill, text = colorSecondary, colorLightText
		}

		center := image.Pt(padding+i*(ballSize+ballGap)+ballSize/2, padding+ballSize/2)
		fillCircle(img, center, ballSize/2, fill)
		r.drawCentered(img, center, cell.Text, text)
	}
	return img
}

func (r *Renderer) drawCentered(img *image.RGBA, center image.Point, s string, c color.Color) {
	width := font.MeasureString(r.face, s).Ceil()
	metrics := r.face.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(center.X-width/2, center.Y+(ascent-descent)/2),
	}
	d.DrawString(s)
}

func fillCircle(img *image.RGBA, center image.Point, radius int, c color.RGBA) {
	r2 := radius * radius
	for y := -radius; y < radius; y++ {
		for x := -radius; x < radius; x++ {
			// sample the pixel center
			dx, dy := 2*x+1, 2*y+1
			if dx*dx+dy*dy <= 4*r2 {
				img.SetRGBA(center.X+x, center.Y+y, c)
			}
		}
	}
}

func scale(img *image.RGBA, factor float64) *image.RGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	if factor > MaxScale {
		factor = MaxScale
	}

	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
