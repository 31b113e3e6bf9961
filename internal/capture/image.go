package capture

import (
	"context"
	"image"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// ErrNoSource is returned when a rasterizer has nothing to paint from.
var ErrNoSource = errors.New("rasterizer has no source image")

// ImageRasterizer paints a fixed image as the visual surface.
type ImageRasterizer struct {
	Source image.Image
	// Interpolator defaults to draw.ApproxBiLinear.
	Interpolator xdraw.Interpolator
}

// Paint draws the part of Source under region so that region's top-left
// corner lands on the surface origin, then applies the surface transform.
// Parts of region outside Source are left untouched.
func (r *ImageRasterizer) Paint(ctx context.Context, region image.Rectangle, dst *Surface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Source == nil {
		return ErrNoSource
	}
	sr := region.Intersect(r.Source.Bounds())
	if sr.Empty() {
		return nil
	}

	interp := r.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}

	// Work on a copy so the caller's transform stack is untouched.
	s := *dst
	s.Translate(float64(-region.Min.X), float64(-region.Min.Y))
	interp.Transform(dst.Image(), s.Transform(), r.Source, sr, xdraw.Over, nil)
	return nil
}

// LayeredRasterizer models a surface made of a background layer and a text
// layer drawn over it. It toggles the text layer on ShowText/HideText.
type LayeredRasterizer struct {
	Interpolator xdraw.Interpolator

	mu         sync.Mutex
	background image.Image
	text       image.Image
	shown      bool
	withText   image.Image
}

// NewLayeredRasterizer creates a rasterizer with the text layer hidden. text
// may be nil for a surface without text.
func NewLayeredRasterizer(background, text image.Image) *LayeredRasterizer {
	return &LayeredRasterizer{background: background, text: text}
}

// ShowText makes the text layer visible.
func (r *LayeredRasterizer) ShowText() {
	r.mu.Lock()
	r.shown = true
	r.mu.Unlock()
}

// HideText hides the text layer.
func (r *LayeredRasterizer) HideText() {
	r.mu.Lock()
	r.shown = false
	r.mu.Unlock()
}

// TextShown reports the current presentation state.
func (r *LayeredRasterizer) TextShown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown
}

// Paint paints the layers for the current presentation state.
func (r *LayeredRasterizer) Paint(ctx context.Context, region image.Rectangle, dst *Surface) error {
	src := r.current()
	if src == nil {
		return ErrNoSource
	}
	ir := ImageRasterizer{Source: src, Interpolator: r.Interpolator}
	return ir.Paint(ctx, region, dst)
}

func (r *LayeredRasterizer) current() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.shown || r.text == nil || r.background == nil {
		return r.background
	}
	if r.withText == nil {
		r.withText = composite(r.background, r.text)
	}
	return r.withText
}

func composite(bg, fg image.Image) *image.RGBA {
	b := bg.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, bg, b.Min, draw.Src)
	draw.Draw(out, b, fg, b.Min, draw.Over)
	return out
}
