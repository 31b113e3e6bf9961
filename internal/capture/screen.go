package capture

import (
	"context"
	"image"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// ErrDisplayNotFound is returned when the requested display does not exist.
var ErrDisplayNotFound = errors.New("display not found")

// DisplaySource grabs pixels from a physical display.
type DisplaySource interface {
	// Bounds returns the display size in pixels, origin at 0,0.
	Bounds() (image.Rectangle, error)
	// Grab captures rect, given in display-local pixels.
	Grab(rect image.Rectangle) (*image.RGBA, error)
}

// ScreenRasterizer uses a live display as the visual surface.
//
// A real screen has no separate text layer, so ShowText and HideText do
// nothing and both dual-capture buffers see the same pixels.
type ScreenRasterizer struct {
	Display      DisplaySource
	Interpolator xdraw.Interpolator
}

// Paint grabs region from the display and paints it into dst.
func (r *ScreenRasterizer) Paint(ctx context.Context, region image.Rectangle, dst *Surface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bounds, err := r.Display.Bounds()
	if err != nil {
		return errors.Wrap(err, "display bounds")
	}
	grab := region.Intersect(bounds)
	if grab.Empty() {
		return nil
	}
	img, err := r.Display.Grab(grab)
	if err != nil {
		return errors.Wrapf(err, "grab display region %v", grab)
	}

	// Re-anchor the grabbed pixels at their surface coordinates.
	shifted := *img
	shifted.Rect = img.Rect.Add(grab.Min.Sub(img.Rect.Min))

	ir := ImageRasterizer{Source: &shifted, Interpolator: r.Interpolator}
	return ir.Paint(ctx, region, dst)
}

// ShowText is a no-op; text is always visible on a physical display.
func (r *ScreenRasterizer) ShowText() {}

// HideText is a no-op; see ShowText.
func (r *ScreenRasterizer) HideText() {}
