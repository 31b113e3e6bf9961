package capture

import (
	"context"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/dimensions"
	"github.com/junsooki/cellframe/internal/logging"
)

// background is painted before every capture so uncovered areas are opaque.
var background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Capturer snapshots regions of the visual surface. It exclusively owns its
// screenshot and converter surfaces and is not safe for concurrent use.
type Capturer struct {
	dims       *dimensions.Dimensions
	raster     Rasterizer
	screenshot *Surface
	converter  *Surface
	scaled     bool
	logger     *zap.Logger
}

// NewCapturer creates a Capturer reading region sizes from dims.
func NewCapturer(dims *dimensions.Dimensions, raster Rasterizer, logger *zap.Logger) *Capturer {
	return &Capturer{
		dims:       dims,
		raster:     raster,
		screenshot: NewSurface(),
		converter:  NewSurface(),
		logger:     logging.OrNop(logger),
	}
}

// CaptureRegion paints the configured region and returns its pixels. With
// scaled set, the result is in cell-scaled space (Frame dims); otherwise it is
// full resolution (DOM dims). A region with no area yields an empty buffer
// and no error.
func (c *Capturer) CaptureRegion(ctx context.Context, scaled bool) (PixelBuffer, error) {
	w, h := c.requestedSize(scaled)
	if w <= 0 || h <= 0 {
		c.logger.Debug("capture region has no area", zap.Int("width", w), zap.Int("height", h))
		return PixelBuffer{}, nil
	}
	if scaled {
		c.updateSurfaceSize()
		c.scaleSurface()
		defer c.unscaleSurface()
	}
	return c.pixelData(ctx, w, h)
}

// Scaled reports whether a scale transform is currently applied.
func (c *Capturer) Scaled() bool {
	return c.scaled
}

// Converter returns the surface used for format conversion.
func (c *Capturer) Converter() *Surface {
	return c.converter
}

func (c *Capturer) requestedSize(scaled bool) (int, int) {
	if scaled {
		return c.dims.Frame.Width, c.dims.Frame.Height
	}
	return c.dims.DOM.Width, c.dims.DOM.Height
}

func (c *Capturer) pixelData(ctx context.Context, w, h int) (PixelBuffer, error) {
	c.updateSurfaceSize()
	c.screenshot.Fill(background)

	dom := c.dims.DOM
	region := image.Rect(dom.Left, dom.Top, dom.Right(), dom.Bottom())
	if err := c.raster.Paint(ctx, region, c.screenshot); err != nil {
		return PixelBuffer{}, errors.Wrap(err, "paint surface")
	}
	return c.screenshot.ReadPixels(w, h), nil
}

// scaleSurface makes one surface pixel approximate half a terminal cell.
func (c *Capturer) scaleSurface() {
	c.scaled = true
	c.screenshot.Save()
	c.screenshot.Scale(c.dims.Scale.Width, c.dims.Scale.Height)
}

func (c *Capturer) unscaleSurface() {
	c.screenshot.Restore()
	c.scaled = false
}

// updateSurfaceSize sizes the screenshot surface to the DOM region. It must
// not run while scaled: resizing drops the transform.
func (c *Capturer) updateSurfaceSize() {
	if c.scaled {
		return
	}
	w, h := c.dims.DOM.Width, c.dims.DOM.Height
	if cw, ch := c.screenshot.Size(); cw == w && ch == h {
		return
	}
	c.screenshot.Resize(w, h)
}
