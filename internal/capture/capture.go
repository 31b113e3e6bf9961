package capture

import (
	"context"
	"image"
)

// BytesPerPixel is the channel count of every buffer (R, G, B, A).
const BytesPerPixel = 4

// RGB is a pixel colour with the alpha channel dropped.
type RGB [3]uint8

// PixelBuffer is a row-major RGBA snapshot with its origin top-left.
// A PixelBuffer returned by the Capturer is owned by the caller.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// Empty reports whether the buffer holds no pixels.
func (b PixelBuffer) Empty() bool {
	return len(b.Pix) == 0
}

// Len returns the number of channel values in the buffer.
func (b PixelBuffer) Len() int {
	return len(b.Pix)
}

// RGBAt reads the pixel at buffer-local (x, y). It does no bounds translation;
// it only refuses to read past the end of the data.
func (b PixelBuffer) RGBAt(x, y int) (RGB, bool) {
	if x < 0 || y < 0 {
		return RGB{}, false
	}
	start := y*b.Width*BytesPerPixel + x*BytesPerPixel
	if start+3 > len(b.Pix) {
		return RGB{}, false
	}
	return RGB{b.Pix[start], b.Pix[start+1], b.Pix[start+2]}, true
}

// Image wraps the buffer as an *image.RGBA sharing the same memory.
func (b PixelBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Rasterizer paints the current visual surface into a Surface.
//
// region is in full-resolution surface coordinates; its top-left corner must
// land on the surface origin after dst.Transform() is applied. Implementations
// are called repeatedly and must honour a pre-applied scale transform.
type Rasterizer interface {
	Paint(ctx context.Context, region image.Rectangle, dst *Surface) error
}

// TextToggler switches the visual surface between its two presentation
// states. Both calls are synchronous.
type TextToggler interface {
	ShowText()
	HideText()
}
