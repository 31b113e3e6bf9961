package capture

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/math/f64"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Surface is an off-screen RGBA drawing target with a canvas-style transform
// stack. Resizing discards both the pixels and any active transform.
type Surface struct {
	img   *image.RGBA
	m     f64.Aff3
	stack []f64.Aff3
}

// NewSurface returns an empty 0x0 surface.
func NewSurface() *Surface {
	return &Surface{img: image.NewRGBA(image.Rectangle{}), m: identity}
}

// Resize reallocates the surface at w x h and resets the transform.
func (s *Surface) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.m = identity
	s.stack = s.stack[:0]
}

// Size returns the surface dimensions.
func (s *Surface) Size() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image exposes the backing image for rasterizers.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Save pushes the current transform.
func (s *Surface) Save() {
	s.stack = append(s.stack, s.m)
}

// Restore pops the last saved transform. It is a no-op on an empty stack.
func (s *Surface) Restore() {
	n := len(s.stack)
	if n == 0 {
		return
	}
	s.m = s.stack[n-1]
	s.stack = s.stack[:n-1]
}

// Scale post-multiplies the current transform by a scale.
func (s *Surface) Scale(sx, sy float64) {
	s.m[0] *= sx
	s.m[3] *= sx
	s.m[1] *= sy
	s.m[4] *= sy
}

// Translate post-multiplies the current transform by a translation.
func (s *Surface) Translate(tx, ty float64) {
	s.m[2] += s.m[0]*tx + s.m[1]*ty
	s.m[5] += s.m[3]*tx + s.m[4]*ty
}

// Transform returns the current user-space to surface transform.
func (s *Surface) Transform() f64.Aff3 {
	return s.m
}

// Transformed reports whether a non-identity transform is active.
func (s *Surface) Transformed() bool {
	return s.m != identity
}

// Fill paints every pixel with c, ignoring the transform.
func (s *Surface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// ReadPixels copies the top-left w x h pixels into a new buffer. Pixels
// outside the surface read as transparent black.
func (s *Surface) ReadPixels(w, h int) PixelBuffer {
	if w <= 0 || h <= 0 {
		return PixelBuffer{}
	}
	buf := PixelBuffer{Width: w, Height: h, Pix: make([]uint8, w*h*BytesPerPixel)}
	r := image.Rect(0, 0, w, h).Intersect(s.img.Bounds())
	rowBytes := r.Dx() * BytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := s.img.PixOffset(r.Min.X, y)
		dst := y * w * BytesPerPixel
		copy(buf.Pix[dst:dst+rowBytes], s.img.Pix[src:src+rowBytes])
	}
	return buf
}

// PutPixels resizes the surface to the buffer and copies it in.
func (s *Surface) PutPixels(b PixelBuffer) {
	s.Resize(b.Width, b.Height)
	copy(s.img.Pix, b.Pix)
}
