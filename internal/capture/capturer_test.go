package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/junsooki/cellframe/internal/dimensions"
)

// recordingRasterizer records every Paint call and optionally fails.
type recordingRasterizer struct {
	transforms []f64.Aff3
	regions    []image.Rectangle
	err        error
}

func (r *recordingRasterizer) Paint(_ context.Context, region image.Rectangle, dst *Surface) error {
	r.transforms = append(r.transforms, dst.Transform())
	r.regions = append(r.regions, region)
	return r.err
}

// patternImage returns an opaque image where pixel (x, y) is {x, y, x+y}.
func patternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func testDims(sub dimensions.Rect) *dimensions.Dimensions {
	d := dimensions.New(dimensions.Size{Width: 64, Height: 48}, dimensions.Size{Width: 8, Height: 16})
	d.Update(sub)
	return d
}

func TestCaptureRegionZeroArea(t *testing.T) {
	for _, sub := range []dimensions.Rect{
		{Width: 0, Height: 16},
		{Width: 16, Height: 0},
	} {
		r := &recordingRasterizer{}
		c := NewCapturer(testDims(sub), r, nil)

		for _, scaled := range []bool{false, true} {
			buf, err := c.CaptureRegion(context.Background(), scaled)
			if err != nil {
				t.Fatalf("CaptureRegion(%v) error = %v", scaled, err)
			}
			if !buf.Empty() {
				t.Errorf("CaptureRegion(%v) on %+v returned %d values, want empty", scaled, sub, buf.Len())
			}
		}
		if len(r.regions) != 0 {
			t.Errorf("rasterizer called %d times for an empty region", len(r.regions))
		}
		if c.Scaled() {
			t.Error("scale flag left set")
		}
	}
}

func TestCaptureRegionUnscaledMatchesSource(t *testing.T) {
	sub := dimensions.Rect{Top: 8, Left: 16, Width: 32, Height: 16}
	src := patternImage(64, 48)
	c := NewCapturer(testDims(sub), &ImageRasterizer{Source: src, Interpolator: xdraw.NearestNeighbor}, nil)

	buf, err := c.CaptureRegion(context.Background(), false)
	if err != nil {
		t.Fatalf("CaptureRegion: %v", err)
	}
	if buf.Width != 32 || buf.Height != 16 || buf.Len() != 32*16*4 {
		t.Fatalf("buffer %dx%d len %d, want 32x16", buf.Width, buf.Height, buf.Len())
	}

	for y := sub.Top; y < sub.Bottom(); y++ {
		for x := sub.Left; x < sub.Right(); x++ {
			rx, ry := ToRelative(sub, x, y)
			if !rx.Valid || !ry.Valid {
				t.Fatalf("(%d,%d) rejected by mapper", x, y)
			}
			got, ok := buf.RGBAt(rx.Value, ry.Value)
			ref := src.RGBAAt(x, y)
			if !ok || got != (RGB{ref.R, ref.G, ref.B}) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, ref)
			}
		}
	}
}

func TestCaptureRegionScaled(t *testing.T) {
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	d := testDims(dimensions.Rect{Width: 64, Height: 48})
	c := NewCapturer(d, &ImageRasterizer{Source: uniformImage(64, 48, want), Interpolator: xdraw.NearestNeighbor}, nil)

	buf, err := c.CaptureRegion(context.Background(), true)
	if err != nil {
		t.Fatalf("CaptureRegion: %v", err)
	}
	if buf.Width != d.Frame.Width || buf.Height != d.Frame.Height {
		t.Fatalf("buffer %dx%d, want frame %dx%d", buf.Width, buf.Height, d.Frame.Width, d.Frame.Height)
	}
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if got, _ := buf.RGBAt(x, y); got != (RGB{10, 20, 30}) {
				t.Fatalf("scaled pixel (%d,%d) = %v", x, y, got)
			}
		}
	}
	if c.Scaled() {
		t.Error("scale flag should be cleared after a scaled capture")
	}
}

func TestScaleTransformDoesNotLeak(t *testing.T) {
	r := &recordingRasterizer{}
	d := testDims(dimensions.Rect{Width: 64, Height: 48})
	c := NewCapturer(d, r, nil)
	ctx := context.Background()

	if _, err := c.CaptureRegion(ctx, true); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CaptureRegion(ctx, false); err != nil {
		t.Fatal(err)
	}

	if len(r.transforms) != 2 {
		t.Fatalf("got %d paints, want 2", len(r.transforms))
	}
	scaled := f64.Aff3{d.Scale.Width, 0, 0, 0, d.Scale.Height, 0}
	if r.transforms[0] != scaled {
		t.Errorf("scaled paint transform = %v, want %v", r.transforms[0], scaled)
	}
	if r.transforms[1] != identity {
		t.Errorf("unscaled paint transform = %v, want identity", r.transforms[1])
	}
	wantRegion := image.Rect(0, 0, 64, 48)
	for i, region := range r.regions {
		if region != wantRegion {
			t.Errorf("paint %d region = %v, want %v", i, region, wantRegion)
		}
	}
}

func TestCaptureRegionRasterizerFailure(t *testing.T) {
	boom := errors.New("boom")
	c := NewCapturer(testDims(dimensions.Rect{Width: 64, Height: 48}), &recordingRasterizer{err: boom}, nil)

	buf, err := c.CaptureRegion(context.Background(), true)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
	if !buf.Empty() {
		t.Error("failed capture should return an empty buffer")
	}
	if c.Scaled() || c.screenshot.Transformed() {
		t.Error("scale transform leaked after a failed capture")
	}
}

func TestCaptureRegionBackgroundIsWhite(t *testing.T) {
	// source covers only the left half of the surface
	src := uniformImage(32, 48, color.RGBA{A: 255})
	c := NewCapturer(testDims(dimensions.Rect{Width: 64, Height: 48}), &ImageRasterizer{Source: src, Interpolator: xdraw.NearestNeighbor}, nil)

	buf, err := c.CaptureRegion(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := buf.RGBAt(0, 0); got != (RGB{0, 0, 0}) {
		t.Errorf("covered pixel = %v, want black", got)
	}
	if got, _ := buf.RGBAt(63, 0); got != (RGB{255, 255, 255}) {
		t.Errorf("uncovered pixel = %v, want white", got)
	}
}

func TestCaptureRegionSurfaceMatchesRegion(t *testing.T) {
	d := testDims(dimensions.Rect{Top: 8, Left: 16, Width: 40, Height: 32})
	c := NewCapturer(d, &ImageRasterizer{Source: patternImage(64, 48)}, nil)
	ctx := context.Background()

	for _, scaled := range []bool{true, false} {
		if _, err := c.CaptureRegion(ctx, scaled); err != nil {
			t.Fatalf("CaptureRegion(scaled=%v): %v", scaled, err)
		}
		if w, h := c.screenshot.Size(); w != 40 || h != 32 {
			t.Errorf("scaled=%v: surface %dx%d, want region size 40x32", scaled, w, h)
		}
	}
}
