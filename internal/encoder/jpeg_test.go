package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"
)

func TestQualityFromCompression(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.9, 90},
		{1, 100},
		{0, 1},
		{1.5, 100},
		{-0.2, 1},
		{0.555, 56},
		{math.NaN(), jpeg.DefaultQuality},
	}
	for _, tc := range tests {
		if got := QualityFromCompression(tc.in); got != tc.want {
			t.Errorf("QualityFromCompression(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSetQualityClamps(t *testing.T) {
	e := NewJPEGEncoder(500)
	if e.Quality() != 100 {
		t.Errorf("Quality() = %d, want 100", e.Quality())
	}
	e.SetQuality(0)
	if e.Quality() != 1 {
		t.Errorf("Quality() = %d, want 1", e.Quality())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	data, err := NewJPEGEncoder(90).Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestDataURI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})

	uri, err := DataURI(NewJPEGEncoder(80), img)
	if err != nil {
		t.Fatalf("DataURI: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("uri prefix = %q", uri[:min(len(uri), 30)])
	}
}
