package encoder

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"math"

	"github.com/pkg/errors"
)

// JPEGEncoder encodes frames as JPEG.
type JPEGEncoder struct {
	quality int
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
func NewJPEGEncoder(quality int) *JPEGEncoder {
	e := &JPEGEncoder{}
	e.SetQuality(quality)
	return e
}

// QualityFromCompression maps a 0-1 compression setting, as used for canvas
// data URIs, to a JPEG quality of 1-100.
func QualityFromCompression(c float64) int {
	if math.IsNaN(c) {
		return jpeg.DefaultQuality
	}
	return clampQuality(int(math.Round(c * 100)))
}

// SetQuality changes the quality, clamped to 1-100.
func (e *JPEGEncoder) SetQuality(quality int) {
	e.quality = clampQuality(quality)
}

// Quality returns the current quality.
func (e *JPEGEncoder) Quality() int {
	return e.quality
}

// MIMEType implements Encoder.
func (e *JPEGEncoder) MIMEType() string {
	return "image/jpeg"
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	b := img.Bounds()
	buf.Grow(b.Dx() * b.Dy() / 2)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, errors.Wrap(err, "jpeg encode")
	}
	return buf.Bytes(), nil
}

// DataURI encodes img with enc and wraps the result as a base64 data URI.
func DataURI(enc Encoder, img image.Image) (string, error) {
	data, err := enc.Encode(img)
	if err != nil {
		return "", err
	}
	return "data:" + enc.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
