package decoder

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedDataURI is returned for data URIs that are not base64 images.
var ErrMalformedDataURI = errors.New("malformed data URI")

// ImageDecoder decodes any registered image format into *image.RGBA.
type ImageDecoder struct{}

var _ Decoder = (*ImageDecoder)(nil)

func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

func (d *ImageDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return toRGBA(img), nil
}

// DecodeFile reads and decodes an image file.
func (d *ImageDecoder) DecodeFile(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	img, err := d.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// DecodeDataURI decodes a "data:<mime>;base64,<payload>" image.
func (d *ImageDecoder) DecodeDataURI(uri string) (*image.RGBA, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrMalformedDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrMalformedDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDataURI, err.Error())
	}
	return d.Decode(data)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
