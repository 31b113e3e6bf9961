// Package decoder loads surface layers and data URIs into RGBA images.
package decoder

import "image"

// Decoder decodes bytes into an image.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
