//go:build !darwin || !cgo

package capture

import (
	"image"

	"github.com/kbinani/screenshot"
	"github.com/pkg/errors"
)

type screenshotDisplay struct {
	index int
}

// NewDisplaySource opens the display at index (0 = primary).
func NewDisplaySource(index int) (DisplaySource, error) {
	n := screenshot.NumActiveDisplays()
	if index < 0 || index >= n {
		return nil, errors.Wrapf(ErrDisplayNotFound, "display index %d (have %d displays)", index, n)
	}
	return &screenshotDisplay{index: index}, nil
}

func (d *screenshotDisplay) Bounds() (image.Rectangle, error) {
	b := screenshot.GetDisplayBounds(d.index)
	return image.Rect(0, 0, b.Dx(), b.Dy()), nil
}

func (d *screenshotDisplay) Grab(rect image.Rectangle) (*image.RGBA, error) {
	origin := screenshot.GetDisplayBounds(d.index).Min
	return screenshot.CaptureRect(rect.Add(origin))
}
