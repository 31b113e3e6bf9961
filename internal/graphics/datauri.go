package graphics

import (
	"context"

	"github.com/pkg/errors"

	"github.com/junsooki/cellframe/internal/encoder"
)

// ScaledDataURI takes a scaled capture and returns it as a JPEG data URI,
// encoded at the configured compression. An empty region yields "".
func (b *Builder) ScaledDataURI(ctx context.Context) (string, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return "", ErrCycleInFlight
	}
	defer b.busy.Store(false)

	buf, err := b.capturer.CaptureRegion(ctx, true)
	if err != nil {
		return "", errors.Wrap(err, "scaled capture")
	}
	if buf.Empty() {
		return "", nil
	}
	conv := b.capturer.Converter()
	conv.PutPixels(buf)
	return encoder.DataURI(b.encoder, conv.Image())
}
