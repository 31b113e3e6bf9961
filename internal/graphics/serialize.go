package graphics

import (
	"context"
	"encoding/json"
	"image"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/capture"
	"github.com/junsooki/cellframe/internal/dimensions"
	"github.com/junsooki/cellframe/internal/transport"
)

// ErrInvalidChannelID is returned when a channel id is not an integer.
var ErrInvalidChannelID = errors.New("invalid channel id")

// Colours is a flat list of R, G, B values. It marshals as a JSON array of
// numbers rather than the base64 string encoding/json uses for []byte.
type Colours []uint8

// MarshalJSON implements json.Marshaler.
func (c Colours) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(c)*4)
	out = append(out, '[')
	for i, v := range c {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Colours) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	out := make(Colours, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return errors.Errorf("colour value %d at index %d out of range", v, i)
		}
		out[i] = uint8(v)
	}
	*c = out
	return nil
}

// Frame is one cell-scaled snapshot of the captured region.
type Frame struct {
	Meta    dimensions.FrameMeta `json:"meta"`
	Colours Colours              `json:"colours"`
}

// Empty reports whether the frame carries no pixels.
func (f *Frame) Empty() bool {
	return len(f.Colours) == 0
}

// Image rebuilds an opaque RGBA image of SubWidth x SubHeight. Missing
// trailing colours are left transparent.
func (f *Frame) Image() *image.RGBA {
	w, h := max(f.Meta.SubWidth, 0), max(f.Meta.SubHeight, 0)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	n := min(len(f.Colours)/3, w*h)
	for i := 0; i < n; i++ {
		src := f.Colours[i*3 : i*3+3]
		dst := img.Pix[i*capture.BytesPerPixel : i*capture.BytesPerPixel+4]
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
	}
	return img
}

// BuildFrame takes a scaled capture and packs it into a Frame tagged with
// channelID.
func (b *Builder) BuildFrame(ctx context.Context, channelID string) (*Frame, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer b.busy.Store(false)
	return b.buildFrame(ctx, channelID)
}

func (b *Builder) buildFrame(ctx context.Context, channelID string) (*Frame, error) {
	id, err := strconv.Atoi(channelID)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidChannelID, "%q", channelID)
	}
	buf, err := b.capturer.CaptureRegion(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "scaled capture")
	}
	meta := b.dims.FrameMeta()
	meta.ID = id
	return &Frame{Meta: meta, Colours: rgbColours(buf)}, nil
}

// SendFrame builds a frame for the builder's channel and sends it once. An
// empty frame is logged and dropped.
func (b *Builder) SendFrame(ctx context.Context) error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer b.busy.Store(false)

	frame, err := b.buildFrame(ctx, b.channelID)
	if err != nil {
		return err
	}
	if frame.Empty() {
		b.logger.Info("Not sending empty pixels frame")
		return nil
	}
	var fp *Fingerprint
	if b.changes != nil {
		fp = b.changes.Fingerprint(frame)
		if !b.changes.Changed(fp) {
			b.logger.Debug("skipping unchanged frame", zap.Int("id", frame.Meta.ID))
			return nil
		}
	}
	if b.sender == nil {
		return transport.ErrNotConnected
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrap(err, "marshal frame")
	}
	if err := b.sender.Send(transport.FrameTag, string(payload)); err != nil {
		return errors.Wrap(err, "send frame")
	}
	if fp != nil {
		b.changes.Commit(fp)
	}
	return nil
}

// rgbColours drops the alpha channel, keeping row-major pixel order.
func rgbColours(buf capture.PixelBuffer) Colours {
	n := buf.Len() / capture.BytesPerPixel
	out := make(Colours, 0, n*3)
	for i := 0; i < n; i++ {
		p := buf.Pix[i*capture.BytesPerPixel:]
		out = append(out, p[0], p[1], p[2])
	}
	return out
}
