// Package graphics drives the capture cycles for one channel and turns their
// results into frames for the terminal.
package graphics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/capture"
	"github.com/junsooki/cellframe/internal/dimensions"
	"github.com/junsooki/cellframe/internal/encoder"
	"github.com/junsooki/cellframe/internal/logging"
	"github.com/junsooki/cellframe/internal/transport"
)

// ErrCycleInFlight is returned when a capture cycle or frame send is already
// running on the same Builder.
var ErrCycleInFlight = errors.New("capture cycle already in flight")

// Surface is a visual surface that can be painted and whose text layer can
// be switched on and off.
type Surface interface {
	capture.Rasterizer
	capture.TextToggler
}

// Options tune a Builder.
type Options struct {
	// JPEGCompression is the 0-1 quality used by ScaledDataURI.
	JPEGCompression float64
	// RenderDelay is the settle time after ShowText when DelayRender is set.
	RenderDelay time.Duration
	// DelayRender enables RenderDelay. Set in http server mode.
	DelayRender bool
	// SkipUnchanged makes SendFrame drop frames identical to the last one
	// that was delivered.
	SkipUnchanged bool
}

// DefaultOptions mirror the configuration defaults.
func DefaultOptions() Options {
	return Options{
		JPEGCompression: 0.9,
		RenderDelay:     400 * time.Millisecond,
	}
}

// Builder owns the capturer and pixel buffers for a single channel.
type Builder struct {
	dims      *dimensions.Dimensions
	surface   Surface
	capturer  *capture.Capturer
	sender    transport.Sender
	channelID string
	opts      Options
	encoder   *encoder.JPEGEncoder
	changes   *ChangeDetector
	logger    *zap.Logger

	// sleep waits for the settle delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	busy atomic.Bool

	mu          sync.RWMutex
	withText    capture.PixelBuffer
	withoutText capture.PixelBuffer
	region      dimensions.Rect
}

// NewBuilder creates a Builder for channelID sending through sender. sender
// may be nil when only snapshots and pixel queries are needed.
func NewBuilder(dims *dimensions.Dimensions, surface Surface, sender transport.Sender, channelID string, opts Options, logger *zap.Logger) *Builder {
	logger = logging.OrNop(logger).With(zap.String(logging.KeyChannel, channelID))
	b := &Builder{
		dims:      dims,
		surface:   surface,
		capturer:  capture.NewCapturer(dims, surface, logger),
		sender:    sender,
		channelID: channelID,
		opts:      opts,
		encoder:   encoder.NewJPEGEncoder(encoder.QualityFromCompression(opts.JPEGCompression)),
		logger:    logger,
		sleep:     sleepContext,
	}
	if opts.SkipUnchanged {
		b.changes = NewChangeDetector()
	}
	return b
}

// ChannelID returns the channel this builder serves.
func (b *Builder) ChannelID() string {
	return b.channelID
}

// Screenshots runs one dual capture cycle and blocks until it is done. The
// text layer is hidden again when it returns, whether or not it failed.
func (b *Builder) Screenshots(ctx context.Context) error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer b.busy.Store(false)
	return b.cycle(ctx)
}

// GetOnOffScreenshots starts a dual capture cycle in the background and calls
// done exactly once after both captures and the text revert. It returns
// ErrCycleInFlight without starting anything if a cycle is already running.
func (b *Builder) GetOnOffScreenshots(ctx context.Context, done func(error)) error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	go func() {
		err := b.cycle(ctx)
		b.busy.Store(false)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

func (b *Builder) cycle(ctx context.Context) (err error) {
	region := b.dims.DOM
	defer func() {
		b.surface.HideText()
		if err != nil {
			b.reset()
		}
	}()

	b.surface.HideText()
	var without capture.PixelBuffer
	err = logging.Timed(b.logger, "capture without text", func() error {
		var cerr error
		without, cerr = b.capturer.CaptureRegion(ctx, false)
		return cerr
	})
	if err != nil {
		return errors.Wrap(err, "capture without text")
	}

	b.surface.ShowText()
	if b.opts.DelayRender && b.opts.RenderDelay > 0 {
		if err = b.sleep(ctx, b.opts.RenderDelay); err != nil {
			return errors.Wrap(err, "settle delay")
		}
	}

	var with capture.PixelBuffer
	err = logging.Timed(b.logger, "capture with text", func() error {
		var cerr error
		with, cerr = b.capturer.CaptureRegion(ctx, false)
		return cerr
	})
	if err != nil {
		return errors.Wrap(err, "capture with text")
	}

	b.mu.Lock()
	b.withoutText = without
	b.withText = with
	b.region = region
	b.mu.Unlock()
	return nil
}

func (b *Builder) reset() {
	b.mu.Lock()
	b.withText = capture.PixelBuffer{}
	b.withoutText = capture.PixelBuffer{}
	b.mu.Unlock()
}

// ForegroundPixelAt returns the colour at absolute surface coordinates in the
// capture taken with text shown.
func (b *Builder) ForegroundPixelAt(x, y int) (capture.RGB, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return pixelAt(b.withText, b.region, x, y)
}

// BackgroundPixelAt returns the colour at absolute surface coordinates in the
// capture taken with text hidden.
func (b *Builder) BackgroundPixelAt(x, y int) (capture.RGB, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return pixelAt(b.withoutText, b.region, x, y)
}

func pixelAt(buf capture.PixelBuffer, region dimensions.Rect, x, y int) (capture.RGB, bool) {
	if buf.Empty() {
		return capture.RGB{}, false
	}
	rx, ry := capture.ToRelative(region, x, y)
	if !rx.Valid || !ry.Valid {
		return capture.RGB{}, false
	}
	return buf.RGBAt(rx.Value, ry.Value)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
