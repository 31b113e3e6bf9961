package main

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/capture"
	"github.com/junsooki/cellframe/internal/config"
	"github.com/junsooki/cellframe/internal/decoder"
	"github.com/junsooki/cellframe/internal/dimensions"
	"github.com/junsooki/cellframe/internal/graphics"
	"github.com/junsooki/cellframe/internal/transport"
)

// openSurface builds the configured visual surface and returns it with its
// full size.
func openSurface(cfg *config.Config, logger *zap.Logger) (graphics.Surface, dimensions.Size, error) {
	switch cfg.Surface.Source {
	case config.SourceScreen:
		display, err := capture.NewDisplaySource(cfg.Surface.Display)
		if err != nil {
			return nil, dimensions.Size{}, err
		}
		b, err := display.Bounds()
		if err != nil {
			return nil, dimensions.Size{}, errors.Wrap(err, "display bounds")
		}
		logger.Info("capturing display",
			zap.Int("display", cfg.Surface.Display),
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()))
		return &capture.ScreenRasterizer{Display: display}, sizeOr(cfg, b.Dx(), b.Dy()), nil

	default:
		dec := decoder.NewImageDecoder()
		bg, err := dec.DecodeFile(cfg.Surface.Background)
		if err != nil {
			return nil, dimensions.Size{}, errors.Wrap(err, "background layer")
		}
		raster := capture.NewLayeredRasterizer(bg, nil)
		if cfg.Surface.Text != "" {
			text, err := dec.DecodeFile(cfg.Surface.Text)
			if err != nil {
				return nil, dimensions.Size{}, errors.Wrap(err, "text layer")
			}
			raster = capture.NewLayeredRasterizer(bg, text)
		}
		b := bg.Bounds()
		logger.Info("capturing layers",
			zap.String("background", cfg.Surface.Background),
			zap.String("text", cfg.Surface.Text),
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()))
		return raster, sizeOr(cfg, b.Dx(), b.Dy()), nil
	}
}

func sizeOr(cfg *config.Config, w, h int) dimensions.Size {
	if cfg.Surface.Width > 0 {
		w = cfg.Surface.Width
	}
	if cfg.Surface.Height > 0 {
		h = cfg.Surface.Height
	}
	return dimensions.Size{Width: w, Height: h}
}

// newBuilder wires the surface into a Builder for the configured channel.
func newBuilder(cfg *config.Config, sender transport.Sender, logger *zap.Logger) (*graphics.Builder, error) {
	surface, total, err := openSurface(cfg, logger)
	if err != nil {
		return nil, err
	}
	dims := dimensions.New(total, cfg.CellSize())
	dims.Update(cfg.SubRegion(total))
	logger.Debug("dimensions",
		zap.Any("dom", dims.DOM),
		zap.Any("frame", dims.Frame),
		zap.Float64("scaleW", dims.Scale.Width),
		zap.Float64("scaleH", dims.Scale.Height))

	opts := graphics.Options{
		JPEGCompression: cfg.HTTPServer.JPEGCompression,
		RenderDelay:     cfg.RenderDelay(),
		DelayRender:     cfg.HTTPServerMode,
		SkipUnchanged:   cfg.SkipUnchanged,
	}
	return graphics.NewBuilder(dims, surface, sender, cfg.Transport.Channel, opts, logger), nil
}
