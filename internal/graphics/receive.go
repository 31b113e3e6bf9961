package graphics

import (
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
	"github.com/junsooki/cellframe/internal/transport"
)

// ParseFrame decodes a frame payload and checks that its colours fit the
// frame size.
func ParseFrame(payload string) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, errors.Wrap(err, "decode frame")
	}
	if f.Meta.SubWidth < 0 || f.Meta.SubHeight < 0 {
		return nil, errors.Errorf("negative frame size %dx%d", f.Meta.SubWidth, f.Meta.SubHeight)
	}
	if want := f.Meta.SubWidth * f.Meta.SubHeight * 3; len(f.Colours) != want {
		return nil, errors.Errorf("frame has %d colour values, want %d", len(f.Colours), want)
	}
	return &f, nil
}

// FrameHandler returns a transport callback that parses frame messages and
// passes them to onFrame. Other tags and bad frames are logged and dropped.
func FrameHandler(onFrame func(*Frame), logger *zap.Logger) func(tag, payload string) {
	logger = logging.OrNop(logger)
	return func(tag, payload string) {
		if tag != transport.FrameTag {
			logger.Debug("ignoring message", zap.String("tag", tag))
			return
		}
		f, err := ParseFrame(payload)
		if err != nil {
			logger.Warn("dropping frame", zap.Error(err))
			return
		}
		onFrame(f)
	}
}
