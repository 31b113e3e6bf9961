package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/cellframe/internal/config"
	"github.com/junsooki/cellframe/internal/graphics"
	"github.com/junsooki/cellframe/internal/peer"
	"github.com/junsooki/cellframe/internal/signaling"
	"github.com/junsooki/cellframe/internal/transport"
)

var runFlags = map[string]string{
	"fps":              "fps",
	"channel":          "transport.channel",
	"transport":        "transport.kind",
	"url":              "transport.url",
	"signaling":        "signaling.url",
	"id":               "signaling.id",
	"http-server-mode": "http-server-mode",
	"skip-unchanged":   "skip-unchanged",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream frames to a viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(changedFlags(cmd, runFlags))
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runStream(ctx, cfg, logger)
	},
}

func init() {
	f := runCmd.Flags()
	f.Int("fps", 10, "frames per second")
	f.String("channel", "1", "channel id stamped on every frame")
	f.String("transport", config.TransportWebSocket, "transport: websocket or webrtc")
	f.String("url", "", "viewer websocket URL")
	f.String("signaling", "", "signaling server URL (webrtc)")
	f.String("id", "", "id to register under (webrtc)")
	f.Bool("http-server-mode", false, "wait render_delay after showing text")
	f.Bool("skip-unchanged", false, "do not resend frames that look unchanged")
}

// switchSender forwards to whichever peer transport is current.
type switchSender struct {
	mu  sync.Mutex
	cur transport.Sender
}

func (s *switchSender) Set(t transport.Sender) {
	s.mu.Lock()
	s.cur = t
	s.mu.Unlock()
}

func (s *switchSender) Send(tag, payload string) error {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()
	if cur == nil {
		return transport.ErrNotConnected
	}
	return cur.Send(tag, payload)
}

func runStream(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	sender := &switchSender{}

	switch cfg.Transport.Kind {
	case config.TransportWebRTC:
		sig, err := startSource(ctx, cfg, sender, logger)
		if err != nil {
			return err
		}
		defer sig.Close()
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case <-sig.Done():
				return errors.New("signaling connection closed")
			}
		})

	default:
		ws := transport.NewWebSocketSender(cfg.Transport.URL)
		if err := ws.Connect(ctx); err != nil {
			return err
		}
		defer ws.Close()
		sender.Set(ws)
		logger.Info("connected to viewer", zap.String("url", cfg.Transport.URL))
	}

	builder, err := newBuilder(cfg, sender, logger)
	if err != nil {
		return err
	}
	g.Go(func() error {
		return streamFrames(ctx, builder, time.Second/time.Duration(cfg.FPS), logger)
	})

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

func streamFrames(ctx context.Context, b *graphics.Builder, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := b.SendFrame(ctx)
			switch {
			case err == nil:
			case errors.Is(err, graphics.ErrCycleInFlight), errors.Is(err, transport.ErrNotConnected):
				logger.Debug("frame skipped", zap.Error(err))
			case errors.Is(err, graphics.ErrInvalidChannelID):
				return err
			default:
				logger.Warn("send frame", zap.Error(err))
			}
		}
	}
}

// startSource registers with the signaling server and answers viewer offers,
// pointing sender at the newest peer.
func startSource(ctx context.Context, cfg *config.Config, sender *switchSender, logger *zap.Logger) (*signaling.Client, error) {
	var (
		mu  sync.Mutex
		src *peer.Source
		sig *signaling.Client
	)
	sig = signaling.NewClient(cfg.Signaling.URL, cfg.Signaling.ID, signaling.ClientTypeCapturer, signaling.Handler{
		OnOffer: func(from string, payload json.RawMessage) {
			logger.Info("received offer", zap.String("from", from))
			mu.Lock()
			defer mu.Unlock()
			if src != nil {
				src.Close()
			}
			next, err := peer.NewSource(sig, logger)
			if err != nil {
				logger.Error("create source peer", zap.Error(err))
				return
			}
			if err := next.HandleOffer(from, payload); err != nil {
				logger.Error("handle offer", zap.Error(err))
				next.Close()
				return
			}
			src = next
			sender.Set(src.Transport())
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()
			if src == nil {
				return
			}
			if err := src.HandleICECandidate(payload); err != nil {
				logger.Warn("handle ICE candidate", zap.Error(err))
			}
		},
	}, logger)

	if err := sig.Connect(ctx); err != nil {
		return nil, err
	}
	logger.Info("capturer ready", zap.String("id", cfg.Signaling.ID), zap.String("channel", cfg.Transport.Channel))
	return sig, nil
}
