package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/config"
	"github.com/junsooki/cellframe/internal/display"
	"github.com/junsooki/cellframe/internal/graphics"
	"github.com/junsooki/cellframe/internal/logging"
	"github.com/junsooki/cellframe/internal/peer"
	"github.com/junsooki/cellframe/internal/signaling"
	"github.com/junsooki/cellframe/internal/transport"
)

var (
	cfgFile    string
	capturerID string
	devLog     bool
)

var viewerFlags = map[string]string{
	"listen":    "viewer.listen",
	"transport": "transport.kind",
	"signaling": "signaling.url",
	"log-level": "log.level",
}

var rootCmd = &cobra.Command{
	Use:          "cellframe-viewer",
	Short:        "Show frames streamed by cellframe in a window",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := make(map[string]any)
		for flag, key := range viewerFlags {
			if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
				overrides[key] = f.Value.String()
			}
		}
		cfg, err := config.Load(cfgFile, overrides)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log.Level, devLog)
		if err != nil {
			return err
		}
		defer logger.Sync()
		if errs := cfg.ValidateViewer(); len(errs) > 0 {
			for _, e := range errs {
				logger.Error("invalid config", zap.Error(e))
			}
			return errors.Errorf("%d config errors", len(errs))
		}
		return runViewer(cfg, logger)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ./cellframe.yaml)")
	f.StringVar(&capturerID, "capturer", "", "capturer id to connect to (webrtc, default first online on transport.channel)")
	f.BoolVar(&devLog, "dev", false, "human-readable log output")
	f.String("listen", "", "address to accept websocket senders on")
	f.String("transport", config.TransportWebSocket, "transport: websocket or webrtc")
	f.String("signaling", "", "signaling server URL (webrtc)")
	f.String("log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runViewer(cfg *config.Config, logger *zap.Logger) error {
	aspect := float64(cfg.Cell.Height) / 2 / float64(max(cfg.Cell.Width, 1))
	disp := display.NewEbitenDisplay("cellframe viewer", aspect)

	var frames atomic.Int64
	onMessage := graphics.FrameHandler(func(f *graphics.Frame) {
		if frames.Add(1) == 1 {
			logger.Info("first frame",
				zap.Int(logging.KeyChannel, f.Meta.ID),
				zap.Int("width", f.Meta.SubWidth),
				zap.Int("height", f.Meta.SubHeight))
		}
		disp.SetFrame(f.Image())
	}, logger)

	switch cfg.Transport.Kind {
	case config.TransportWebRTC:
		s, err := connectViewer(cfg, onMessage, logger)
		if err != nil {
			return err
		}
		defer s.Close()

	default:
		srv := transport.NewWebSocketServer(logger)
		srv.OnMessage(onMessage)
		mux := http.NewServeMux()
		mux.Handle("/frames", srv)
		httpSrv := &http.Server{Addr: cfg.Viewer.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("listening for frames", zap.String("addr", cfg.Viewer.Listen))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("viewer server", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(ctx)
		}()
	}

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	return disp.Run()
}

// viewerSession owns the signaling client and the current peer. With no
// --capturer it asks for the capturer list and connects to the first online
// capturer on the configured channel, picking again when that one leaves.
type viewerSession struct {
	cfg       *config.Config
	onMessage func(tag, payload string)
	logger    *zap.Logger
	sig       *signaling.Client

	mu     sync.Mutex
	target string
	viewer *peer.Viewer
}

func connectViewer(cfg *config.Config, onMessage func(tag, payload string), logger *zap.Logger) (*viewerSession, error) {
	s := &viewerSession{cfg: cfg, onMessage: onMessage, logger: logger}
	id := config.NewPeerID(signaling.ClientTypeViewer)
	s.sig = signaling.NewClient(cfg.Signaling.URL, id, signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() {
			if capturerID != "" {
				s.start(capturerID)
				return
			}
			if err := s.sig.RequestCapturerList(); err != nil {
				logger.Error("request capturer list", zap.Error(err))
			}
		},
		OnCapturersUpdated: func(list []signaling.CapturerInfo) {
			if capturerID != "" || s.current() != nil {
				return
			}
			id, ok := signaling.SelectCapturer(list, cfg.Transport.Channel)
			if !ok {
				logger.Info("no capturer online", zap.String(logging.KeyChannel, cfg.Transport.Channel))
				return
			}
			s.start(id)
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if v := s.current(); v != nil {
				if err := v.HandleAnswer(payload); err != nil {
					logger.Warn("handle answer", zap.Error(err))
				}
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if v := s.current(); v != nil {
				if err := v.HandleICECandidate(payload); err != nil {
					logger.Warn("handle ICE candidate", zap.Error(err))
				}
			}
		},
		OnCapturerDisconnected: func(id string) {
			if !s.drop(id) {
				return
			}
			logger.Warn("capturer disconnected", zap.String("id", id))
			if capturerID == "" {
				if err := s.sig.RequestCapturerList(); err != nil {
					logger.Error("request capturer list", zap.Error(err))
				}
			}
		},
	}, logger)

	if err := s.sig.Connect(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// start offers a session to the capturer with the given id.
func (s *viewerSession) start(id string) {
	v, err := peer.NewViewer(s.sig, id, s.logger)
	if err != nil {
		s.logger.Error("create viewer peer", zap.Error(err))
		return
	}
	v.Transport().OnMessage(s.onMessage)

	s.mu.Lock()
	s.target, s.viewer = id, v
	s.mu.Unlock()

	s.logger.Info("connecting to capturer", zap.String("id", id))
	if err := v.Connect(); err != nil {
		s.logger.Error("viewer connect", zap.Error(err))
		s.drop(id)
	}
}

func (s *viewerSession) current() *peer.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer
}

// drop closes the peer if it belongs to id and reports whether it did.
func (s *viewerSession) drop(id string) bool {
	s.mu.Lock()
	v := s.viewer
	if v == nil || s.target != id {
		s.mu.Unlock()
		return false
	}
	s.target, s.viewer = "", nil
	s.mu.Unlock()
	v.Close()
	return true
}

func (s *viewerSession) Close() {
	s.mu.Lock()
	v := s.viewer
	s.viewer = nil
	s.mu.Unlock()
	if v != nil {
		v.Close()
	}
	s.sig.Close()
}
