// Package peer negotiates the WebRTC session that carries frames from a
// capturer to a viewer.
package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
)

// FramesLabel is the label of the DataChannel carrying frames.
const FramesLabel = "frames"

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// Signaler relays session descriptions and candidates to the remote peer.
// *signaling.Client satisfies it.
type Signaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendAnswer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(logger *zap.Logger) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{
		ICEServers: ICEServers,
	}
	logger = logging.OrNop(logger)
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "new peer connection")
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Info("peer connection state", zap.String("state", state.String()))
	})
	return pc, nil
}

// relayCandidates forwards local ICE candidates to whatever target returns.
// Candidates gathered before a target is known are dropped.
func relayCandidates(pc *webrtc.PeerConnection, sig Signaler, target func() string, logger *zap.Logger) {
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		to := target()
		if c == nil || to == "" {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			logger.Warn("marshal ICE candidate", zap.Error(err))
			return
		}
		if err := sig.SendICECandidate(to, data); err != nil {
			logger.Debug("send ICE candidate", zap.Error(err))
		}
	})
}

func addCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return errors.Wrap(err, "decode ICE candidate")
	}
	return pc.AddICECandidate(candidate)
}
