package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
	"github.com/junsooki/cellframe/internal/transport"
)

// Source is the capturer side of the session. It answers offers and sends
// frames on the channel the viewer opens.
type Source struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	logger    *zap.Logger

	mu     sync.Mutex
	peerID string
}

// NewSource creates a Source peer manager.
func NewSource(sig Signaler, logger *zap.Logger) (*Source, error) {
	logger = logging.OrNop(logger).With(zap.String(logging.KeyComponent, "peer-source"))
	pc, err := NewPeerConnection(logger)
	if err != nil {
		return nil, err
	}

	s := &Source{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil),
		logger:    logger,
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != FramesLabel {
			logger.Debug("ignoring data channel", zap.String("label", dc.Label()))
			return
		}
		dc.OnOpen(func() {
			logger.Info("frames data channel open")
			s.transport.SetChannel(dc)
		})
	})
	relayCandidates(pc, sig, s.remote, logger)
	return s, nil
}

// Transport returns the frame sender. Sends fail with
// transport.ErrNotConnected until the channel is open.
func (s *Source) Transport() *transport.DataChannelTransport {
	return s.transport
}

func (s *Source) remote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// HandleOffer processes an incoming offer from a viewer.
func (s *Source) HandleOffer(from string, payload json.RawMessage) error {
	s.mu.Lock()
	s.peerID = from
	s.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return errors.Wrap(err, "decode offer")
	}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return errors.Wrap(err, "set remote description")
	}
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return errors.Wrap(err, "create answer")
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return errors.Wrap(err, "set local description")
	}
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return s.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (s *Source) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(s.pc, payload)
}

// Close shuts down the peer connection.
func (s *Source) Close() {
	if s.pc != nil {
		s.pc.Close()
	}
}
