package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
	"github.com/junsooki/cellframe/internal/transport"
)

// Viewer is the receiving side. It opens the frames channel and makes the
// offer.
type Viewer struct {
	pc         *webrtc.PeerConnection
	sig        Signaler
	transport  *transport.DataChannelTransport
	capturerID string
	logger     *zap.Logger
}

// NewViewer creates a Viewer that will connect to capturerID.
func NewViewer(sig Signaler, capturerID string, logger *zap.Logger) (*Viewer, error) {
	logger = logging.OrNop(logger).With(zap.String(logging.KeyComponent, "peer-viewer"))
	pc, err := NewPeerConnection(logger)
	if err != nil {
		return nil, err
	}

	// The channel must exist before the offer so the SDP carries it.
	ordered := true
	dc, err := pc.CreateDataChannel(FramesLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, errors.Wrap(err, "create frames channel")
	}
	dc.OnOpen(func() {
		logger.Info("frames data channel open")
	})

	v := &Viewer{
		pc:         pc,
		sig:        sig,
		transport:  transport.NewDataChannelTransport(dc),
		capturerID: capturerID,
		logger:     logger,
	}
	relayCandidates(pc, sig, func() string { return capturerID }, logger)
	return v, nil
}

// Transport returns the frame receiver.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect creates and sends the offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return errors.Wrap(err, "create offer")
	}
	if err := v.pc.SetLocalDescription(offer); err != nil {
		return errors.Wrap(err, "set local description")
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return v.sig.SendOffer(v.capturerID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return errors.Wrap(err, "decode answer")
	}
	return v.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
}
