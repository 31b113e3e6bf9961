package transport

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// DataChannelTransport carries tagged messages over a WebRTC DataChannel.
type DataChannelTransport struct {
	mu        sync.Mutex
	dc        *webrtc.DataChannel
	onMessage func(tag, payload string)
}

// NewDataChannelTransport wraps dc, which may be nil until the remote side
// opens it (see SetChannel).
func NewDataChannelTransport(dc *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if dc != nil {
		t.SetChannel(dc)
	}
	return t
}

// Send implements Sender.
func (t *DataChannelTransport) Send(tag, payload string) error {
	t.mu.Lock()
	dc := t.dc
	t.mu.Unlock()
	if dc == nil {
		return ErrNotConnected
	}
	return dc.SendText(EncodeMessage(tag, payload))
}

// OnMessage implements Receiver. Malformed messages are dropped.
func (t *DataChannelTransport) OnMessage(cb func(tag, payload string)) {
	t.mu.Lock()
	t.onMessage = cb
	t.mu.Unlock()
}

// SetChannel sets or replaces the DataChannel (used when the channel is
// negotiated by the remote peer).
func (t *DataChannelTransport) SetChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.dc = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.dispatch(string(msg.Data))
	})
}

func (t *DataChannelTransport) dispatch(raw string) {
	tag, payload, err := ParseMessage(raw)
	if err != nil {
		return
	}
	t.mu.Lock()
	cb := t.onMessage
	t.mu.Unlock()
	if cb != nil {
		cb(tag, payload)
	}
}
