// Package transport delivers tagged messages such as serialized frames to
// the terminal side.
package transport

import (
	"strings"

	"github.com/pkg/errors"
)

// FrameTag tags a JSON-encoded pixel frame.
const FrameTag = "frame_pixels"

var (
	// ErrNotConnected is returned when sending before a channel exists.
	ErrNotConnected = errors.New("transport not connected")
	// ErrMalformedMessage is returned for messages without a "/tag," prefix.
	ErrMalformedMessage = errors.New("malformed message")
)

// Sender sends a tagged payload.
type Sender interface {
	Send(tag, payload string) error
}

// Receiver delivers tagged payloads to a callback.
type Receiver interface {
	OnMessage(callback func(tag, payload string))
}

// EncodeMessage builds the wire form "/<tag>,<payload>".
func EncodeMessage(tag, payload string) string {
	var b strings.Builder
	b.Grow(len(tag) + len(payload) + 2)
	b.WriteByte('/')
	b.WriteString(tag)
	b.WriteByte(',')
	b.WriteString(payload)
	return b.String()
}

// ParseMessage splits a wire message into its tag and payload.
func ParseMessage(msg string) (tag, payload string, err error) {
	rest, ok := strings.CutPrefix(msg, "/")
	if !ok {
		return "", "", ErrMalformedMessage
	}
	tag, payload, ok = strings.Cut(rest, ",")
	if !ok || tag == "" {
		return "", "", ErrMalformedMessage
	}
	return tag, payload, nil
}

var (
	_ Sender   = (*WebSocketSender)(nil)
	_ Sender   = (*DataChannelTransport)(nil)
	_ Receiver = (*DataChannelTransport)(nil)
	_ Receiver = (*WebSocketServer)(nil)
)
