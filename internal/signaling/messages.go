// Package signaling implements the JSON-over-WebSocket protocol used to set
// up WebRTC sessions between a capturer and a viewer.
package signaling

import "encoding/json"

// Message types.
const (
	TypeRegister             = "register"
	TypeRegistered           = "registered"
	TypeListCapturers        = "list-capturers"
	TypeCapturers            = "capturers"
	TypeCapturersUpdated     = "capturers-updated"
	TypeOffer                = "offer"
	TypeAnswer               = "answer"
	TypeICECandidate         = "ice-candidate"
	TypePing                 = "ping"
	TypePong                 = "pong"
	TypeError                = "error"
	TypeCapturerDisconnected = "capturer-disconnected"
)

// Client roles.
const (
	ClientTypeCapturer = "capturer"
	ClientTypeViewer   = "viewer"
)

// Message is the envelope for every signaling message.
type Message struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	ClientType string          `json:"clientType,omitempty"`
	From       string          `json:"from,omitempty"`
	Target     string          `json:"target,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	List       []CapturerInfo  `json:"list,omitempty"`
	CapturerID string          `json:"capturerId,omitempty"`
	Msg        string          `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// CapturerInfo is one entry of the capturer list.
type CapturerInfo struct {
	ID      string `json:"id"`
	Online  bool   `json:"online"`
	Channel string `json:"channel,omitempty"`
}

// SelectCapturer picks the capturer a viewer should connect to: the first
// online one streaming channel, or the first online one when channel is
// empty or nothing streams it.
func SelectCapturer(list []CapturerInfo, channel string) (string, bool) {
	fallback := ""
	for _, c := range list {
		if !c.Online {
			continue
		}
		if channel == "" || c.Channel == channel {
			return c.ID, true
		}
		if fallback == "" {
			fallback = c.ID
		}
	}
	return fallback, fallback != ""
}
