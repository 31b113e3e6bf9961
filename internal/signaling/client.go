package signaling

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
)

const (
	pingInterval     = 25 * time.Second
	handshakeTimeout = 10 * time.Second
)

// ErrNotConnected is returned when sending before Connect succeeded.
var ErrNotConnected = errors.New("signaling not connected")

// Handler callbacks for incoming signaling messages. Nil callbacks are
// skipped.
type Handler struct {
	OnRegistered           func()
	OnOffer                func(from string, payload json.RawMessage)
	OnAnswer               func(from string, payload json.RawMessage)
	OnICECandidate         func(from string, payload json.RawMessage)
	OnCapturersUpdated     func(capturers []CapturerInfo)
	OnCapturerDisconnected func(capturerID string)
	OnError                func(msg string)
}

// Client is a WebSocket signaling client.
type Client struct {
	url        string
	clientID   string
	clientType string
	handler    Handler
	logger     *zap.Logger

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a signaling client.
func NewClient(url, clientID, clientType string, handler Handler, logger *zap.Logger) *Client {
	return &Client{
		url:        url,
		clientID:   clientID,
		clientType: clientType,
		handler:    handler,
		logger:     logging.OrNop(logger).With(zap.String(logging.KeyComponent, "signaling")),
		done:       make(chan struct{}),
	}
}

// ID returns the id this client registers under.
func (c *Client) ID() string {
	return c.clientID
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Connect dials the signaling server, registers and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.Wrap(err, "signaling dial")
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	err = c.send(Message{
		Type:       TypeRegister,
		ID:         c.clientID,
		ClientType: c.clientType,
	})
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "signaling register")
	}

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer to target.
func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Target: target, Payload: payload})
}

// SendAnswer sends an SDP answer to target.
func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Target: target, Payload: payload})
}

// SendICECandidate sends an ICE candidate to target.
func (c *Client) SendICECandidate(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, Target: target, Payload: payload})
}

// RequestCapturerList asks the server for available capturers.
func (c *Client) RequestCapturerList() error {
	return c.send(Message{Type: TypeListCapturers})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("signaling read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeRegistered:
		c.logger.Info("registered", zap.String("id", c.clientID), zap.String("clientType", c.clientType))
		if c.handler.OnRegistered != nil {
			c.handler.OnRegistered()
		}
	case TypeOffer:
		if c.handler.OnOffer != nil {
			c.handler.OnOffer(msg.From, msg.Payload)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.From, msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.From, msg.Payload)
		}
	case TypeCapturers, TypeCapturersUpdated:
		if c.handler.OnCapturersUpdated != nil {
			c.handler.OnCapturersUpdated(msg.List)
		}
	case TypeCapturerDisconnected:
		if c.handler.OnCapturerDisconnected != nil {
			c.handler.OnCapturerDisconnected(msg.CapturerID)
		}
	case TypeError:
		c.logger.Warn("signaling server error", zap.String("message", msg.Msg))
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
	default:
		c.logger.Debug("ignoring signaling message", zap.String("type", msg.Type))
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()})
		}
	}
}
