package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/logging"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// WebSocketSender sends tagged messages as text frames over a client
// WebSocket connection.
type WebSocketSender struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocketSender creates a sender for url. Call Connect before Send.
func NewWebSocketSender(url string) *WebSocketSender {
	return &WebSocketSender{url: url}
}

// Connect dials the remote endpoint.
func (s *WebSocketSender) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return errors.Wrapf(err, "dial %s", s.url)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.closed = false
	return nil
}

// Send implements Sender. Writes are serialized.
func (s *WebSocketSender) Send(tag, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.closed {
		return ErrNotConnected
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(EncodeMessage(tag, payload))); err != nil {
		return errors.Wrap(err, "websocket write")
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (s *WebSocketSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.closed {
		return nil
	}
	s.closed = true
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

var upgrader = websocket.Upgrader{
	// The viewer is a local debugging tool.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketServer accepts connections from senders and hands every parsed
// message to the registered callback.
type WebSocketServer struct {
	logger *zap.Logger

	mu        sync.Mutex
	onMessage func(tag, payload string)
}

// NewWebSocketServer creates a server; mount it with http.Handle.
func NewWebSocketServer(logger *zap.Logger) *WebSocketServer {
	return &WebSocketServer{logger: logging.OrNop(logger)}
}

// OnMessage implements Receiver.
func (s *WebSocketServer) OnMessage(cb func(tag, payload string)) {
	s.mu.Lock()
	s.onMessage = cb
	s.mu.Unlock()
}

func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.logger.Info("sender connected", zap.String("remote", r.RemoteAddr))

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		tag, payload, err := ParseMessage(string(data))
		if err != nil {
			s.logger.Debug("dropping malformed message", zap.Int("bytes", len(data)))
			continue
		}
		s.mu.Lock()
		cb := s.onMessage
		s.mu.Unlock()
		if cb != nil {
			cb(tag, payload)
		}
	}
}
