package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer accepts one client, records its first message and then writes
// the scripted replies.
func fakeServer(t *testing.T, replies []Message, received chan<- Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, m := range replies {
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		}
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestClientRegistersAndDispatches(t *testing.T) {
	received := make(chan Message, 8)
	offer := json.RawMessage(`{"sdp":"v=0","type":"offer"}`)
	srv := fakeServer(t, []Message{
		{Type: TypeRegistered},
		{Type: TypeOffer, From: "viewer-1", Payload: offer},
		{Type: TypeCapturersUpdated, List: []CapturerInfo{{ID: "capturer-1", Online: true, Channel: "1"}}},
		{Type: TypeCapturerDisconnected, CapturerID: "capturer-1"},
	}, received)
	defer srv.Close()

	registered := make(chan struct{}, 1)
	offers := make(chan string, 1)
	lists := make(chan []CapturerInfo, 1)
	gone := make(chan string, 1)
	c := NewClient(wsURL(srv), "capturer-1", ClientTypeCapturer, Handler{
		OnRegistered: func() { registered <- struct{}{} },
		OnOffer: func(from string, payload json.RawMessage) {
			offers <- from + " " + string(payload)
		},
		OnCapturersUpdated:     func(l []CapturerInfo) { lists <- l },
		OnCapturerDisconnected: func(id string) { gone <- id },
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	select {
	case msg := <-received:
		if msg.Type != TypeRegister || msg.ID != "capturer-1" || msg.ClientType != ClientTypeCapturer {
			t.Errorf("first message = %+v, want register", msg)
		}
	case <-ctx.Done():
		t.Fatal("server never saw register")
	}

	select {
	case <-registered:
	case <-ctx.Done():
		t.Fatal("OnRegistered not called")
	}
	select {
	case got := <-offers:
		if got != "viewer-1 "+string(offer) {
			t.Errorf("offer = %q", got)
		}
	case <-ctx.Done():
		t.Fatal("OnOffer not called")
	}
	select {
	case l := <-lists:
		if len(l) != 1 || l[0].ID != "capturer-1" || l[0].Channel != "1" {
			t.Errorf("capturer list = %+v", l)
		}
	case <-ctx.Done():
		t.Fatal("OnCapturersUpdated not called")
	}
	select {
	case id := <-gone:
		if id != "capturer-1" {
			t.Errorf("disconnected id = %q", id)
		}
	case <-ctx.Done():
		t.Fatal("OnCapturerDisconnected not called")
	}

	if err := c.SendAnswer("viewer-1", json.RawMessage(`{"type":"answer"}`)); err != nil {
		t.Fatalf("SendAnswer: %v", err)
	}
	select {
	case msg := <-received:
		if msg.Type != TypeAnswer || msg.Target != "viewer-1" {
			t.Errorf("answer message = %+v", msg)
		}
	case <-ctx.Done():
		t.Fatal("server never saw answer")
	}
}

func TestClientSendBeforeConnect(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", "viewer-1", ClientTypeViewer, Handler{}, nil)
	if err := c.RequestCapturerList(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send before connect = %v, want ErrNotConnected", err)
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	received := make(chan Message, 4)
	srv := fakeServer(t, nil, received)
	defer srv.Close()

	c := NewClient(wsURL(srv), "viewer-1", ClientTypeViewer, Handler{}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Error("Done should be closed after Close")
	}
	if err := c.SendOffer("capturer-1", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send after close = %v, want ErrNotConnected", err)
	}
}
