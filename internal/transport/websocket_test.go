package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type received struct {
	tag, payload string
}

func TestWebSocketRoundTrip(t *testing.T) {
	srv := NewWebSocketServer(nil)
	got := make(chan received, 4)
	srv.OnMessage(func(tag, payload string) {
		got <- received{tag, payload}
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	sender := NewWebSocketSender("ws" + strings.TrimPrefix(ts.URL, "http"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sender.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer sender.Close()

	if err := sender.Send(FrameTag, `{"meta":{"id":1},"colours":[1,2,3]}`); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-got:
		if msg.tag != FrameTag {
			t.Errorf("tag = %q, want %q", msg.tag, FrameTag)
		}
		if msg.payload != `{"meta":{"id":1},"colours":[1,2,3]}` {
			t.Errorf("payload = %q", msg.payload)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestWebSocketSenderNotConnected(t *testing.T) {
	s := NewWebSocketSender("ws://127.0.0.1:1")
	if err := s.Send(FrameTag, "{}"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on unconnected sender: %v", err)
	}
}

func TestWebSocketSenderAfterClose(t *testing.T) {
	srv := NewWebSocketServer(nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := NewWebSocketSender("ws" + strings.TrimPrefix(ts.URL, "http"))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Send(FrameTag, "{}"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after Close = %v, want ErrNotConnected", err)
	}
}
