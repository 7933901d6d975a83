package stream

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newEchoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func TestClientConnectSendReceive(t *testing.T) {
	t.Parallel()

	srv, wsURL := newEchoServer(t)
	defer srv.Close()

	c := NewClient(wsURL, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	received := make(chan []byte, 1)
	readErr := make(chan error, 1)
	go func() {
		readErr <- c.ReadUntilClose(ctx, func(frame []byte) {
			select {
			case received <- frame:
			default:
			}
		})
	}()

	select {
	case frame := <-received:
		if string(frame) != "hello" {
			t.Errorf("frame = %q, want %q", frame, "hello")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echoed frame")
	}

	c.Close()
	select {
	case <-readErr:
	case <-time.After(3 * time.Second):
		t.Fatal("ReadUntilClose did not return after Close")
	}
}

func TestClientSendWithoutConnectFails(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://unused.invalid", testLogger())
	if err := c.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestClientConnectFailsOnBadURL(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://127.0.0.1:1", testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := c.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail against unreachable host")
	}
}

func TestClientReadUntilCloseWithoutConnect(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://unused.invalid", testLogger())
	err := c.ReadUntilClose(context.Background(), func([]byte) {})
	if err != ErrNotConnected {
		t.Errorf("ReadUntilClose error = %v, want ErrNotConnected", err)
	}
}
