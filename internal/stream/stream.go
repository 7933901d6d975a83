// Package stream manages a single WebSocket connection: dial, write, and a
// blocking read loop that hands each frame to a caller-supplied callback.
//
// Unlike a typical long-lived feed, a Client never reconnects on its own.
// Reconnection policy (if any) belongs to whatever owns the Client, because
// silently reconnecting would race with in-flight order state the owner is
// tracking across the gap. A dropped connection is reported as an error from
// ReadUntilClose and nothing more.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// ErrNotConnected is returned by Send when called before Connect or after
// Close.
var ErrNotConnected = errors.New("stream: not connected")

// Client wraps one WebSocket connection. The zero value is not usable; call
// NewClient.
type Client struct {
	url    string
	logger *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewClient creates a Client bound to url. Connect must be called before
// Send or ReadUntilClose will do anything useful.
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{url: url, logger: logger}
}

// Connect dials the WebSocket endpoint. It does not start reading; call
// ReadUntilClose afterward to pump frames.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("stream: dial %s: %w", c.url, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	return nil
}

// Send writes one frame. Safe to call concurrently with ReadUntilClose and
// with other Send calls.
func (c *Client) Send(frame []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// ReadUntilClose blocks, calling onFrame for each inbound message, until the
// connection errors or ctx is cancelled. It returns the terminal error — the
// caller decides whether and how to reconnect. It never auto-reconnects and
// never retries internally.
func (c *Client) ReadUntilClose(ctx context.Context, onFrame func(frame []byte)) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	// Cancelling ctx closes the connection so a blocked read returns.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream: read: %w", err)
		}
		onFrame(msg)
	}
}

// Close closes the underlying connection, if any. Safe to call more than
// once.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
