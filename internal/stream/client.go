package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrRemote is returned when the server sends an error message.
var ErrRemote = errors.New("stream error")

// ErrUnexpectedClose is returned when the connection ends before a done message.
var ErrUnexpectedClose = errors.New("stream closed before completion")

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages. A comparison of a large
	// preset can take a while between results.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
}

// DefaultClientConfig returns default WebSocket configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      5 * time.Minute,
		WriteTimeout:     10 * time.Second,
	}
}

// Client watches comparisons streamed by the server.
type Client struct {
	base   string // ws(s)://host[:port]
	config ClientConfig
}

// NewClient creates a client for a server base URL. http(s) schemes are
// rewritten to ws(s).
func NewClient(baseURL string, config *ClientConfig) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	return &Client{base: u.String(), config: cfg}, nil
}

// Endpoint returns the /stream URL for a preset and load (0 keeps the preset's).
func (c *Client) Endpoint(preset string, load float64) string {
	q := url.Values{}
	q.Set("preset", preset)
	if load > 0 {
		q.Set("load", strconv.FormatFloat(load, 'f', -1, 64))
	}
	return c.base + "/stream?" + q.Encode()
}

// Watch streams one comparison. fn is called for every result message;
// the done message is returned. An error message yields ErrRemote.
func (c *Client) Watch(ctx context.Context, preset string, load float64, fn func(*Message) error) (*Message, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, c.Endpoint(preset, load), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	var writeMu sync.Mutex
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(conn, &writeMu, done)
	}()

	// Closing the connection unblocks the reader on cancellation
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		conn.Close()
		wg.Wait()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrUnexpectedClose
			}
			return nil, fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case TypeResult:
			if fn != nil {
				if err := fn(&msg); err != nil {
					return nil, err
				}
			}
		case TypeDone:
			return &msg, nil
		case TypeError:
			return nil, fmt.Errorf("%w: %s", ErrRemote, msg.Error)
		default:
			return nil, fmt.Errorf("unknown message type %q", msg.Type)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				// Reader surfaces the failure
				return
			}
		}
	}
}
