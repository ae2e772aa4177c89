package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
)

// WebSocket talks to the gateway over a single WebSocket connection, one
// envelope per text message.
type WebSocket struct {
	cfg    config.WebSocketTransportConfig
	logger Logger
	in     *inbox

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	writeMu sync.Mutex
}

// NewWebSocket creates an unconnected WebSocket transport.
func NewWebSocket(cfg config.WebSocketTransportConfig, logger Logger) *WebSocket {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &WebSocket{cfg: cfg, logger: logger, in: newInbox(16)}
}

// Connect dials the gateway URL.
func (t *WebSocket) Connect(ctx context.Context) error {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: time.Duration(t.cfg.HandshakeTimeout) * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, t.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", t.cfg.URL, err)
	}
	conn.SetReadLimit(int64(t.cfg.MaxMessageSize))

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	t.conn = conn
	t.mu.Unlock()

	t.logger.Debug("websocket connected", "url", t.cfg.URL)
	go t.readLoop(conn)
	return nil
}

func (t *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = ErrClosed
			} else if websocket.IsUnexpectedCloseError(err) {
				t.logger.Warn("websocket read error", "error", err)
			}
			t.in.push(nil, err)
			return
		}
		if !t.in.push(msg, nil) {
			return
		}
	}
}

// Send writes one text message.
func (t *WebSocket) Send(ctx context.Context, msg []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}
	if len(msg) > t.cfg.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrMessageTooLarge, len(msg), t.cfg.MaxMessageSize)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Recv returns the next inbound message.
func (t *WebSocket) Recv(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}
	return t.in.recv(ctx)
}

// Close sends a close frame and closes the connection.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.in.close()
	if conn == nil {
		return nil
	}

	t.writeMu.Lock()
	//nolint:errcheck // Best-effort close message
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	return conn.Close()
}
