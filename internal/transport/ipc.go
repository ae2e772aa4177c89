package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
)

// Logger is the logging interface used by transports.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// IPC talks to the gateway over Unix domain sockets using 4-byte
// big-endian length-prefixed frames.
//
// Connect dials the gateway's manager socket. Upgrade switches to the
// plugin channel named in the registration response; the manager
// connection is closed once the new one is up.
type IPC struct {
	cfg    config.IPCTransportConfig
	logger Logger
	in     *inbox

	mu     sync.Mutex
	conn   net.Conn
	gen    uint64
	closed bool

	writeMu sync.Mutex
}

// NewIPC creates an unconnected IPC transport.
func NewIPC(cfg config.IPCTransportConfig, logger Logger) *IPC {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &IPC{cfg: cfg, logger: logger, in: newInbox(16)}
}

// SocketPath resolves a socket name against the base directory. Absolute
// paths and ipc:// URLs are used as given.
func (t *IPC) SocketPath(name string) string {
	name = strings.TrimPrefix(name, "ipc://")
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(t.cfg.BaseDir, name)
}

// Connect dials the manager socket.
func (t *IPC) Connect(ctx context.Context) error {
	return t.dial(ctx, t.cfg.ManagerSocket)
}

// Upgrade dials the plugin channel. An empty addr keeps the manager
// connection.
func (t *IPC) Upgrade(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	return t.dial(ctx, addr)
}

func (t *IPC) dial(ctx context.Context, name string) error {
	path := t.SocketPath(name)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", path, err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	old := t.conn
	t.gen++
	gen := t.gen
	t.conn = conn
	t.mu.Unlock()

	if old != nil {
		old.Close()
	}

	t.logger.Debug("ipc connected", "socket", path)
	go t.readLoop(conn, gen)
	return nil
}

func (t *IPC) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen && !t.closed
}

func (t *IPC) readLoop(conn net.Conn, gen uint64) {
	for {
		msg, err := readFrame(conn, t.cfg.MaxMessageSize)
		if err != nil {
			// A replaced connection's reader exits quietly.
			if !t.current(gen) {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrClosed
			}
			t.in.push(nil, err)
			return
		}
		if !t.in.push(msg, nil) {
			return
		}
	}
}

// Send writes one framed message.
func (t *IPC) Send(ctx context.Context, msg []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return writeFrame(conn, msg, t.cfg.MaxMessageSize)
}

// Recv returns the next inbound message.
func (t *IPC) Recv(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}
	return t.in.recv(ctx)
}

// Close closes the current connection. It is safe to call more than once.
func (t *IPC) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.in.close()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
