package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
	"github.com/nerrad567/gray-logic-addon/internal/schema"
	"github.com/nerrad567/gray-logic-addon/internal/transport"
)

const testTimeout = 2 * time.Second

// outbound is one frame the add-on wrote, decoded for assertions.
type outbound struct {
	MessageType protocol.MessageType `json:"messageType"`
	Data        map[string]any       `json:"data"`
	at          time.Time
}

// fakeTransport is an in-memory gateway link. Tests feed inbound frames
// with deliver and read what the add-on wrote from out.
type fakeTransport struct {
	connectErr error

	inbound chan []byte
	out     chan outbound

	mu        sync.Mutex
	sent      []outbound
	closed    bool
	closedAt  time.Time
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 64),
		out:     make(chan outbound, 256),
		done:    make(chan struct{}),
	}
}

func (f *fakeTransport) Connect(context.Context) error { return f.connectErr }

func (f *fakeTransport) Send(_ context.Context, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return transport.ErrClosed
	}
	var o outbound
	if err := json.Unmarshal(msg, &o); err != nil {
		return err
	}
	o.at = time.Now()
	f.sent = append(f.sent, o)
	f.out <- o
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return nil, transport.ErrClosed
	default:
	}
	select {
	case msg := <-f.inbound:
		return msg, nil
	case <-f.done:
		return nil, transport.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.closedAt = time.Now()
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

func (f *fakeTransport) isClosed() (bool, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.closedAt
}

func (f *fakeTransport) deliverRaw(raw string) {
	f.inbound <- []byte(raw)
}

func (f *fakeTransport) deliver(t *testing.T, mt protocol.MessageType, data any) {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"messageType": mt, "data": data})
	if err != nil {
		t.Fatal(err)
	}
	f.inbound <- raw
}

// next returns the next outbound frame of type mt, skipping others.
func (f *fakeTransport) next(t *testing.T, mt protocol.MessageType) outbound {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case o := <-f.out:
			if o.MessageType == mt {
				return o
			}
		case <-deadline:
			t.Fatalf("no %s message sent", mt)
			return outbound{}
		}
	}
}

// expectQuiet fails if anything is written within d.
func (f *fakeTransport) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case o := <-f.out:
		t.Fatalf("unexpected %s message: %v", o.MessageType, o.Data)
	case <-time.After(d):
	}
}

// upgradingTransport records the address passed to Upgrade.
type upgradingTransport struct {
	*fakeTransport
	mu       sync.Mutex
	upgraded []string
	err      error
}

func (u *upgradingTransport) Upgrade(_ context.Context, addr string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.upgraded = append(u.upgraded, addr)
	return u.err
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) Error(msg string, _ ...any) { l.Warn(msg) }

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, w := range l.warns {
		if w == msg {
			n++
		}
	}
	return n
}

func newValidator(t *testing.T) *schema.Validator {
	t.Helper()
	v, err := schema.New(schema.Options{})
	if err != nil {
		t.Fatalf("schema.New() error = %v", err)
	}
	return v
}

func registerResponse(ipcBaseAddr string) map[string]any {
	data := map[string]any{
		"pluginId":       "virtual",
		"gatewayVersion": "2.0.0",
		"userProfile":    map[string]any{"baseDir": "/home/gw/.gateway"},
		"preferences":    map[string]any{"language": "en-GB"},
	}
	if ipcBaseAddr != "" {
		data["ipcBaseAddr"] = ipcBaseAddr
	}
	return data
}

// connect runs the handshake against ft and returns the running session.
func connect(t *testing.T, ft *fakeTransport, opts Options) *Session {
	t.Helper()
	ft.deliver(t, protocol.MsgRegisterResponse, registerResponse(""))

	opts.PluginID = "virtual"
	if opts.Transport == nil {
		opts.Transport = ft
	}
	if opts.Validator == nil {
		opts.Validator = newValidator(t)
	}

	s, err := Connect(context.Background(), opts)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	ft.next(t, protocol.MsgRegister)
	return s
}

// run starts the receive loop and returns a channel with its result.
func run(t *testing.T, s *Session) (<-chan error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		s.Close()
		s.Wait()
	})
	return result, cancel
}

func isHandshakeError(err error) bool {
	var he *HandshakeError
	return errors.As(err, &he) && errors.Is(err, ErrHandshake)
}
