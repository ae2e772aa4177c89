package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
	"github.com/nerrad567/gray-logic-addon/internal/schema"
	"github.com/nerrad567/gray-logic-addon/internal/transport"
)

const (
	// DefaultHandshakeTimeout bounds the wait for registerResponse.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultUnloadGrace is how long the transport stays open after the
	// unloadPlugin acknowledgment so the gateway can read it.
	DefaultUnloadGrace = 500 * time.Millisecond
)

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Session.
type Options struct {
	// PluginID is the add-on's identity on the gateway. Required.
	PluginID string

	// Transport is the unconnected link to the gateway. Required.
	Transport transport.Transport

	// Validator checks inbound messages. Nil disables validation.
	Validator *schema.Validator

	// ValidateOutbound also checks every outbound message with Validator.
	ValidateOutbound bool

	HandshakeTimeout time.Duration
	UnloadGrace      time.Duration

	Logger  Logger
	Metrics *Metrics
}

// Params is what the gateway told the add-on during registration.
type Params struct {
	PluginID       string
	GatewayVersion string
	UserProfile    protocol.UserProfile
	Preferences    protocol.Preferences
	IPCBaseAddr    string
}

// Session is the add-on's single connection to the gateway. It owns the
// transport, the entity registries and the receive loop, and implements
// addon.Manager so entities can send through it.
//
// Thread Safety: All methods are safe for concurrent use. Run must be
// called once.
type Session struct {
	id          string
	pluginID    string
	transport   transport.Transport
	validator   *schema.Validator
	unloadGrace time.Duration
	logger      Logger
	metrics     *Metrics

	sender  *sender
	workers *workerPool
	params  Params

	running   atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// mu guards the registries. It is never held while sending.
	mu          sync.RWMutex
	adapters    map[string]*addon.Adapter
	notifiers   map[string]*addon.Notifier
	apiHandlers map[string]addon.APIHandler
}

var _ addon.Manager = (*Session)(nil)

// Connect opens the transport and registers with the gateway. It returns
// a running Session, or a *HandshakeError if registration failed. The
// transport is closed on failure.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	if opts.PluginID == "" {
		return nil, errors.New("bridge: plugin id is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("bridge: transport is required")
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.UnloadGrace <= 0 {
		opts.UnloadGrace = DefaultUnloadGrace
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	s := &Session{
		id:          uuid.NewString(),
		pluginID:    opts.PluginID,
		transport:   opts.Transport,
		validator:   opts.Validator,
		unloadGrace: opts.UnloadGrace,
		logger:      logger,
		metrics:     opts.Metrics,
		workers:     &workerPool{logger: logger, metrics: opts.Metrics},
		adapters:    make(map[string]*addon.Adapter),
		notifiers:   make(map[string]*addon.Notifier),
		apiHandlers: make(map[string]addon.APIHandler),
	}
	s.sender = &sender{
		transport: opts.Transport,
		pluginID:  opts.PluginID,
		logger:    logger,
		metrics:   opts.Metrics,
	}
	if opts.ValidateOutbound {
		s.sender.validator = opts.Validator
	}

	hctx, cancel := context.WithTimeout(ctx, opts.HandshakeTimeout)
	defer cancel()

	if err := s.transport.Connect(hctx); err != nil {
		return nil, &HandshakeError{Step: "connect", Err: err}
	}

	params, err := s.register(hctx)
	if err != nil {
		s.transport.Close()
		return nil, err
	}
	s.params = params
	s.running.Store(true)

	logger.Info("registered with gateway",
		"plugin_id", s.pluginID,
		"session_id", s.id,
		"gateway_version", params.GatewayVersion)
	return s, nil
}

// register sends register and waits for registerResponse. Anything else
// arriving first is discarded.
func (s *Session) register(ctx context.Context) (Params, error) {
	if err := s.sender.send(ctx, protocol.MsgRegister, &protocol.Register{}); err != nil {
		return Params{}, &HandshakeError{Step: "send register", Err: err}
	}

	for {
		raw, err := s.transport.Recv(ctx)
		if err != nil {
			return Params{}, &HandshakeError{Step: "await response", Err: err}
		}

		env, err := protocol.Decode(raw)
		if err != nil {
			return Params{}, &HandshakeError{Step: "decode response", Err: err}
		}
		if env.MessageType != protocol.MsgRegisterResponse {
			s.logger.Warn("discarding message received before registration",
				"message_type", env.MessageType)
			continue
		}

		if s.validator != nil {
			if err := s.validator.Validate(raw); err != nil {
				return Params{}, &HandshakeError{Step: "validate response", Err: err}
			}
		}
		resp, err := protocol.DecodeData[protocol.RegisterResponse](env)
		if err != nil {
			return Params{}, &HandshakeError{Step: "decode response", Err: err}
		}

		if up, ok := s.transport.(transport.Upgrader); ok {
			if err := up.Upgrade(ctx, resp.IPCBaseAddr); err != nil {
				return Params{}, &HandshakeError{Step: "upgrade transport", Err: err}
			}
		}

		return Params{
			PluginID:       s.pluginID,
			GatewayVersion: resp.GatewayVersion,
			UserProfile:    resp.UserProfile,
			Preferences:    resp.Preferences,
			IPCBaseAddr:    resp.IPCBaseAddr,
		}, nil
	}
}

// ID returns the session id used to correlate log lines.
func (s *Session) ID() string { return s.id }

// PluginID returns the registered plugin id.
func (s *Session) PluginID() string { return s.pluginID }

// Params returns the registration response.
func (s *Session) Params() Params { return s.params }

// Running reports whether the session can still send and receive.
func (s *Session) Running() bool { return s.running.Load() }

// Run is the receive loop. Messages are routed in arrival order; handlers
// run on their own goroutines with a context that outlives ctx
// cancellation, so in-flight work is never cut short.
//
// Run returns nil after unloadPlugin has been acknowledged and the
// transport closed, ctx's error on cancellation, and an ErrTransport
// error if the link fails.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	workerCtx := context.WithoutCancel(ctx)

	for {
		raw, err := s.transport.Recv(ctx)
		if err != nil {
			s.running.Store(false)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}

		if stop := s.route(workerCtx, raw); stop {
			return s.finishUnload(ctx)
		}
	}
}

// finishUnload waits out the grace period on a deferred closer and
// returns once the transport is closed.
func (s *Session) finishUnload(ctx context.Context) error {
	closed := make(chan error, 1)
	go func() {
		timer := time.NewTimer(s.unloadGrace)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		closed <- s.Close()
	}()

	err := <-closed
	s.logger.Info("plugin unloaded", "plugin_id", s.pluginID, "session_id", s.id)
	return err
}

// Close stops the session and closes the transport. It does not wait for
// in-flight workers; call Wait for that.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.running.Store(false)
		if err := s.transport.Close(); err != nil && !errors.Is(err, transport.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// Wait blocks until every message worker has returned.
func (s *Session) Wait() {
	s.workers.wait()
}

func (s *Session) send(ctx context.Context, mt protocol.MessageType, data protocol.Outbound) error {
	if !s.running.Load() {
		return fmt.Errorf("sending %s: %w", mt, ErrNotRunning)
	}
	return s.sender.send(ctx, mt, data)
}

// drop logs and counts a message the router will not handle.
func (s *Session) drop(mt protocol.MessageType, reason, msg string, args ...any) {
	s.metrics.recordDropped(mt, reason)
	s.logger.Warn(msg, append([]any{"message_type", mt}, args...)...)
}
