package transport

import (
	"context"
	"errors"
	"sync"
)

// Transport errors.
var (
	// ErrClosed is returned once a transport has been closed, locally or by
	// the peer.
	ErrClosed = errors.New("transport: closed")

	// ErrNotConnected is returned by Send and Recv before Connect.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrMessageTooLarge is returned for a frame over the size limit.
	ErrMessageTooLarge = errors.New("transport: message too large")
)

// Transport moves whole JSON envelopes between the add-on and the gateway.
//
// Send is safe for concurrent use. Recv is called from a single receive
// loop. Any error from Send or Recv other than a context error means the
// link is unusable.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// Upgrader is implemented by transports that move to a plugin-specific
// channel after registration. addr is the channel address from the
// registration response and may be empty.
type Upgrader interface {
	Upgrade(ctx context.Context, addr string) error
}

type frame struct {
	data []byte
	err  error
}

// inbox bridges a background reader (or broker callback) to Recv.
type inbox struct {
	ch        chan frame
	done      chan struct{}
	closeOnce sync.Once
}

func newInbox(size int) *inbox {
	if size <= 0 {
		size = 1
	}
	return &inbox{ch: make(chan frame, size), done: make(chan struct{})}
}

// push delivers a frame, blocking while the buffer is full. It returns
// false once the inbox is closed.
func (b *inbox) push(data []byte, err error) bool {
	select {
	case b.ch <- frame{data: data, err: err}:
		return true
	case <-b.done:
		return false
	}
}

func (b *inbox) recv(ctx context.Context) ([]byte, error) {
	// A locally closed inbox never yields buffered frames.
	select {
	case <-b.done:
		return nil, ErrClosed
	default:
	}

	select {
	case f := <-b.ch:
		return f.data, f.err
	case <-b.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *inbox) close() {
	b.closeOnce.Do(func() { close(b.done) })
}
