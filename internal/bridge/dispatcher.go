package bridge

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// inbound is implemented by every typed gateway payload.
type inbound[T any] interface {
	*T
	Validate() error
}

// decode extracts the typed payload of env. A failure is logged and
// counted, and the message is dropped.
func decode[T any, P inbound[T]](s *Session, env *protocol.Envelope) (*T, bool) {
	msg, err := protocol.DecodeData[T, P](env)
	if err != nil {
		s.drop(env.MessageType, dropDecode, "dropping message with bad payload", "error", err)
		return nil, false
	}
	return msg, true
}

// workerPool runs one goroutine per dispatched message. Workers are
// independent: a slow or panicking worker never blocks the receive loop
// or another worker.
type workerPool struct {
	wg      sync.WaitGroup
	logger  Logger
	metrics *Metrics
}

// spawn runs fn on its own goroutine with ctx.
func (p *workerPool) spawn(ctx context.Context, mt protocol.MessageType, fn func(ctx context.Context)) {
	p.wg.Add(1)
	p.metrics.workerStarted()

	go func() {
		start := time.Now()
		panicked := false

		defer func() {
			if r := recover(); r != nil {
				panicked = true
				p.logger.Error("message worker panicked",
					"message_type", mt,
					"panic", r,
					"stack", string(debug.Stack()))
			}
			p.metrics.workerFinished(mt, time.Since(start), panicked)
			p.wg.Done()
		}()

		fn(ctx)
	}()
}

// wait blocks until every spawned worker has returned.
func (p *workerPool) wait() {
	p.wg.Wait()
}
