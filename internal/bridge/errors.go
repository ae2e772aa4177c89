package bridge

import (
	"errors"
	"fmt"
)

// DontRestartExitCode is the process exit status that tells the gateway
// not to restart the add-on. Entry points use it when the handshake fails.
const DontRestartExitCode = 100

// Domain-specific errors for the gateway session.
var (
	// ErrHandshake indicates registration with the gateway failed. The
	// process should exit without asking to be restarted.
	ErrHandshake = errors.New("bridge: handshake failed")

	// ErrNotRunning indicates the session has stopped and can no longer
	// send messages.
	ErrNotRunning = errors.New("bridge: session not running")

	// ErrDuplicate indicates an entity with the same id is already
	// registered.
	ErrDuplicate = errors.New("bridge: duplicate registration")

	// ErrTransport indicates the link to the gateway failed.
	ErrTransport = errors.New("bridge: transport failed")
)

// HandshakeError describes which registration step failed.
type HandshakeError struct {
	Step string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrHandshake, e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() []error {
	return []error{ErrHandshake, e.Err}
}
