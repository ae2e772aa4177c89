package protocol

import (
	"errors"
	"fmt"
)

// Domain-specific errors for message decoding.
var (
	// ErrDecode indicates the frame is not a JSON envelope.
	ErrDecode = errors.New("protocol: malformed message")

	// ErrMissingField indicates a required envelope or payload field is absent.
	ErrMissingField = errors.New("protocol: missing required field")

	// ErrUnknownMessageType indicates a messageType with no schema document.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
)

// DecodeError describes which field of which message could not be decoded.
type DecodeError struct {
	Type  MessageType
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Field)
	}
	return fmt.Sprintf("%v: %s.%s", e.Err, e.Type, e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missing(t MessageType, field string) error {
	return &DecodeError{Type: t, Field: field, Err: ErrMissingField}
}
