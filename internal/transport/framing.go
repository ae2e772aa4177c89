package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// frameHeaderSize is the 4-byte big-endian length prefix.
const frameHeaderSize = 4

// DefaultMaxMessageSize caps a framed message when none is configured.
const DefaultMaxMessageSize = 1 << 20

// writeFrame writes msg with its length prefix in a single Write.
func writeFrame(w io.Writer, msg []byte, maxSize int) error {
	if len(msg) > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrMessageTooLarge, len(msg), maxSize)
	}

	buf := make([]byte, frameHeaderSize+len(msg))
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	copy(buf[frameHeaderSize:], msg)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed message. A clean EOF between frames
// is returned as io.EOF.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame length: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if uint64(size) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrMessageTooLarge, size, maxSize)
	}

	msg := make([]byte, size)
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return msg, nil
}
