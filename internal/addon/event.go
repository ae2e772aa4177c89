package addon

import (
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Event is a single occurrence raised by a device.
type Event struct {
	Name string
	Data any
	Time time.Time
}

// Describe returns the event's wire state.
func (e Event) Describe() protocol.EventDescription {
	return protocol.EventDescription{
		Name:      e.Name,
		Data:      e.Data,
		Timestamp: protocol.Timestamp(e.Time),
	}
}
