package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
	"github.com/nerrad567/gray-logic-addon/internal/schema"
	"github.com/nerrad567/gray-logic-addon/internal/transport"
)

// sender is the single write path to the gateway. Every outbound payload
// is stamped with the plugin id, encoded and written as one frame.
//
// Thread Safety: send may be called from any goroutine; frames are never
// interleaved.
type sender struct {
	transport transport.Transport
	pluginID  string
	logger    Logger
	metrics   *Metrics

	// validator is nil unless outbound validation is enabled.
	validator *schema.Validator

	mu sync.Mutex
}

func (s *sender) send(ctx context.Context, mt protocol.MessageType, data protocol.Outbound) error {
	data.SetPluginID(s.pluginID)

	raw, err := protocol.Encode(mt, data)
	if err != nil {
		s.metrics.recordSent(mt, err)
		return err
	}

	if s.validator != nil {
		if err := s.validator.Validate(raw); err != nil {
			s.logger.Error("refusing to send invalid message", "message_type", mt, "error", err)
			s.metrics.recordSent(mt, err)
			return fmt.Errorf("sending %s: %w", mt, err)
		}
	}

	s.mu.Lock()
	err = s.transport.Send(ctx, raw)
	s.mu.Unlock()

	s.metrics.recordSent(mt, err)
	if err != nil {
		return fmt.Errorf("sending %s: %w", mt, err)
	}
	s.logger.Debug("message sent", "message_type", mt)
	return nil
}
