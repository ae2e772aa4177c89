package virtual

import (
	"context"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// LogOutletID is the id of the log outlet.
const LogOutletID = "log"

// logOutlet writes notifications to the add-on log at a level matching
// their urgency.
type logOutlet struct {
	logger addon.Logger
}

func (o logOutlet) Notify(_ context.Context, title, message string, level protocol.NotificationLevel) error {
	args := []any{"title", title, "message", message, "level", level.String()}
	switch level {
	case protocol.NotificationHigh:
		o.logger.Warn("notification", args...)
	case protocol.NotificationLow:
		o.logger.Debug("notification", args...)
	default:
		o.logger.Info("notification", args...)
	}
	return nil
}
