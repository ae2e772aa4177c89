package addon

import (
	"context"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Manager is an entity's handle on the gateway connection. The bridge's
// Proxy implements it; entities never talk to the transport directly.
//
// Every method sends one message and returns the send error.
type Manager interface {
	PluginID() string

	SendDeviceAdded(ctx context.Context, adapterID string, device protocol.DeviceDescription) error
	SendDeviceRemoved(ctx context.Context, adapterID, deviceID string) error
	SendPropertyChanged(ctx context.Context, adapterID, deviceID string, property protocol.PropertyState) error
	SendActionStatus(ctx context.Context, adapterID, deviceID string, action protocol.ActionDescription) error
	SendEvent(ctx context.Context, adapterID, deviceID string, event protocol.EventDescription) error
	SendConnectedState(ctx context.Context, adapterID, deviceID string, connected bool) error
	SendPairingPrompt(ctx context.Context, adapterID string, prompt Prompt) error
	SendUnpairingPrompt(ctx context.Context, adapterID string, prompt Prompt) error

	SendOutletAdded(ctx context.Context, notifierID string, outlet protocol.OutletDescription) error
	SendOutletRemoved(ctx context.Context, notifierID, outletID string) error

	SendError(ctx context.Context, message string) error
}

// Prompt is a pairing or unpairing message for the user.
type Prompt struct {
	Message string

	// URL points at further explanation or troubleshooting.
	URL string

	// DeviceID ties the prompt to one device.
	DeviceID string
}

// Logger is the logging interface used by entities.
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
