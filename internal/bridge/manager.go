package bridge

import (
	"context"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// The methods below implement addon.Manager. None of them take the
// registry lock: entities call them while holding their own locks.

func (s *Session) SendDeviceAdded(ctx context.Context, adapterID string, device protocol.DeviceDescription) error {
	return s.send(ctx, protocol.MsgDeviceAdded, &protocol.DeviceAdded{
		AdapterID: adapterID,
		Device:    device,
	})
}

// SendDeviceRemoved uses removeDeviceResponse, which the gateway treats as
// "device gone" whether or not it asked for the removal.
func (s *Session) SendDeviceRemoved(ctx context.Context, adapterID, deviceID string) error {
	return s.send(ctx, protocol.MsgRemoveDeviceResponse, &protocol.RemoveDeviceResponse{
		AdapterID: adapterID,
		DeviceID:  deviceID,
	})
}

func (s *Session) SendPropertyChanged(ctx context.Context, adapterID, deviceID string, property protocol.PropertyState) error {
	return s.send(ctx, protocol.MsgPropertyChanged, &protocol.PropertyChanged{
		AdapterID: adapterID,
		DeviceID:  deviceID,
		Property:  property,
	})
}

func (s *Session) SendActionStatus(ctx context.Context, adapterID, deviceID string, action protocol.ActionDescription) error {
	return s.send(ctx, protocol.MsgActionStatus, &protocol.ActionStatus{
		AdapterID: adapterID,
		DeviceID:  deviceID,
		Action:    action,
	})
}

func (s *Session) SendEvent(ctx context.Context, adapterID, deviceID string, event protocol.EventDescription) error {
	return s.send(ctx, protocol.MsgEvent, &protocol.EventNotification{
		AdapterID: adapterID,
		DeviceID:  deviceID,
		Event:     event,
	})
}

func (s *Session) SendConnectedState(ctx context.Context, adapterID, deviceID string, connected bool) error {
	return s.send(ctx, protocol.MsgConnectedState, &protocol.ConnectedState{
		AdapterID: adapterID,
		DeviceID:  deviceID,
		Connected: connected,
	})
}

func (s *Session) SendPairingPrompt(ctx context.Context, adapterID string, prompt addon.Prompt) error {
	return s.send(ctx, protocol.MsgPairingPrompt, promptMessage(adapterID, prompt))
}

func (s *Session) SendUnpairingPrompt(ctx context.Context, adapterID string, prompt addon.Prompt) error {
	return s.send(ctx, protocol.MsgUnpairingPrompt, promptMessage(adapterID, prompt))
}

func promptMessage(adapterID string, p addon.Prompt) *protocol.PairingPrompt {
	return &protocol.PairingPrompt{
		AdapterID: adapterID,
		Prompt:    p.Message,
		URL:       p.URL,
		DeviceID:  p.DeviceID,
	}
}

func (s *Session) SendOutletAdded(ctx context.Context, notifierID string, outlet protocol.OutletDescription) error {
	return s.send(ctx, protocol.MsgOutletAdded, &protocol.OutletAdded{
		NotifierID:        notifierID,
		OutletDescription: outlet,
	})
}

func (s *Session) SendOutletRemoved(ctx context.Context, notifierID, outletID string) error {
	return s.send(ctx, protocol.MsgOutletRemoved, &protocol.OutletRemoved{
		NotifierID: notifierID,
		OutletID:   outletID,
	})
}

// SendError reports an add-on level error to the gateway.
func (s *Session) SendError(ctx context.Context, message string) error {
	return s.send(ctx, protocol.MsgPluginErrorNotification, &protocol.PluginErrorNotification{
		Message: message,
	})
}
