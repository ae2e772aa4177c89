package bridge

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Message workers. Each one runs on its own goroutine, re-resolves the
// device it targets (it may have gone since routing) and reports failures
// through a rejected response where the protocol has one, or the log
// where it does not.

// handleUnloadPlugin acknowledges the unload. It runs on the receive loop
// so the acknowledgment is written before the transport is closed.
func (s *Session) handleUnloadPlugin(ctx context.Context) {
	s.logger.Info("gateway requested plugin unload", "plugin_id", s.pluginID)
	if err := s.send(ctx, protocol.MsgPluginUnloadResponse, &protocol.PluginUnloadResponse{}); err != nil {
		s.logger.Error("failed to acknowledge plugin unload", "error", err)
	}
}

func (s *Session) startPairing(ctx context.Context, a *addon.Adapter, msg *protocol.StartPairing) {
	timeout := time.Duration(msg.Timeout * float64(time.Second))
	if err := a.StartPairing(ctx, timeout); err != nil {
		s.logger.Error("start pairing failed", "adapter_id", a.ID(), "error", err)
	}
}

func (s *Session) cancelPairing(ctx context.Context, a *addon.Adapter) {
	if err := a.CancelPairing(ctx); err != nil {
		s.logger.Error("cancel pairing failed", "adapter_id", a.ID(), "error", err)
	}
}

func (s *Session) unloadAdapter(ctx context.Context, a *addon.Adapter) {
	if err := a.Unload(ctx); err != nil {
		s.logger.Error("adapter unload failed", "adapter_id", a.ID(), "error", err)
	}
	if err := s.send(ctx, protocol.MsgAdapterUnloadResponse, &protocol.AdapterUnloadResponse{
		AdapterID: a.ID(),
	}); err != nil {
		s.logger.Error("failed to acknowledge adapter unload", "adapter_id", a.ID(), "error", err)
	}
}

func (s *Session) unloadNotifier(ctx context.Context, n *addon.Notifier) {
	if err := n.Unload(ctx); err != nil {
		s.logger.Error("notifier unload failed", "notifier_id", n.ID(), "error", err)
	}
	if err := s.send(ctx, protocol.MsgNotifierUnloadResponse, &protocol.NotifierUnloadResponse{
		NotifierID: n.ID(),
	}); err != nil {
		s.logger.Error("failed to acknowledge notifier unload", "notifier_id", n.ID(), "error", err)
	}
}

func (s *Session) notifyOutlet(ctx context.Context, o *addon.Outlet, msg *protocol.NotifyOutlet) {
	err := o.Notify(ctx, msg.Title, msg.Message, msg.Level)
	if err != nil {
		s.logger.Warn("outlet notify failed", "notifier_id", msg.NotifierID, "outlet_id", o.ID(), "error", err)
	}
	if err := s.send(ctx, protocol.MsgOutletNotifyResponse, &protocol.OutletNotifyResponse{
		NotifierID: msg.NotifierID,
		OutletID:   o.ID(),
		MessageID:  msg.MessageID,
		Success:    err == nil,
	}); err != nil {
		s.logger.Error("failed to answer notify", "outlet_id", o.ID(), "error", err)
	}
}

func (s *Session) handleAPIRequest(ctx context.Context, h addon.APIHandler, msg *protocol.APIHandlerRequest) {
	resp, err := h.HandleRequest(ctx, msg.Request)
	if err != nil {
		s.logger.Warn("api handler failed", "package_name", msg.PackageName, "path", msg.Request.Path, "error", err)
		resp = protocol.APIResponse{
			Status:      http.StatusInternalServerError,
			ContentType: "text/plain",
			Content:     err.Error(),
		}
	}
	if err := s.send(ctx, protocol.MsgAPIHandlerResponse, &protocol.APIHandlerResponse{
		PackageName: msg.PackageName,
		MessageID:   msg.MessageID,
		Response:    resp,
	}); err != nil {
		s.logger.Error("failed to answer api request", "package_name", msg.PackageName, "error", err)
	}
}

func (s *Session) unloadAPIHandler(ctx context.Context, h addon.APIHandler) {
	pkg := h.PackageName()
	if err := h.Unload(ctx); err != nil {
		s.logger.Error("api handler unload failed", "package_name", pkg, "error", err)
	}
	if err := s.send(ctx, protocol.MsgAPIHandlerUnloadResponse, &protocol.APIHandlerUnloadResponse{
		PackageName: pkg,
	}); err != nil {
		s.logger.Error("failed to acknowledge api handler unload", "package_name", pkg, "error", err)
	}
}

func (s *Session) removeDevice(ctx context.Context, a *addon.Adapter, msg *protocol.DeviceCommand) {
	if _, ok := a.Device(msg.DeviceID); !ok {
		s.logger.Debug("remove for unknown device ignored", "adapter_id", a.ID(), "device_id", msg.DeviceID)
		return
	}
	if err := a.RemoveDevice(ctx, msg.DeviceID); err != nil {
		s.logger.Error("remove device failed", "adapter_id", a.ID(), "device_id", msg.DeviceID, "error", err)
	}
}

func (s *Session) cancelRemoveDevice(ctx context.Context, a *addon.Adapter, msg *protocol.DeviceCommand) {
	if err := a.CancelRemoveDevice(ctx, msg.DeviceID); err != nil {
		s.logger.Error("cancel remove device failed", "adapter_id", a.ID(), "device_id", msg.DeviceID, "error", err)
	}
}

// setProperty applies a write. A refused write has already re-sent the
// unchanged value by the time SetProperty returns.
func (s *Session) setProperty(ctx context.Context, a *addon.Adapter, msg *protocol.SetProperty) {
	d, ok := a.Device(msg.DeviceID)
	if !ok {
		s.logger.Debug("set property on unknown device ignored", "adapter_id", a.ID(), "device_id", msg.DeviceID)
		return
	}
	if _, ok := d.Property(msg.PropertyName); !ok {
		s.logger.Debug("set unknown property ignored", "device_id", d.ID(), "property", msg.PropertyName)
		return
	}

	if err := d.SetProperty(ctx, msg.PropertyName, msg.PropertyValue); err != nil {
		var perr *addon.PropertyError
		if errors.As(err, &perr) {
			s.logger.Info("property write refused", "device_id", d.ID(), "property", msg.PropertyName, "reason", perr.Reason)
			return
		}
		s.logger.Error("set property failed", "device_id", d.ID(), "property", msg.PropertyName, "error", err)
	}
}

// requestAction creates and performs an action. An undeclared action or
// invalid input creates nothing and is answered with a rejection.
func (s *Session) requestAction(ctx context.Context, a *addon.Adapter, msg *protocol.RequestAction) {
	d, ok := a.Device(msg.DeviceID)
	if !ok {
		s.logger.Debug("action on unknown device ignored", "adapter_id", a.ID(), "device_id", msg.DeviceID)
		return
	}

	_, err := d.RequestAction(ctx, msg.ActionID, msg.ActionName, msg.Input)
	if err != nil {
		s.logger.Warn("action request refused", "device_id", d.ID(), "action", msg.ActionName, "error", err)
	}
	s.sendActionResponse(ctx, protocol.MsgRequestActionResponse, a.ID(), d.ID(), msg.ActionID, msg.ActionName, msg.MessageID, err == nil)
}

func (s *Session) removeAction(ctx context.Context, a *addon.Adapter, msg *protocol.RemoveAction) {
	d, ok := a.Device(msg.DeviceID)
	if !ok {
		s.logger.Debug("remove action on unknown device ignored", "adapter_id", a.ID(), "device_id", msg.DeviceID)
		return
	}

	err := d.RemoveAction(ctx, msg.ActionID, msg.ActionName)
	if err != nil {
		s.logger.Warn("action removal refused", "device_id", d.ID(), "action_id", msg.ActionID, "error", err)
	}
	s.sendActionResponse(ctx, protocol.MsgRemoveActionResponse, a.ID(), d.ID(), msg.ActionID, msg.ActionName, msg.MessageID, err == nil)
}

func (s *Session) sendActionResponse(ctx context.Context, mt protocol.MessageType, adapterID, deviceID, actionID, actionName string, messageID int64, success bool) {
	if err := s.send(ctx, mt, &protocol.ActionResponse{
		AdapterID:  adapterID,
		DeviceID:   deviceID,
		ActionID:   actionID,
		ActionName: actionName,
		MessageID:  messageID,
		Success:    success,
	}); err != nil {
		s.logger.Error("failed to answer action message", "message_type", mt, "action_id", actionID, "error", err)
	}
}

// setPin leaves device presence to the adapter: a missing device comes
// back as an error and is rejected.
func (s *Session) setPin(ctx context.Context, a *addon.Adapter, msg *protocol.SetPin) {
	desc, err := a.SetPin(ctx, msg.DeviceID, msg.Pin)
	if err != nil {
		s.logger.Warn("set pin refused", "adapter_id", a.ID(), "device_id", msg.DeviceID, "error", err)
	}
	s.sendAuthResponse(ctx, protocol.MsgSetPinResponse, a.ID(), msg.DeviceID, msg.MessageID, desc, err)
}

func (s *Session) setCredentials(ctx context.Context, a *addon.Adapter, msg *protocol.SetCredentials) {
	desc, err := a.SetCredentials(ctx, msg.DeviceID, msg.Username, msg.Password)
	if err != nil {
		s.logger.Warn("set credentials refused", "adapter_id", a.ID(), "device_id", msg.DeviceID, "error", err)
	}
	s.sendAuthResponse(ctx, protocol.MsgSetCredentialsResponse, a.ID(), msg.DeviceID, msg.MessageID, desc, err)
}

func (s *Session) sendAuthResponse(ctx context.Context, mt protocol.MessageType, adapterID, deviceID string, messageID int64, desc protocol.DeviceDescription, err error) {
	resp := &protocol.DeviceAuthResponse{
		AdapterID: adapterID,
		DeviceID:  deviceID,
		MessageID: messageID,
		Success:   err == nil,
	}
	if err == nil {
		resp.Device = &desc
	}
	if sendErr := s.send(ctx, mt, resp); sendErr != nil {
		s.logger.Error("failed to answer auth message", "message_type", mt, "device_id", deviceID, "error", sendErr)
	}
}
