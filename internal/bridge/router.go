package bridge

import (
	"context"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// route handles one inbound frame on the receive loop. Routing is cheap
// and never blocks on an entity: anything that can take time is handed
// to a worker. It reports true when the loop must stop.
//
// Branch order is fixed:
//  1. decode and validate, dropping anything malformed or unknown
//  2. unloadPlugin
//  3. data must be an object
//  4. notifierId present: notifier messages
//  5. apiHandlerRequest and unloadAPIHandler: API handler messages
//  6. adapterId must name a registered adapter
//  7. adapter messages
//  8. deviceId present: device messages
func (s *Session) route(ctx context.Context, raw []byte) bool {
	env, err := protocol.Decode(raw)
	if err != nil {
		s.drop("", dropDecode, "dropping undecodable message", "error", err)
		return false
	}
	s.metrics.recordReceived(env.MessageType)

	if s.validator != nil {
		if err := s.validator.Validate(raw); err != nil {
			s.drop(env.MessageType, dropValidation, "dropping invalid message", "error", err)
			return false
		}
	}

	s.logger.Debug("message received", "message_type", env.MessageType)

	if env.MessageType == protocol.MsgUnloadPlugin {
		s.handleUnloadPlugin(ctx)
		return true
	}

	r, err := env.Route()
	if err != nil {
		s.drop(env.MessageType, dropNoData, "dropping message without data", "error", err)
		return false
	}

	if r.NotifierID != nil {
		s.routeNotifier(ctx, env, *r.NotifierID)
		return false
	}

	switch env.MessageType {
	case protocol.MsgAPIHandlerRequest, protocol.MsgUnloadAPIHandler:
		if r.PackageName == nil {
			s.drop(env.MessageType, dropNoData, "dropping api handler message without packageName")
			return false
		}
		s.routeAPIHandler(ctx, env, *r.PackageName)
		return false
	}

	if r.AdapterID == nil {
		s.drop(env.MessageType, dropNoData, "dropping message without adapterId")
		return false
	}
	adapter, ok := s.Adapter(*r.AdapterID)
	if !ok {
		s.drop(env.MessageType, dropUnknown, "dropping message for unknown adapter", "adapter_id", *r.AdapterID)
		return false
	}

	switch env.MessageType {
	case protocol.MsgStartPairing:
		if msg, ok := decode[protocol.StartPairing](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.startPairing(ctx, adapter, msg) })
		}
		return false
	case protocol.MsgCancelPairing:
		if _, ok := decode[protocol.AdapterCommand](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.cancelPairing(ctx, adapter) })
		}
		return false
	case protocol.MsgUnloadAdapter:
		if _, ok := decode[protocol.AdapterCommand](s, env); ok {
			s.removeAdapter(adapter.ID())
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.unloadAdapter(ctx, adapter) })
		}
		return false
	}

	if r.DeviceID == nil {
		s.drop(env.MessageType, dropUnhandled, "dropping unhandled adapter message", "adapter_id", adapter.ID())
		return false
	}
	s.routeDevice(ctx, env, adapter)
	return false
}

func (s *Session) routeNotifier(ctx context.Context, env *protocol.Envelope, id string) {
	notifier, ok := s.Notifier(id)
	if !ok {
		s.drop(env.MessageType, dropUnknown, "dropping message for unknown notifier", "notifier_id", id)
		return
	}

	switch env.MessageType {
	case protocol.MsgUnloadNotifier:
		if _, ok := decode[protocol.NotifierCommand](s, env); ok {
			s.removeNotifier(id)
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.unloadNotifier(ctx, notifier) })
		}
	case protocol.MsgNotifyOutlet:
		msg, ok := decode[protocol.NotifyOutlet](s, env)
		if !ok {
			return
		}
		outlet, ok := notifier.Outlet(msg.OutletID)
		if !ok {
			s.drop(env.MessageType, dropUnknown, "dropping message for unknown outlet",
				"notifier_id", id, "outlet_id", msg.OutletID)
			return
		}
		s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.notifyOutlet(ctx, outlet, msg) })
	default:
		s.drop(env.MessageType, dropUnhandled, "dropping unhandled notifier message", "notifier_id", id)
	}
}

func (s *Session) routeAPIHandler(ctx context.Context, env *protocol.Envelope, pkg string) {
	handler, ok := s.APIHandler(pkg)
	if !ok {
		s.drop(env.MessageType, dropUnknown, "dropping message for unknown api handler", "package_name", pkg)
		return
	}

	switch env.MessageType {
	case protocol.MsgAPIHandlerRequest:
		if msg, ok := decode[protocol.APIHandlerRequest](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.handleAPIRequest(ctx, handler, msg) })
		}
	case protocol.MsgUnloadAPIHandler:
		if _, ok := decode[protocol.APIHandlerCommand](s, env); ok {
			s.removeAPIHandler(pkg)
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.unloadAPIHandler(ctx, handler) })
		}
	}
}

func (s *Session) routeDevice(ctx context.Context, env *protocol.Envelope, adapter *addon.Adapter) {
	switch env.MessageType {
	case protocol.MsgRemoveDevice:
		if msg, ok := decode[protocol.DeviceCommand](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.removeDevice(ctx, adapter, msg) })
		}
	case protocol.MsgCancelRemoveDevice:
		if msg, ok := decode[protocol.DeviceCommand](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.cancelRemoveDevice(ctx, adapter, msg) })
		}
	case protocol.MsgSetProperty:
		if msg, ok := decode[protocol.SetProperty](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.setProperty(ctx, adapter, msg) })
		}
	case protocol.MsgRequestAction:
		if msg, ok := decode[protocol.RequestAction](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.requestAction(ctx, adapter, msg) })
		}
	case protocol.MsgRemoveAction:
		if msg, ok := decode[protocol.RemoveAction](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.removeAction(ctx, adapter, msg) })
		}
	case protocol.MsgSetPin:
		if msg, ok := decode[protocol.SetPin](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.setPin(ctx, adapter, msg) })
		}
	case protocol.MsgSetCredentials:
		if msg, ok := decode[protocol.SetCredentials](s, env); ok {
			s.workers.spawn(ctx, env.MessageType, func(ctx context.Context) { s.setCredentials(ctx, adapter, msg) })
		}
	default:
		s.drop(env.MessageType, dropUnhandled, "dropping unhandled device message", "adapter_id", adapter.ID())
	}
}
