// Package bridge connects an add-on's adapters, notifiers and API
// handlers to the gateway.
//
// Connect performs the registration handshake and returns a Session. The
// Session's receive loop (Run) decodes, validates and routes each inbound
// message in arrival order, then hands the work to a dedicated goroutine
// so a slow device never delays the next message. Every outbound message
// goes through one sender that stamps the plugin id and writes whole
// frames.
//
// Lock order: Session registries are never held while calling into an
// entity or sending, so entities may call the Session's addon.Manager
// methods while holding their own locks.
//
// Usage:
//
//	sess, err := bridge.Connect(ctx, bridge.Options{
//	    PluginID:  "virtual",
//	    Transport: tr,
//	    Validator: v,
//	})
//	if err != nil {
//	    return err // a *HandshakeError
//	}
//	adapter, _ := addon.NewAdapter(addon.AdapterOptions{ID: "virtual", PackageName: "virtual", Manager: sess})
//	_ = sess.AddAdapter(ctx, adapter)
//	return sess.Run(ctx)
package bridge
