// Package transport carries add-on protocol envelopes to and from the
// gateway.
//
// Three transports are provided:
//
//	IPC        Unix domain sockets, 4-byte big-endian length-prefixed frames
//	WebSocket  one text message per envelope (gorilla/websocket)
//	MQTT       broker topics under graylogic/addon (paho)
//
// IPC and MQTT implement Upgrader: registration happens on a shared
// channel and later traffic moves to a plugin-specific one.
//
// Each transport runs a background reader (or broker callback) that feeds
// an internal buffer, so Recv honours context cancellation without
// tearing down the link.
package transport
