// Package protocol defines the wire format spoken between an add-on and the
// Gray Logic gateway.
//
// Every frame is a JSON envelope:
//
//	{"messageType": "setProperty", "data": {"adapterId": "...", ...}}
//
// Message type constants (Msg*) are generated from the schema documents in
// internal/schema/schemas/messages by cmd/msgtypegen; run `go generate
// ./internal/protocol` after adding or renaming a schema.
//
// Inbound payloads are decoded with DecodeData, which also checks required
// fields:
//
//	env, err := protocol.Decode(frame)
//	req, err := protocol.DecodeData[protocol.SetProperty](env)
//
// Outbound payloads embed Header; the sender stamps the plugin id before
// encoding, so no outbound message can leave without it.
package protocol
