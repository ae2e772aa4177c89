package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of action and event timestamps.
const TimestampLayout = "2006-01-02T15:04:05+00:00"

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Envelope is the outer {messageType, data} wire object.
type Envelope struct {
	MessageType MessageType     `json:"messageType"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Route carries the identifiers the router branches on. A nil field means
// the key was absent from data.
type Route struct {
	PackageName *string `json:"packageName"`
	NotifierID  *string `json:"notifierId"`
	AdapterID   *string `json:"adapterId"`
	DeviceID    *string `json:"deviceId"`
}

// Decode parses one frame. It fails with ErrDecode for malformed JSON and
// ErrMissingField when messageType is absent.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.MessageType == "" {
		return nil, missing("", "messageType")
	}
	return &env, nil
}

// HasData reports whether the envelope carries a data object.
func (e *Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Route extracts the routing identifiers from data.
func (e *Envelope) Route() (Route, error) {
	var r Route
	if !e.HasData() {
		return r, missing(e.MessageType, "data")
	}
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return r, &DecodeError{Type: e.MessageType, Field: "data", Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	return r, nil
}

// payload is implemented by every typed inbound data struct.
type payload[T any] interface {
	*T
	Validate() error
}

// DecodeData decodes the envelope's data into T and checks its required
// fields.
//
//	req, err := protocol.DecodeData[protocol.SetProperty](env)
func DecodeData[T any, P payload[T]](env *Envelope) (*T, error) {
	var v T
	if !env.HasData() {
		return nil, missing(env.MessageType, "data")
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, &DecodeError{Type: env.MessageType, Field: "data", Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	if err := P(&v).Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Outbound is implemented by every add-on to gateway data struct through
// its embedded Header.
type Outbound interface {
	SetPluginID(id string)
}

// Header is embedded in every outbound data struct.
type Header struct {
	PluginID string `json:"pluginId"`
}

// SetPluginID stamps the session's plugin identity.
func (h *Header) SetPluginID(id string) {
	h.PluginID = id
}

// Encode marshals a complete envelope.
func Encode(t MessageType, data any) ([]byte, error) {
	raw, err := json.Marshal(struct {
		MessageType MessageType `json:"messageType"`
		Data        any         `json:"data"`
	}{t, data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", t, err)
	}
	return raw, nil
}
