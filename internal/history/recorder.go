// Package history keeps a long-term record of what devices report.
//
// Recorder sits between entities and the gateway connection: every
// property change, event and connectivity change is passed through to the
// gateway unchanged and also handed to a Writer such as the InfluxDB client.
package history

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Writer stores history points. *influxdb.Client implements it.
type Writer interface {
	WriteProperty(adapterID, deviceID string, p protocol.PropertyState, ts time.Time)
	WriteEvent(adapterID, deviceID string, e protocol.EventDescription, ts time.Time)
	WriteConnected(adapterID, deviceID string, connected bool, ts time.Time)
}

// Recorder is an addon.Manager that records history on the way through.
// Points are written even when the gateway send fails; the device did
// report the value.
type Recorder struct {
	addon.Manager
	w   Writer
	now func() time.Time
}

var _ addon.Manager = (*Recorder)(nil)

// NewRecorder wraps m. A nil w returns m unchanged.
func NewRecorder(m addon.Manager, w Writer) addon.Manager {
	if w == nil {
		return m
	}
	return &Recorder{Manager: m, w: w, now: time.Now}
}

// SendPropertyChanged records the new value and forwards it.
func (r *Recorder) SendPropertyChanged(ctx context.Context, adapterID, deviceID string, property protocol.PropertyState) error {
	r.w.WriteProperty(adapterID, deviceID, property, r.now())
	return r.Manager.SendPropertyChanged(ctx, adapterID, deviceID, property)
}

// SendEvent records the event at its own timestamp when it has a valid one.
func (r *Recorder) SendEvent(ctx context.Context, adapterID, deviceID string, event protocol.EventDescription) error {
	ts, err := time.Parse(time.RFC3339Nano, event.Timestamp)
	if err != nil {
		ts = r.now()
	}
	r.w.WriteEvent(adapterID, deviceID, event, ts)
	return r.Manager.SendEvent(ctx, adapterID, deviceID, event)
}

// SendConnectedState records the connectivity change and forwards it.
func (r *Recorder) SendConnectedState(ctx context.Context, adapterID, deviceID string, connected bool) error {
	r.w.WriteConnected(adapterID, deviceID, connected, r.now())
	return r.Manager.SendConnectedState(ctx, adapterID, deviceID, connected)
}
