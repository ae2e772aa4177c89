package influxdb

import (
	"encoding/json"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Measurement names.
const (
	measurementProperty  = "property"
	measurementEvent     = "event"
	measurementConnected = "connected"
)

// WriteProperty records a property value. Numbers and booleans are stored
// as the "value" field; strings and structured values as "text". A nil
// value is skipped.
func (c *Client) WriteProperty(adapterID, deviceID string, p protocol.PropertyState, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	if point, ok := propertyPoint(adapterID, deviceID, p, ts); ok {
		c.writeAPI.WritePoint(point)
	}
}

// WriteEvent records that a device raised an event.
func (c *Client) WriteEvent(adapterID, deviceID string, e protocol.EventDescription, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(adapterID, deviceID, e, ts))
}

// WriteConnected records a device connectivity change.
func (c *Client) WriteConnected(adapterID, deviceID string, connected bool, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		measurementConnected,
		deviceTags(adapterID, deviceID),
		map[string]interface{}{"value": connected},
		ts,
	))
}

func deviceTags(adapterID, deviceID string) map[string]string {
	return map[string]string{
		"adapter_id": adapterID,
		"device_id":  deviceID,
	}
}

func propertyPoint(adapterID, deviceID string, p protocol.PropertyState, ts time.Time) (*write.Point, bool) {
	field, value, ok := fieldFor(p.Value)
	if !ok {
		return nil, false
	}

	tags := deviceTags(adapterID, deviceID)
	tags["property"] = p.Name
	if p.Unit != "" {
		tags["unit"] = p.Unit
	}

	return write.NewPoint(measurementProperty, tags, map[string]interface{}{field: value}, ts), true
}

func eventPoint(adapterID, deviceID string, e protocol.EventDescription, ts time.Time) *write.Point {
	tags := deviceTags(adapterID, deviceID)
	tags["event"] = e.Name

	fields := map[string]interface{}{"count": 1}
	if field, value, ok := fieldFor(e.Data); ok {
		fields[field] = value
	}
	return write.NewPoint(measurementEvent, tags, fields, ts)
}

// fieldFor maps a property value onto an InfluxDB field.
func fieldFor(v any) (string, interface{}, bool) {
	switch x := v.(type) {
	case nil:
		return "", nil, false
	case bool:
		return "value", x, true
	case float64:
		return "value", x, true
	case float32:
		return "value", float64(x), true
	case int:
		return "value", float64(x), true
	case int64:
		return "value", float64(x), true
	case int32:
		return "value", float64(x), true
	case uint:
		return "value", float64(x), true
	case uint64:
		return "value", float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return "text", x.String(), true
		}
		return "value", f, true
	case string:
		return "text", x, true
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return "", nil, false
		}
		return "text", string(raw), true
	}
}
