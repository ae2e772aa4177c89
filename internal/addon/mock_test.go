package addon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// sent is one recorded Manager call.
type sent struct {
	kind      string
	adapterID string
	deviceID  string
	property  protocol.PropertyState
	action    protocol.ActionDescription
	event     protocol.EventDescription
	device    protocol.DeviceDescription
	outlet    protocol.OutletDescription
	connected bool
}

type mockManager struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (m *mockManager) record(s sent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
	return m.err
}

func (m *mockManager) messages(kind string) []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sent
	for _, s := range m.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockManager) PluginID() string { return "test-plugin" }

func (m *mockManager) SendDeviceAdded(_ context.Context, adapterID string, d protocol.DeviceDescription) error {
	return m.record(sent{kind: "deviceAdded", adapterID: adapterID, deviceID: d.ID, device: d})
}

func (m *mockManager) SendDeviceRemoved(_ context.Context, adapterID, deviceID string) error {
	return m.record(sent{kind: "deviceRemoved", adapterID: adapterID, deviceID: deviceID})
}

func (m *mockManager) SendPropertyChanged(_ context.Context, adapterID, deviceID string, p protocol.PropertyState) error {
	return m.record(sent{kind: "propertyChanged", adapterID: adapterID, deviceID: deviceID, property: p})
}

func (m *mockManager) SendActionStatus(_ context.Context, adapterID, deviceID string, a protocol.ActionDescription) error {
	return m.record(sent{kind: "actionStatus", adapterID: adapterID, deviceID: deviceID, action: a})
}

func (m *mockManager) SendEvent(_ context.Context, adapterID, deviceID string, e protocol.EventDescription) error {
	return m.record(sent{kind: "event", adapterID: adapterID, deviceID: deviceID, event: e})
}

func (m *mockManager) SendConnectedState(_ context.Context, adapterID, deviceID string, connected bool) error {
	return m.record(sent{kind: "connectedState", adapterID: adapterID, deviceID: deviceID, connected: connected})
}

func (m *mockManager) SendPairingPrompt(_ context.Context, adapterID string, p Prompt) error {
	return m.record(sent{kind: "pairingPrompt", adapterID: adapterID, deviceID: p.DeviceID})
}

func (m *mockManager) SendUnpairingPrompt(_ context.Context, adapterID string, p Prompt) error {
	return m.record(sent{kind: "unpairingPrompt", adapterID: adapterID, deviceID: p.DeviceID})
}

func (m *mockManager) SendOutletAdded(_ context.Context, notifierID string, o protocol.OutletDescription) error {
	return m.record(sent{kind: "outletAdded", adapterID: notifierID, outlet: o})
}

func (m *mockManager) SendOutletRemoved(_ context.Context, notifierID, outletID string) error {
	return m.record(sent{kind: "outletRemoved", adapterID: notifierID, outlet: protocol.OutletDescription{ID: outletID}})
}

func (m *mockManager) SendError(_ context.Context, message string) error {
	return m.record(sent{kind: "error"})
}

func float(v float64) *float64 { return &v }

// testClock returns a clock that advances one second per call.
func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestAdapter(t *testing.T, m *mockManager, handler AdapterHandler) *Adapter {
	t.Helper()
	a, err := NewAdapter(AdapterOptions{
		ID:          "a1",
		Name:        "Test Adapter",
		PackageName: "test-adapter",
		Manager:     m,
		Handler:     handler,
		Now:         testClock(),
	})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	return a
}

func newTestDevice(t *testing.T, a *Adapter, handler DeviceHandler) *Device {
	t.Helper()
	d, err := NewDevice(a, DeviceOptions{
		ID:      "d1",
		Title:   "Test Light",
		Types:   []string{"Light"},
		Handler: handler,
	})
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	return d
}
