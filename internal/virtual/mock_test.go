package virtual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

const testTimeout = 2 * time.Second

type sent struct {
	kind     string
	deviceID string
	name     string
	value    any
	status   string
}

// recorder is an addon.Manager and Registrar that records everything.
type recorder struct {
	mu    sync.Mutex
	sent  []sent
	order []string
}

func (r *recorder) add(s sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
	return nil
}

func (r *recorder) all(kind string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, s := range r.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// waitFor polls until match returns true for some recorded message.
func (r *recorder) waitFor(t *testing.T, kind string, match func(sent) bool) sent {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		for _, s := range r.all(kind) {
			if match(s) {
				return s
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no matching %s message", kind)
	return sent{}
}

func (r *recorder) PluginID() string { return "virtual" }

func (r *recorder) SendDeviceAdded(_ context.Context, _ string, d protocol.DeviceDescription) error {
	return r.add(sent{kind: "deviceAdded", deviceID: d.ID})
}

func (r *recorder) SendDeviceRemoved(_ context.Context, _, deviceID string) error {
	return r.add(sent{kind: "deviceRemoved", deviceID: deviceID})
}

func (r *recorder) SendPropertyChanged(_ context.Context, _, deviceID string, p protocol.PropertyState) error {
	return r.add(sent{kind: "propertyChanged", deviceID: deviceID, name: p.Name, value: p.Value})
}

func (r *recorder) SendActionStatus(_ context.Context, _, deviceID string, a protocol.ActionDescription) error {
	return r.add(sent{kind: "actionStatus", deviceID: deviceID, name: a.ID, status: a.Status})
}

func (r *recorder) SendEvent(_ context.Context, _, deviceID string, e protocol.EventDescription) error {
	return r.add(sent{kind: "event", deviceID: deviceID, name: e.Name, value: e.Data})
}

func (r *recorder) SendConnectedState(_ context.Context, _, deviceID string, connected bool) error {
	return r.add(sent{kind: "connected", deviceID: deviceID, value: connected})
}

func (r *recorder) SendPairingPrompt(_ context.Context, _ string, p addon.Prompt) error {
	return r.add(sent{kind: "pairingPrompt", value: p.Message})
}

func (r *recorder) SendUnpairingPrompt(_ context.Context, _ string, p addon.Prompt) error {
	return r.add(sent{kind: "unpairingPrompt", value: p.Message})
}

func (r *recorder) SendOutletAdded(_ context.Context, _ string, o protocol.OutletDescription) error {
	return r.add(sent{kind: "outletAdded", name: o.ID})
}

func (r *recorder) SendOutletRemoved(_ context.Context, _, outletID string) error {
	return r.add(sent{kind: "outletRemoved", name: outletID})
}

func (r *recorder) SendError(_ context.Context, message string) error {
	return r.add(sent{kind: "error", value: message})
}

func (r *recorder) AddAdapter(_ context.Context, a *addon.Adapter) error {
	r.mu.Lock()
	r.order = append(r.order, "adapter:"+a.ID())
	r.mu.Unlock()
	return nil
}

func (r *recorder) AddNotifier(_ context.Context, n *addon.Notifier) error {
	r.mu.Lock()
	r.order = append(r.order, "notifier:"+n.ID())
	r.mu.Unlock()
	return nil
}

func (r *recorder) AddAPIHandler(_ context.Context, h addon.APIHandler) error {
	r.mu.Lock()
	r.order = append(r.order, "api:"+h.PackageName())
	r.mu.Unlock()
	return nil
}

type stubLoader struct {
	found bool
	data  Settings
	err   error
}

func (s stubLoader) LoadConfig(_ context.Context, v any) (bool, error) {
	if s.err != nil || !s.found {
		return false, s.err
	}
	*(v.(*Settings)) = s.data
	return true, nil
}

var errLoad = errors.New("database locked")

// newAddon builds and registers an add-on with fast fades.
func newAddon(t *testing.T, s Settings) (*Addon, *recorder) {
	t.Helper()
	rec := &recorder{}
	if s.FadeStepMS == 0 {
		s.FadeStepMS = 5
	}
	v, err := New(Options{PackageName: "virtual", Manager: rec, Settings: s})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v.Register(context.Background(), rec); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() { v.Close(context.Background()) })
	return v, rec
}

func device(t *testing.T, v *Addon, id string) *addon.Device {
	t.Helper()
	d, ok := v.Adapter.Device(id)
	if !ok {
		t.Fatalf("device %s not found", id)
	}
	return d
}
