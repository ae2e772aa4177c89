package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

type point struct {
	kind     string
	deviceID string
	name     string
	ts       time.Time
}

type mockWriter struct {
	mu     sync.Mutex
	points []point
}

func (w *mockWriter) add(p point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *mockWriter) WriteProperty(_, deviceID string, p protocol.PropertyState, ts time.Time) {
	w.add(point{kind: "property", deviceID: deviceID, name: p.Name, ts: ts})
}

func (w *mockWriter) WriteEvent(_, deviceID string, e protocol.EventDescription, ts time.Time) {
	w.add(point{kind: "event", deviceID: deviceID, name: e.Name, ts: ts})
}

func (w *mockWriter) WriteConnected(_, deviceID string, _ bool, ts time.Time) {
	w.add(point{kind: "connected", deviceID: deviceID, ts: ts})
}

// mockManager counts forwarded calls. Methods it does not override panic
// through the nil embedded interface, which the tests never reach.
type mockManager struct {
	addon.Manager
	calls []string
	err   error
}

func (m *mockManager) SendPropertyChanged(context.Context, string, string, protocol.PropertyState) error {
	m.calls = append(m.calls, "property")
	return m.err
}

func (m *mockManager) SendEvent(context.Context, string, string, protocol.EventDescription) error {
	m.calls = append(m.calls, "event")
	return m.err
}

func (m *mockManager) SendConnectedState(context.Context, string, string, bool) error {
	m.calls = append(m.calls, "connected")
	return m.err
}

func (m *mockManager) PluginID() string { return "virtual" }

func TestNewRecorderWithoutWriter(t *testing.T) {
	m := &mockManager{}
	if got := NewRecorder(m, nil); got != addon.Manager(m) {
		t.Error("NewRecorder(m, nil) did not return m")
	}
}

func TestRecorder(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	eventTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		call    func(ctx context.Context, r addon.Manager) error
		want    point
		sendErr error
	}{
		{
			name: "property",
			call: func(ctx context.Context, r addon.Manager) error {
				return r.SendPropertyChanged(ctx, "a1", "d1", protocol.PropertyState{Name: "level", Value: 40.0})
			},
			want: point{kind: "property", deviceID: "d1", name: "level", ts: fixed},
		},
		{
			name: "event with timestamp",
			call: func(ctx context.Context, r addon.Manager) error {
				return r.SendEvent(ctx, "a1", "d1", protocol.EventDescription{Name: "overheated", Timestamp: protocol.Timestamp(eventTime)})
			},
			want: point{kind: "event", deviceID: "d1", name: "overheated", ts: eventTime},
		},
		{
			name: "event with bad timestamp",
			call: func(ctx context.Context, r addon.Manager) error {
				return r.SendEvent(ctx, "a1", "d1", protocol.EventDescription{Name: "pressed", Timestamp: "soon"})
			},
			want: point{kind: "event", deviceID: "d1", name: "pressed", ts: fixed},
		},
		{
			name: "connected",
			call: func(ctx context.Context, r addon.Manager) error {
				return r.SendConnectedState(ctx, "a1", "d1", false)
			},
			want: point{kind: "connected", deviceID: "d1", ts: fixed},
		},
		{
			name: "recorded when send fails",
			call: func(ctx context.Context, r addon.Manager) error {
				return r.SendConnectedState(ctx, "a1", "d1", true)
			},
			want:    point{kind: "connected", deviceID: "d1", ts: fixed},
			sendErr: errors.New("gateway gone"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockManager{err: tt.sendErr}
			w := &mockWriter{}
			r := NewRecorder(m, w).(*Recorder)
			r.now = func() time.Time { return fixed }

			err := tt.call(context.Background(), r)
			if !errors.Is(err, tt.sendErr) {
				t.Errorf("error = %v, want %v", err, tt.sendErr)
			}
			if len(m.calls) != 1 || m.calls[0] != tt.want.kind {
				t.Errorf("forwarded calls = %v, want [%s]", m.calls, tt.want.kind)
			}
			if len(w.points) != 1 {
				t.Fatalf("recorded %d points, want 1", len(w.points))
			}
			got := w.points[0]
			if got.kind != tt.want.kind || got.deviceID != tt.want.deviceID || got.name != tt.want.name || !got.ts.Equal(tt.want.ts) {
				t.Errorf("point = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecorderPassesThrough(t *testing.T) {
	r := NewRecorder(&mockManager{}, &mockWriter{})
	if r.PluginID() != "virtual" {
		t.Errorf("PluginID() = %q", r.PluginID())
	}
}
