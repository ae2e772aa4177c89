package addon

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

func TestDeviceSetPropertyRefusedSendsUnchangedValue(t *testing.T) {
	m := &mockManager{}
	d := newTestDevice(t, newTestAdapter(t, m, nil), nil)
	d.AddProperty("brightness", protocol.PropertyDescription{Type: "integer", Maximum: float(100)}, WithInitialValue(40))

	err := d.SetProperty(context.Background(), "brightness", 150)
	if !errors.Is(err, ErrProperty) {
		t.Fatalf("SetProperty() error = %v, want ErrProperty", err)
	}

	notes := m.messages("propertyChanged")
	if len(notes) != 1 {
		t.Fatalf("propertyChanged sent %d times, want 1", len(notes))
	}
	if notes[0].property.Value != 40 {
		t.Errorf("notification value = %v, want unchanged 40", notes[0].property.Value)
	}
}

func TestDeviceSetPropertyFireAndForget(t *testing.T) {
	tests := []struct {
		name          string
		fireAndForget bool
		initial       any
		value         any
		wantNotes     int
	}{
		{"plain change", false, 1, 2, 1},
		{"plain same value", false, 1, 1, 0},
		{"fire-and-forget change", true, 1, 2, 1},
		{"fire-and-forget same value", true, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockManager{}
			d := newTestDevice(t, newTestAdapter(t, m, nil), nil)
			opts := []PropertyOption{WithInitialValue(tt.initial)}
			if tt.fireAndForget {
				opts = append(opts, WithFireAndForget())
			}
			d.AddProperty("level", protocol.PropertyDescription{Type: "integer"}, opts...)

			if err := d.SetProperty(context.Background(), "level", tt.value); err != nil {
				t.Fatalf("SetProperty() error = %v", err)
			}
			if n := len(m.messages("propertyChanged")); n != tt.wantNotes {
				t.Errorf("propertyChanged sent %d times, want %d", n, tt.wantNotes)
			}
		})
	}
}

func TestDeviceSetPropertyUnknown(t *testing.T) {
	m := &mockManager{}
	d := newTestDevice(t, newTestAdapter(t, m, nil), nil)

	if err := d.SetProperty(context.Background(), "missing", 1); !errors.Is(err, ErrProperty) {
		t.Errorf("SetProperty() error = %v, want ErrProperty", err)
	}
	if len(m.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(m.sent))
	}
}

func TestDeviceDescribeNonNilCollections(t *testing.T) {
	d := newTestDevice(t, newTestAdapter(t, &mockManager{}, nil), nil)

	raw, err := json.Marshal(d.Describe())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"properties", "actions", "events"} {
		if _, ok := got[key].(map[string]any); !ok {
			t.Errorf("%s = %v, want object", key, got[key])
		}
	}
	if got["@context"] != DefaultContext {
		t.Errorf("@context = %v, want %s", got["@context"], DefaultContext)
	}
}

func TestDeviceDescribeAndThing(t *testing.T) {
	d := newTestDevice(t, newTestAdapter(t, &mockManager{}, nil), nil)
	d.AddProperty("on", protocol.PropertyDescription{Type: "boolean", Title: "On"}, WithInitialValue(true))
	d.AddAction("toggle", protocol.ActionMetadata{Title: "Toggle"})
	d.AddEvent("overheated", protocol.EventMetadata{Type: "number"})

	desc := d.Describe()
	if desc.Properties["on"].Value != true {
		t.Errorf("property value = %v, want true", desc.Properties["on"].Value)
	}
	if _, ok := desc.Actions["toggle"]; !ok {
		t.Error("action toggle missing")
	}
	if _, ok := desc.Events["overheated"]; !ok {
		t.Error("event overheated missing")
	}

	thing := d.AsThing()
	if thing.Properties["on"].Title != "On" {
		t.Errorf("thing property title = %q", thing.Properties["on"].Title)
	}
}

func TestDeviceRequestAction(t *testing.T) {
	input := map[string]any{
		"type":     "object",
		"required": []any{"level"},
		"properties": map[string]any{
			"level": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		},
	}

	tests := []struct {
		name       string
		actionName string
		input      any
		wantErr    bool
	}{
		{"declared with valid input", "fade", map[string]any{"level": 50}, false},
		{"undeclared", "explode", nil, true},
		{"invalid input", "fade", map[string]any{"level": 500}, true},
		{"missing input", "fade", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockManager{}
			d := newTestDevice(t, newTestAdapter(t, m, nil), nil)
			d.AddAction("fade", protocol.ActionMetadata{Input: input})

			action, err := d.RequestAction(context.Background(), "act-1", tt.actionName, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequestAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if action != nil {
					t.Error("action created despite error")
				}
				if !errors.Is(err, ErrAction) {
					t.Errorf("error %v does not wrap ErrAction", err)
				}
				if n := len(m.messages("actionStatus")); n != 0 {
					t.Errorf("actionStatus sent %d times, want 0", n)
				}
				return
			}

			if action.Status() != ActionCompleted {
				t.Errorf("status = %s, want completed", action.Status())
			}
			if _, ok := d.Action("act-1"); ok {
				t.Error("completed action still in flight")
			}
		})
	}
}

type slowDevice struct {
	BaseDeviceHandler
	cancelErr error
}

func (h *slowDevice) PerformAction(ctx context.Context, a *Action) error {
	return a.Start(ctx)
}

func (h *slowDevice) CancelAction(ctx context.Context, a *Action) error {
	return h.cancelErr
}

func TestDeviceRemoveAction(t *testing.T) {
	tests := []struct {
		name       string
		cancelErr  error
		removeID   string
		removeName string
		wantErr    bool
		wantLeft   bool
	}{
		{"cancelled", nil, "act-1", "fade", false, false},
		{"device refuses", errors.New("motor busy"), "act-1", "fade", true, true},
		{"unknown id", nil, "act-9", "fade", true, true},
		{"name mismatch", nil, "act-1", "toggle", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, newTestAdapter(t, &mockManager{}, nil), &slowDevice{cancelErr: tt.cancelErr})
			d.AddAction("fade", protocol.ActionMetadata{})

			if _, err := d.RequestAction(context.Background(), "act-1", "fade", nil); err != nil {
				t.Fatalf("RequestAction() error = %v", err)
			}

			err := d.RemoveAction(context.Background(), tt.removeID, tt.removeName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RemoveAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrAction) {
				t.Errorf("error %v does not wrap ErrAction", err)
			}
			if _, ok := d.Action("act-1"); ok != tt.wantLeft {
				t.Errorf("action in flight = %v, want %v", ok, tt.wantLeft)
			}
		})
	}
}

func TestDeviceEmitEvent(t *testing.T) {
	m := &mockManager{}
	d := newTestDevice(t, newTestAdapter(t, m, nil), nil)
	d.AddEvent("overheated", protocol.EventMetadata{})

	if err := d.EmitEvent(context.Background(), "overheated", 102); err != nil {
		t.Fatalf("EmitEvent() error = %v", err)
	}
	if err := d.EmitEvent(context.Background(), "undeclared", nil); err == nil {
		t.Error("EmitEvent() for undeclared event returned nil")
	}

	events := m.messages("event")
	if len(events) != 1 {
		t.Fatalf("event sent %d times, want 1", len(events))
	}
	if events[0].event.Name != "overheated" || events[0].event.Data != 102 {
		t.Errorf("event = %+v", events[0].event)
	}
	if events[0].event.Timestamp == "" {
		t.Error("event timestamp empty")
	}
}

func TestDeviceSetConnected(t *testing.T) {
	m := &mockManager{}
	d := newTestDevice(t, newTestAdapter(t, m, nil), nil)

	if err := d.SetConnected(context.Background(), false); err != nil {
		t.Fatalf("SetConnected() error = %v", err)
	}
	got := m.messages("connectedState")
	if len(got) != 1 || got[0].connected {
		t.Errorf("connectedState = %+v", got)
	}
}
