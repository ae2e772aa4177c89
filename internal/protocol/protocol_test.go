package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"valid", `{"messageType":"setProperty","data":{}}`, nil},
		{"no data", `{"messageType":"unloadPlugin"}`, nil},
		{"malformed json", `{"messageType":`, ErrDecode},
		{"not an object", `[1,2,3]`, ErrDecode},
		{"missing messageType", `{"data":{}}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvelope_HasData(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`{"messageType":"x","data":{"a":1}}`, true},
		{`{"messageType":"x","data":{}}`, true},
		{`{"messageType":"x"}`, false},
		{`{"messageType":"x","data":null}`, false},
		{`{"messageType":"x","data":"text"}`, false},
	}

	for _, tt := range tests {
		env, err := Decode([]byte(tt.raw))
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", tt.raw, err)
		}
		if got := env.HasData(); got != tt.want {
			t.Errorf("HasData(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestEnvelope_Route(t *testing.T) {
	env, err := Decode([]byte(`{"messageType":"setProperty","data":{"adapterId":"a1","deviceId":"d1"}}`))
	if err != nil {
		t.Fatal(err)
	}

	r, err := env.Route()
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if r.AdapterID == nil || *r.AdapterID != "a1" {
		t.Errorf("AdapterID = %v, want a1", r.AdapterID)
	}
	if r.DeviceID == nil || *r.DeviceID != "d1" {
		t.Errorf("DeviceID = %v, want d1", r.DeviceID)
	}
	if r.NotifierID != nil || r.PackageName != nil {
		t.Error("absent keys should decode to nil")
	}

	noData, _ := Decode([]byte(`{"messageType":"setProperty"}`))
	if _, err := noData.Route(); !errors.Is(err, ErrMissingField) {
		t.Errorf("Route() without data error = %v, want ErrMissingField", err)
	}
}

func TestDecodeData(t *testing.T) {
	t.Run("valid set property", func(t *testing.T) {
		env, _ := Decode([]byte(`{"messageType":"setProperty","data":{"adapterId":"a1","deviceId":"d1","propertyName":"brightness","propertyValue":150}}`))
		req, err := DecodeData[SetProperty](env)
		if err != nil {
			t.Fatalf("DecodeData() error = %v", err)
		}
		if req.PropertyName != "brightness" {
			t.Errorf("PropertyName = %q", req.PropertyName)
		}
		if v, ok := req.PropertyValue.(float64); !ok || v != 150 {
			t.Errorf("PropertyValue = %#v, want 150", req.PropertyValue)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		env, _ := Decode([]byte(`{"messageType":"setProperty","data":{"adapterId":"a1","deviceId":"d1"}}`))
		_, err := DecodeData[SetProperty](env)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("DecodeData() error = %v, want *DecodeError", err)
		}
		if de.Field != "propertyName" || !errors.Is(err, ErrMissingField) {
			t.Errorf("DecodeError = %+v", de)
		}
	})

	t.Run("wrong field type", func(t *testing.T) {
		env, _ := Decode([]byte(`{"messageType":"requestAction","data":{"actionId":7}}`))
		if _, err := DecodeData[RequestAction](env); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodeData() error = %v, want ErrDecode", err)
		}
	})
}

func TestEncode_StampsPluginID(t *testing.T) {
	msg := &PropertyChanged{
		AdapterID: "a1",
		DeviceID:  "d1",
		Property:  PropertyState{Name: "on", Value: true},
	}
	var out Outbound = msg
	out.SetPluginID("virtual-things")

	raw, err := Encode(MsgPropertyChanged, msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded struct {
		MessageType string         `json:"messageType"`
		Data        map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.MessageType != "propertyChanged" {
		t.Errorf("messageType = %q", decoded.MessageType)
	}
	if decoded.Data["pluginId"] != "virtual-things" {
		t.Errorf("pluginId = %v", decoded.Data["pluginId"])
	}
	prop, _ := decoded.Data["property"].(map[string]any)
	if prop["name"] != "on" || prop["value"] != true {
		t.Errorf("property = %v", prop)
	}
}

func TestPropertyDescription_LegacyFields(t *testing.T) {
	var d PropertyDescription
	if err := json.Unmarshal([]byte(`{"label":"Level","type":"number","min":0,"max":100,"visible":false}`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Title != "Level" {
		t.Errorf("Title = %q, want Level", d.Title)
	}
	if d.Minimum == nil || *d.Minimum != 0 || d.Maximum == nil || *d.Maximum != 100 {
		t.Errorf("Minimum/Maximum = %v/%v", d.Minimum, d.Maximum)
	}
	if d.Visible == nil || *d.Visible {
		t.Errorf("Visible = %v, want false", d.Visible)
	}

	// Current names win over legacy ones.
	if err := json.Unmarshal([]byte(`{"title":"New","label":"Old","maximum":5,"max":9}`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Title != "New" || *d.Maximum != 5 {
		t.Errorf("Title/Maximum = %q/%v", d.Title, *d.Maximum)
	}
}

func TestPropertyState_JSON(t *testing.T) {
	var s PropertyState
	raw := `{"name":"level","value":42,"label":"Level","type":"integer","readOnly":true}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "level" || s.Value != float64(42) {
		t.Errorf("Name/Value = %q/%v", s.Name, s.Value)
	}
	if s.Title != "Level" || !s.ReadOnly || s.Type != "integer" {
		t.Errorf("description = %+v", s.PropertyDescription)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"title":"Level"`) || strings.Contains(string(out), "label") {
		t.Errorf("marshal = %s", out)
	}
}

func TestMessageTypes(t *testing.T) {
	all := AllMessageTypes()
	if len(all) == 0 {
		t.Fatal("AllMessageTypes() is empty")
	}
	for _, mt := range all {
		if !mt.Known() {
			t.Errorf("%s not known", mt)
		}
		if !strings.HasSuffix(mt.SchemaFile(), ".json") {
			t.Errorf("%s schema file = %q", mt, mt.SchemaFile())
		}
	}
	if MessageType("bogus").Known() {
		t.Error("bogus message type reported as known")
	}
	if MsgSetProperty.SchemaFile() != "set-property.json" {
		t.Errorf("MsgSetProperty.SchemaFile() = %q", MsgSetProperty.SchemaFile())
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 5, 999, time.FixedZone("X", 3600))
	if got := Timestamp(ts); got != "2026-03-01T11:30:05+00:00" {
		t.Errorf("Timestamp() = %q", got)
	}
}
