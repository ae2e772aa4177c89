package schema

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func TestNew_EmbeddedSchemas(t *testing.T) {
	v := newTestValidator(t)
	if err := v.Preload(); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name:    "valid set property",
			raw:     `{"messageType":"setProperty","data":{"adapterId":"a1","deviceId":"d1","propertyName":"brightness","propertyValue":150}}`,
			wantErr: false,
		},
		{
			name:    "unload plugin without data",
			raw:     `{"messageType":"unloadPlugin"}`,
			wantErr: false,
		},
		{
			name:    "valid outbound property changed",
			raw:     `{"messageType":"propertyChanged","data":{"pluginId":"p","adapterId":"a1","deviceId":"d1","property":{"name":"on","value":true,"type":"boolean"}}}`,
			wantErr: false,
		},
		{
			name:    "unknown message type",
			raw:     `{"messageType":"selfDestruct","data":{}}`,
			wantErr: true,
		},
		{
			name:    "missing property name",
			raw:     `{"messageType":"setProperty","data":{"adapterId":"a1","deviceId":"d1","propertyValue":1}}`,
			wantErr: true,
		},
		{
			name:    "outbound without plugin id",
			raw:     `{"messageType":"adapterUnloadResponse","data":{"adapterId":"a1"}}`,
			wantErr: true,
		},
		{
			name:    "bad notification level",
			raw:     `{"messageType":"notifyOutlet","data":{"notifierId":"n","outletId":"o","title":"t","message":"m","level":7,"messageId":1}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `{{{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidate_ReportsLocation(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate([]byte(`{"messageType":"startPairing","data":{"adapterId":"a1","timeout":"soon"}}`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if ve.MessageType != "startPairing" {
		t.Errorf("MessageType = %q", ve.MessageType)
	}
	if ve.Location != "/data/timeout" {
		t.Errorf("Location = %q, want /data/timeout", ve.Location)
	}
}

// copySchemaSet writes the embedded root and definitions documents into a
// fresh directory, with an empty messages/ folder.
func copySchemaSet(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"schema.json", "definitions.json"} {
		data, err := fs.ReadFile(embedded, "schemas/"+name)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "messages"), 0o750); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestValidate_MissingMessageSchemaIsNonFatal(t *testing.T) {
	dir := copySchemaSet(t)
	logger := &recordingLogger{}

	v, err := New(Options{Dir: dir, Logger: logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	raw := []byte(`{"messageType":"setProperty","data":{}}`)
	for i := 0; i < 3; i++ {
		if err := v.Validate(raw); err != nil {
			t.Fatalf("Validate() error = %v, want nil (root only)", err)
		}
	}
	if got := logger.warnCount(); got != 1 {
		t.Errorf("warn count = %d, want 1", got)
	}

	if err := v.Preload(); err == nil {
		t.Error("Preload() expected error for empty messages directory")
	}
}

func TestValidate_RemoteReferenceIsNotFetched(t *testing.T) {
	dir := copySchemaSet(t)
	doc := `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://schemas.graylogic.io/addon-ipc/messages/set-property.json",
  "type": "object",
  "properties": {"data": {"$ref": "https://example.com/remote/elsewhere.json"}}
}`
	if err := os.WriteFile(filepath.Join(dir, "messages", "set-property.json"), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := v.Validate([]byte(`{"messageType":"setProperty","data":{}}`)); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	_, err = v.messageSchema("setProperty")
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("messageSchema() error = %v, want ErrSchemaNotFound", err)
	}
}

func TestNew_BadDirectory(t *testing.T) {
	if _, err := New(Options{Dir: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("New() expected error for missing directory")
	}
	if _, err := New(Options{Dir: t.TempDir()}); err == nil {
		t.Error("New() expected error for directory without schema.json")
	}
}

func TestValidateValue(t *testing.T) {
	input := map[string]any{
		"type":     "object",
		"required": []any{"level"},
		"properties": map[string]any{
			"level":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"duration": map[string]any{"type": "number", "minimum": 0},
		},
	}

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"decoded wire value", map[string]any{"level": float64(50)}, false},
		{"go int value", map[string]any{"level": 50, "duration": 1.5}, false},
		{"above maximum", map[string]any{"level": float64(150)}, true},
		{"missing required", map[string]any{"duration": float64(2)}, true},
		{"nil input", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(input, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidateValue_InvalidSchema(t *testing.T) {
	err := ValidateValue(map[string]any{"type": 12}, map[string]any{})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Errorf("ValidateValue() error = %v, want ErrSchemaInvalid", err)
	}
}
