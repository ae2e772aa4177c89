package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-addon/internal/bridge"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
	"github.com/nerrad567/gray-logic-addon/internal/transport"
	"github.com/nerrad567/gray-logic-addon/internal/virtual"
)

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Output: "discard"}, "test")
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_ADDON_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_HandshakeFailureDoesNotRestart(t *testing.T) {
	t.Setenv("GRAYLOGIC_ADDON_CONFIG", "")
	t.Setenv("GRAYLOGIC_ADDON_PLUGIN_ID", "virtual")
	t.Setenv("GRAYLOGIC_ADDON_TRANSPORT_TYPE", config.TransportIPC)
	t.Setenv("GRAYLOGIC_ADDON_IPC_BASE_DIR", t.TempDir())
	t.Setenv("GRAYLOGIC_ADDON_LOG_LEVEL", "error")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if !errors.Is(err, bridge.ErrHandshake) {
		t.Fatalf("run() error = %v, want handshake failure", err)
	}
	if code := exitCode(err); code != bridge.DontRestartExitCode {
		t.Errorf("exitCode() = %d, want %d", code, bridge.DontRestartExitCode)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"handshake", &bridge.HandshakeError{Step: "connect", Err: errors.New("refused")}, bridge.DontRestartExitCode},
		{"wrapped handshake", fmt.Errorf("starting: %w", bridge.ErrHandshake), bridge.DontRestartExitCode},
		{"transport", bridge.ErrTransport, 1},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_ADDON_CONFIG", "/custom/path/addon.yaml")
	if got := getConfigPath(); got != "/custom/path/addon.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{config.TransportIPC, "*transport.IPC", false},
		{config.TransportWebSocket, "*transport.WebSocket", false},
		{config.TransportMQTT, "*transport.MQTT", false},
		{"carrier-pigeon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := &config.Config{Plugin: config.PluginConfig{ID: "virtual"}}
			cfg.Transport.Type = tt.kind

			tr, err := newTransport(cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("newTransport() error = %v", err)
			}
			if tt.wantErr {
				return
			}
			if got := fmt.Sprintf("%T", tr); got != tt.want {
				t.Errorf("transport type = %s, want %s", got, tt.want)
			}
			var _ transport.Transport = tr
		})
	}
}

func TestLoadSettings_NoDatabase(t *testing.T) {
	cfg := &config.Config{Plugin: config.PluginConfig{ID: "virtual"}}

	s, db, err := loadSettings(context.Background(), cfg, bridge.Params{}, testLogger())
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if db != nil {
		t.Error("database opened without a path")
	}
	if len(s.Lights) != len(virtual.DefaultSettings().Lights) {
		t.Errorf("settings = %+v, want defaults", s)
	}
}

func TestLoadSettings_FromProfile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Plugin: config.PluginConfig{ID: "virtual"}}
	cfg.Database.BusyTimeout = 1

	params := bridge.Params{UserProfile: protocol.UserProfile{ConfigDir: dir}}
	s, db, err := loadSettings(context.Background(), cfg, params, testLogger())
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	defer db.Close()

	if db.Path() != filepath.Join(dir, "db.sqlite3") {
		t.Errorf("database path = %q", db.Path())
	}
	// Nothing stored for the package yet.
	if len(s.Lights) != 1 {
		t.Errorf("lights = %d, want defaults", len(s.Lights))
	}
}

// fakeGateway registers the add-on over a WebSocket, waits for its light
// and then unloads it.
func fakeGateway(t *testing.T) (*httptest.Server, <-chan []string) {
	t.Helper()
	seen := make(chan []string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var types []string
		read := func() (protocol.MessageType, bool) {
			var env struct {
				MessageType protocol.MessageType `json:"messageType"`
			}
			if err := conn.ReadJSON(&env); err != nil {
				return "", false
			}
			types = append(types, string(env.MessageType))
			return env.MessageType, true
		}
		send := func(mt protocol.MessageType, data map[string]any) {
			//nolint:errcheck // the test fails on the missing reply instead
			conn.WriteJSON(map[string]any{"messageType": mt, "data": data})
		}

		if mt, ok := read(); !ok || mt != protocol.MsgRegister {
			seen <- types
			return
		}
		send(protocol.MsgRegisterResponse, map[string]any{
			"pluginId":       "virtual",
			"gatewayVersion": "2.0.0",
			"userProfile":    map[string]any{},
			"preferences":    map[string]any{"language": "en-GB"},
		})

		for {
			mt, ok := read()
			if !ok {
				seen <- types
				return
			}
			switch mt {
			case protocol.MsgAPIHandlerAdded:
				send(protocol.MsgUnloadPlugin, map[string]any{"pluginId": "virtual"})
			case protocol.MsgPluginUnloadResponse:
				seen <- types
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestRun_RegistersAndUnloads(t *testing.T) {
	srv, seen := fakeGateway(t)

	t.Setenv("GRAYLOGIC_ADDON_CONFIG", "")
	t.Setenv("GRAYLOGIC_ADDON_PLUGIN_ID", "virtual")
	t.Setenv("GRAYLOGIC_ADDON_TRANSPORT_TYPE", config.TransportWebSocket)
	t.Setenv("GRAYLOGIC_ADDON_WEBSOCKET_URL", "ws"+strings.TrimPrefix(srv.URL, "http"))
	t.Setenv("GRAYLOGIC_ADDON_LOG_LEVEL", "error")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var types []string
	select {
	case types = <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("gateway saw no traffic")
	}

	joined := strings.Join(types, ",")
	for _, want := range []string{
		string(protocol.MsgRegister),
		string(protocol.MsgAdapterAdded),
		string(protocol.MsgDeviceAdded),
		string(protocol.MsgNotifierAdded),
		string(protocol.MsgOutletAdded),
		string(protocol.MsgAPIHandlerAdded),
		string(protocol.MsgPluginUnloadResponse),
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("gateway did not receive %s; got %s", want, joined)
		}
	}

	// Announcements arrive in registration order.
	if strings.Index(joined, string(protocol.MsgAdapterAdded)) > strings.Index(joined, string(protocol.MsgDeviceAdded)) {
		t.Errorf("device announced before its adapter: %s", joined)
	}
}
