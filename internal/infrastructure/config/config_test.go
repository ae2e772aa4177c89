package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addon.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
plugin:
  id: "virtual-things"
  package_name: "virtual-things-adapter"
transport:
  type: "websocket"
  websocket:
    url: "ws://gateway.local:9500/addons"
handshake:
  timeout: 3
database:
  path: "/tmp/settings.sqlite3"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plugin.ID != "virtual-things" {
		t.Errorf("Plugin.ID = %q, want %q", cfg.Plugin.ID, "virtual-things")
	}
	if cfg.Transport.Type != TransportWebSocket {
		t.Errorf("Transport.Type = %q, want %q", cfg.Transport.Type, TransportWebSocket)
	}
	if cfg.Transport.WebSocket.URL != "ws://gateway.local:9500/addons" {
		t.Errorf("Transport.WebSocket.URL = %q", cfg.Transport.WebSocket.URL)
	}
	if got := cfg.GetHandshakeTimeout(); got != 3*time.Second {
		t.Errorf("GetHandshakeTimeout() = %v, want 3s", got)
	}
	// Untouched sections keep their defaults.
	if cfg.Transport.IPC.ManagerSocket != "gateway.addonManager" {
		t.Errorf("Transport.IPC.ManagerSocket = %q, want default", cfg.Transport.IPC.ManagerSocket)
	}
}

func TestLoad_EmptyPathUsesEnvironment(t *testing.T) {
	t.Setenv("GRAYLOGIC_ADDON_PLUGIN_ID", "env-plugin")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Plugin.ID != "env-plugin" {
		t.Errorf("Plugin.ID = %q, want %q", cfg.Plugin.ID, "env-plugin")
	}
	if cfg.Transport.Type != TransportIPC {
		t.Errorf("Transport.Type = %q, want %q", cfg.Transport.Type, TransportIPC)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/addon.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
plugin:
  id: ""
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for empty plugin.id, got nil")
	}
	if !strings.Contains(err.Error(), "plugin.id") {
		t.Errorf("error = %v, want mention of plugin.id", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Plugin.ID = "virtual-things"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing plugin id",
			mutate:  func(c *Config) { c.Plugin.ID = "" },
			wantErr: true,
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Transport.Type = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name:    "ipc without base dir",
			mutate:  func(c *Config) { c.Transport.IPC.BaseDir = "" },
			wantErr: true,
		},
		{
			name: "websocket with http url",
			mutate: func(c *Config) {
				c.Transport.Type = TransportWebSocket
				c.Transport.WebSocket.URL = "http://gateway.local"
			},
			wantErr: true,
		},
		{
			name: "mqtt without broker host",
			mutate: func(c *Config) {
				c.Transport.Type = TransportMQTT
				c.MQTT.Broker.Host = ""
			},
			wantErr: true,
		},
		{
			name:    "zero handshake timeout",
			mutate:  func(c *Config) { c.Handshake.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
		{
			name: "api enabled with invalid port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: true,
		},
		{
			name:    "api disabled ignores port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.QoS = 5
	cfg.Handshake.Timeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"plugin.id", "handshake.timeout", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Transport: TransportConfig{
			WebSocket: WebSocketTransportConfig{HandshakeTimeout: 20},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetWebSocketHandshakeTimeout().Seconds(); got != 20 {
		t.Errorf("GetWebSocketHandshakeTimeout() = %v, want 20", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_ADDON_PLUGIN_ID", "env-plugin")
	t.Setenv("GRAYLOGIC_ADDON_PACKAGE_NAME", "env-package")
	t.Setenv("GRAYLOGIC_ADDON_TRANSPORT_TYPE", "mqtt")
	t.Setenv("GRAYLOGIC_ADDON_IPC_BASE_DIR", "/run/gateway")
	t.Setenv("GRAYLOGIC_ADDON_DATABASE_PATH", "/custom/settings.db")
	t.Setenv("GRAYLOGIC_ADDON_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_ADDON_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_ADDON_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_ADDON_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_ADDON_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_ADDON_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   any
		want  any
	}{
		{"Plugin.ID", cfg.Plugin.ID, "env-plugin"},
		{"Plugin.PackageName", cfg.Plugin.PackageName, "env-package"},
		{"Transport.Type", cfg.Transport.Type, "mqtt"},
		{"Transport.IPC.BaseDir", cfg.Transport.IPC.BaseDir, "/run/gateway"},
		{"Database.Path", cfg.Database.Path, "/custom/settings.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Broker.Port", cfg.MQTT.Broker.Port, 8883},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Transport.Type != TransportIPC {
		t.Errorf("defaultConfig Transport.Type = %q, want %q", cfg.Transport.Type, TransportIPC)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Handshake.Timeout != 10 {
		t.Errorf("defaultConfig Handshake.Timeout = %d, want 10", cfg.Handshake.Timeout)
	}
	if cfg.API.Enabled {
		t.Error("defaultConfig should leave the status API disabled")
	}
}
