package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport types understood by the add-on runtime.
const (
	TransportIPC       = "ipc"
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Config is the root configuration structure for a Gray Logic add-on.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Plugin    PluginConfig    `yaml:"plugin"`
	Transport TransportConfig `yaml:"transport"`
	Handshake HandshakeConfig `yaml:"handshake"`
	Schema    SchemaConfig    `yaml:"schema"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PluginConfig identifies the add-on to the gateway.
type PluginConfig struct {
	ID          string `yaml:"id"`
	PackageName string `yaml:"package_name"`
}

// TransportConfig selects and configures the link to the gateway.
type TransportConfig struct {
	Type      string                   `yaml:"type"`
	IPC       IPCTransportConfig       `yaml:"ipc"`
	WebSocket WebSocketTransportConfig `yaml:"websocket"`
	MQTT      MQTTTransportConfig      `yaml:"mqtt"`
}

// IPCTransportConfig contains Unix socket transport settings.
type IPCTransportConfig struct {
	// BaseDir holds the manager socket and the per-plugin channel sockets.
	BaseDir string `yaml:"base_dir"`

	// ManagerSocket is the socket name of the gateway's add-on manager.
	ManagerSocket string `yaml:"manager_socket"`

	// MaxMessageSize caps a single framed message, in bytes.
	MaxMessageSize int `yaml:"max_message_size"`
}

// WebSocketTransportConfig contains WebSocket transport settings.
type WebSocketTransportConfig struct {
	URL              string `yaml:"url"`
	HandshakeTimeout int    `yaml:"handshake_timeout"`
	MaxMessageSize   int    `yaml:"max_message_size"`
}

// MQTTTransportConfig contains topic settings for the MQTT transport.
type MQTTTransportConfig struct {
	TopicPrefix string `yaml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size"`
}

// HandshakeConfig contains registration settings.
type HandshakeConfig struct {
	// Timeout is the registration deadline in seconds.
	Timeout int `yaml:"timeout"`
}

// SchemaConfig contains message schema settings.
type SchemaConfig struct {
	// Dir overrides the embedded schema set. Empty uses the embedded copy.
	Dir string `yaml:"dir"`

	// ValidateOutbound validates every outgoing message before it is sent.
	ValidateOutbound bool `yaml:"validate_outbound"`
}

// DatabaseConfig contains SQLite settings database options.
type DatabaseConfig struct {
	// Path to the gateway settings database. Empty resolves it from the
	// user profile received during registration.
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB settings for property history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_ADDON_SECTION_KEY
// For example: GRAYLOGIC_ADDON_PLUGIN_ID, GRAYLOGIC_ADDON_TRANSPORT_TYPE
//
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type: TransportIPC,
			IPC: IPCTransportConfig{
				BaseDir:        "/tmp",
				ManagerSocket:  "gateway.addonManager",
				MaxMessageSize: 1 << 20,
			},
			WebSocket: WebSocketTransportConfig{
				URL:              "ws://localhost:9500/addons",
				HandshakeTimeout: 45,
				MaxMessageSize:   1 << 20,
			},
			MQTT: MQTTTransportConfig{
				TopicPrefix: "graylogic/addon",
				BufferSize:  256,
			},
		},
		Handshake: HandshakeConfig{
			Timeout: 10,
		},
		Database: DatabaseConfig{
			WALMode:     false,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-addon",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8095,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_ADDON_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Plugin
	if v := os.Getenv("GRAYLOGIC_ADDON_PLUGIN_ID"); v != "" {
		cfg.Plugin.ID = v
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_PACKAGE_NAME"); v != "" {
		cfg.Plugin.PackageName = v
	}

	// Transport
	if v := os.Getenv("GRAYLOGIC_ADDON_TRANSPORT_TYPE"); v != "" {
		cfg.Transport.Type = v
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_IPC_BASE_DIR"); v != "" {
		cfg.Transport.IPC.BaseDir = v
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_WEBSOCKET_URL"); v != "" {
		cfg.Transport.WebSocket.URL = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_ADDON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_ADDON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_ADDON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_ADDON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_ADDON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are reported together rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []string

	if c.Plugin.ID == "" {
		errs = append(errs, "plugin.id is required (set GRAYLOGIC_ADDON_PLUGIN_ID environment variable)")
	}

	switch c.Transport.Type {
	case TransportIPC:
		if c.Transport.IPC.BaseDir == "" {
			errs = append(errs, "transport.ipc.base_dir is required")
		}
		if c.Transport.IPC.ManagerSocket == "" {
			errs = append(errs, "transport.ipc.manager_socket is required")
		}
	case TransportWebSocket:
		if !strings.HasPrefix(c.Transport.WebSocket.URL, "ws://") &&
			!strings.HasPrefix(c.Transport.WebSocket.URL, "wss://") {
			errs = append(errs, "transport.websocket.url must start with ws:// or wss://")
		}
	case TransportMQTT:
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required for the mqtt transport")
		}
		if c.Transport.MQTT.TopicPrefix == "" {
			errs = append(errs, "transport.mqtt.topic_prefix is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport.type must be one of %s, %s, %s", TransportIPC, TransportWebSocket, TransportMQTT))
	}

	if c.Handshake.Timeout < 1 {
		errs = append(errs, "handshake.timeout must be at least 1 second")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHandshakeTimeout returns the registration deadline as a Duration.
func (c *Config) GetHandshakeTimeout() time.Duration {
	return time.Duration(c.Handshake.Timeout) * time.Second
}

// GetWebSocketHandshakeTimeout returns the WebSocket dial timeout as a Duration.
func (c *Config) GetWebSocketHandshakeTimeout() time.Duration {
	return time.Duration(c.Transport.WebSocket.HandshakeTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
