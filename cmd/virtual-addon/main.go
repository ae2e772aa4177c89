// Gray Logic virtual add-on.
//
// This is the entry point for the virtual add-on: a set of simulated
// dimmable lights, a log notifier and a small proxied API, connected to the
// gateway through the add-on bridge. It doubles as the reference for
// wiring a real add-on.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/gray-logic-addon/internal/api"
	"github.com/nerrad567/gray-logic-addon/internal/bridge"
	"github.com/nerrad567/gray-logic-addon/internal/history"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-addon/internal/schema"
	"github.com/nerrad567/gray-logic-addon/internal/settings"
	"github.com/nerrad567/gray-logic-addon/internal/transport"
	"github.com/nerrad567/gray-logic-addon/internal/virtual"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to a process status. A failed handshake asks
// the gateway not to restart us.
func exitCode(err error) int {
	if errors.Is(err, bridge.ErrHandshake) {
		return bridge.DontRestartExitCode
	}
	return 1
}

// run is the actual application logic, separated from main for testability.
// It returns nil when the gateway unloads the plugin or ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic virtual add-on",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	base := logging.New(cfg.Logging, version)
	log = base.ForPlugin(cfg.Plugin.ID, "")
	log.Info("configuration loaded", "path", configPath, "transport", cfg.Transport.Type)

	validator, err := schema.New(schema.Options{Dir: cfg.Schema.Dir, Logger: log})
	if err != nil {
		return fmt.Errorf("loading message schemas: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := bridge.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	tr, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	sess, err := bridge.Connect(ctx, bridge.Options{
		PluginID:         cfg.Plugin.ID,
		Transport:        tr,
		Validator:        validator,
		ValidateOutbound: cfg.Schema.ValidateOutbound,
		HandshakeTimeout: cfg.GetHandshakeTimeout(),
		Logger:           log,
		Metrics:          metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Error("error closing gateway session", "error", closeErr)
		}
		sess.Wait()
	}()

	params := sess.Params()
	log = base.ForPlugin(cfg.Plugin.ID, sess.ID())
	log.Info("registered", "gateway_version", params.GatewayVersion)

	checks := map[string]api.HealthChecker{}

	addonSettings, db, err := loadSettings(ctx, cfg, params, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["database"] = db
	}

	// A typed nil *influxdb.Client must not reach NewRecorder.
	var writer history.Writer
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		writer = influxClient
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	packageName := cfg.Plugin.PackageName
	if packageName == "" {
		packageName = cfg.Plugin.ID
	}

	plugin, err := virtual.New(virtual.Options{
		PackageName: packageName,
		Manager:     history.NewRecorder(sess, writer),
		Settings:    addonSettings,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("building add-on: %w", err)
	}
	defer func() {
		if closeErr := plugin.Close(context.Background()); closeErr != nil {
			log.Error("error stopping add-on", "error", closeErr)
		}
	}()

	if err := plugin.Register(ctx, sess); err != nil {
		return fmt.Errorf("registering entities: %w", err)
	}

	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:         cfg.API,
			Logger:         log,
			Session:        sess,
			Gatherer:       reg,
			Checks:         checks,
			GatewayVersion: params.GatewayVersion,
			Version:        version,
		})
		if err != nil {
			return fmt.Errorf("creating status server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting status server: %w", err)
		}
		defer srv.Close()
	}

	log.Info("initialisation complete")

	err = sess.Run(ctx)
	switch {
	case err == nil:
		log.Info("unloaded by gateway")
		return nil
	case errors.Is(err, context.Canceled):
		log.Info("shutdown signal received, cleaning up")
		return nil
	default:
		return fmt.Errorf("gateway session: %w", err)
	}
}

// getConfigPath returns the configuration file path from
// GRAYLOGIC_ADDON_CONFIG. Empty means defaults plus environment.
func getConfigPath() string {
	return os.Getenv("GRAYLOGIC_ADDON_CONFIG")
}

// newTransport builds the configured link to the gateway.
func newTransport(cfg *config.Config, log *logging.Logger) (transport.Transport, error) {
	switch cfg.Transport.Type {
	case config.TransportIPC:
		return transport.NewIPC(cfg.Transport.IPC, log), nil
	case config.TransportWebSocket:
		return transport.NewWebSocket(cfg.Transport.WebSocket, log), nil
	case config.TransportMQTT:
		return transport.NewMQTT(cfg.MQTT, cfg.Transport.MQTT, cfg.Plugin.ID, log), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport.Type)
	}
}

// loadSettings opens the gateway's settings database and reads the add-on's
// saved settings. Without a resolvable database the defaults apply.
func loadSettings(ctx context.Context, cfg *config.Config, params bridge.Params, log *logging.Logger) (virtual.Settings, *database.DB, error) {
	path, err := settings.ResolvePath(cfg.Database.Path, params.UserProfile)
	if errors.Is(err, settings.ErrNoDatabase) {
		log.Warn("no settings database, using defaults")
		return virtual.DefaultSettings(), nil, nil
	}
	if err != nil {
		return virtual.Settings{}, nil, err
	}

	db, err := database.Open(database.Config{
		Path:        path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return virtual.Settings{}, nil, fmt.Errorf("opening settings database: %w", err)
	}

	packageName := cfg.Plugin.PackageName
	if packageName == "" {
		packageName = cfg.Plugin.ID
	}
	store, err := settings.NewStore(db, packageName)
	if err != nil {
		db.Close()
		return virtual.Settings{}, nil, err
	}

	s, err := virtual.LoadSettings(ctx, store)
	if err != nil {
		db.Close()
		return virtual.Settings{}, nil, err
	}
	log.Info("settings loaded", "database", path, "lights", len(s.Lights))
	return s, db, nil
}
