// Wireless Mesh Core - event-sourced customer location service.
//
// The process serves the HTTP API, replays every customer location from the
// event journal on start, actuates nightlights through the LIFX API and fans
// recorded events out to MQTT, NATS, Redis, WebSocket and InfluxDB.
//
// Run with -issue-token SUBJECT [-role ROLE] to print an API access token
// signed with the configured secret and exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/wirelessmesh-core/migrations"

	"github.com/nerrad567/wirelessmesh-core/internal/api"
	"github.com/nerrad567/wirelessmesh-core/internal/audit"
	"github.com/nerrad567/wirelessmesh-core/internal/auth"
	"github.com/nerrad567/wirelessmesh-core/internal/eventlog"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/database"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/logging"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/wirelessmesh-core/internal/lifx"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
	"github.com/nerrad567/wirelessmesh-core/internal/mesh"
	"github.com/nerrad567/wirelessmesh-core/internal/notify"
)

// Set at build time:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	issue := flag.String("issue-token", "", "print an API access token for `subject` and exit")
	role := flag.String("role", string(auth.RoleOperator), "role of the issued token (viewer, operator, admin)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	if *issue != "" {
		err = runIssueToken(os.Stdout, *issue, auth.Role(*role))
	} else {
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until ctx is cancelled, then shuts
// down in reverse order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting wireless mesh core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	metrics.Init()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	checks := map[string]api.HealthCheck{"database": db.HealthCheck}
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))

	publisher, closers, err := buildPublisher(ctx, cfg, hub, checks, log)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if closeErr := closers[i](); closeErr != nil {
				log.Error("error closing publisher backend", "error", closeErr)
			}
		}
	}()
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(publisher, cfg.Publisher.QueueSize, log.Component("notify"))
	// Detached so shutdown drains the queue instead of abandoning it.
	dispatcher.Start(context.WithoutCancel(ctx))

	auditRepo := audit.NewSQLiteRepository(db.DB)
	svc, err := mesh.NewService(mesh.Deps{
		Journal:  eventlog.NewSQLiteJournal(db.DB),
		Actuator: buildActuator(cfg, log),
		Rules:    location.Rules{Strict: cfg.Validation.Strict},
		Notifier: dispatcher,
		Audit:    auditRepo,
		Logger:   log.Component("mesh"),
	})
	if err != nil {
		return fmt.Errorf("creating location service: %w", err)
	}
	// Drains queued notifications before the backends close.
	defer svc.Close()

	loaded, err := svc.Warm(ctx)
	if err != nil {
		log.Warn("some customer locations failed to replay", "error", err)
	}
	log.Info("customer locations replayed", "loaded", loaded)

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	go hub.Run(ctx)

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Locations: svc,
		Audit:     auditRepo,
		Health:    checks,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred in reverse: API server, service (drains notifications),
	// publisher backends, database.
	return nil
}

func buildActuator(cfg *config.Config, log *logging.Logger) location.Actuator {
	if !cfg.LIFX.Enabled {
		log.Warn("lifx disabled, nightlight toggles are logged only")
		return lifx.NewDryRun(log.Component("lifx"))
	}
	client := lifx.New(cfg.LIFX.BaseURL, cfg.GetLIFXTimeout())
	client.SetLogger(log.Component("lifx"))
	log.Info("lifx actuation enabled", "base_url", cfg.LIFX.BaseURL)
	return client
}

// buildPublisher connects the configured backends. Closers are returned
// even on error so the caller can release what was opened.
func buildPublisher(ctx context.Context, cfg *config.Config, hub *api.Hub, checks map[string]api.HealthCheck, log *logging.Logger) (notify.Publisher, []func() error, error) {
	var (
		backends []notify.Publisher
		closers  []func() error
	)

	if cfg.HasBackend(config.BackendMQTT) {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, closers, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log.Component("mqtt"))
		client.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		closers = append(closers, client.Close)
		checks["mqtt"] = client.HealthCheck
		backends = append(backends, notify.NewMQTTPublisher(client, client.QoS()))
		log.Info("MQTT publisher connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	}

	if cfg.HasBackend(config.BackendNATS) {
		p, err := notify.DialNATS(cfg.Publisher.NATS, log.Component("nats"))
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, p.Close)
		checks["nats"] = p.HealthCheck
		backends = append(backends, p)
		log.Info("NATS publisher connected", "url", cfg.Publisher.NATS.URL)
	}

	if cfg.HasBackend(config.BackendRedis) {
		p, err := notify.DialRedis(ctx, cfg.Publisher.Redis)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, p.Close)
		backends = append(backends, p)
		log.Info("Redis publisher connected", "addr", cfg.Publisher.Redis.Addr, "channel", cfg.Publisher.Redis.Channel)
	}

	if cfg.HasBackend(config.BackendWebSocket) {
		backends = append(backends, notify.NewHubPublisher(hub))
	}

	// Telemetry follows influxdb.enabled, not the publisher switch.
	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB, func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		if err != nil {
			return nil, closers, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		closers = append(closers, client.Close)
		checks["influxdb"] = client.HealthCheck
		backends = append(backends, notify.NewTelemetryPublisher(client))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket, "site", cfg.InfluxDB.Site)
	}

	fanout := notify.NewFanOut(backends...)
	if fanout.Len() == 0 {
		log.Info("event publishing disabled")
		return notify.Noop{}, closers, nil
	}
	return fanout, closers, nil
}

func healthCheck(ctx context.Context, checks map[string]api.HealthCheck) error {
	var errs []error
	for name, check := range checks {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// runIssueToken prints a signed API token for subject.
func runIssueToken(w io.Writer, subject string, role auth.Role) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return issueToken(w, cfg, subject, role)
}

func issueToken(w io.Writer, cfg *config.Config, subject string, role auth.Role) error {
	if cfg.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret is not configured")
	}
	token, err := auth.GenerateAccessToken(subject, role, cfg.Security.JWT.Secret, cfg.GetAccessTokenTTL())
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
