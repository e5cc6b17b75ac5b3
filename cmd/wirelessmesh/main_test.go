package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/api"
	"github.com/nerrad567/wirelessmesh-core/internal/auth"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/logging"
	"github.com/nerrad567/wirelessmesh-core/internal/lifx"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("WIRELESSMESH_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	t.Setenv("WIRELESSMESH_CONFIG", writeConfig(t, `
security:
  auth_enabled: true
  jwt:
    secret: "short"
`))

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "security.jwt.secret") {
		t.Fatalf("run() error = %v, want jwt secret validation failure", err)
	}
}

func TestRun_StartsAndShutsDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "mesh.db")
	t.Setenv("WIRELESSMESH_CONFIG", writeConfig(t, `
database:
  path: "`+dbPath+`"
api:
  host: "127.0.0.1"
  port: 18473
lifx:
  enabled: false
publisher:
  enabled: true
  backends: ["websocket"]
logging:
  level: error
security:
  auth_enabled: false
`))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestIssueToken(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 5}}}

	var out bytes.Buffer
	if err := issueToken(&out, cfg, "ops", auth.RoleAdmin); err != nil {
		t.Fatalf("issueToken() error = %v", err)
	}
	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ops" || claims.Role != auth.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 5*time.Minute || ttl < 4*time.Minute {
		t.Errorf("token ttl = %v, want about 5m", ttl)
	}

	if err := issueToken(&out, cfg, "ops", auth.Role("root")); err == nil {
		t.Error("issueToken() accepted unknown role")
	}
	if err := issueToken(&out, &config.Config{}, "ops", auth.RoleViewer); err == nil {
		t.Error("issueToken() without secret = nil error")
	}
}

func TestHealthCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	if err := healthCheck(context.Background(), map[string]api.HealthCheck{"database": ok}); err != nil {
		t.Errorf("healthCheck() = %v, want nil", err)
	}

	err := healthCheck(context.Background(), map[string]api.HealthCheck{"database": ok, "mqtt": down, "nats": down})
	if err == nil {
		t.Fatal("healthCheck() = nil, want error")
	}
	for _, want := range []string{"mqtt: connection refused", "nats: connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestBuildActuator(t *testing.T) {
	log := logging.Discard()

	if _, ok := buildActuator(&config.Config{}, log).(*lifx.DryRun); !ok {
		t.Error("disabled lifx should select the dry-run actuator")
	}
	cfg := &config.Config{LIFX: config.LIFXConfig{Enabled: true, BaseURL: "http://127.0.0.1:1", Timeout: 1}}
	if _, ok := buildActuator(cfg, log).(*lifx.Client); !ok {
		t.Error("enabled lifx should select the HTTP client")
	}
}

func TestBuildPublisherDisabled(t *testing.T) {
	cfg := &config.Config{Publisher: config.PublisherConfig{Backends: []string{config.BackendWebSocket}}}
	checks := map[string]api.HealthCheck{}

	p, closers, err := buildPublisher(context.Background(), cfg, nil, checks, logging.Discard())
	if err != nil {
		t.Fatalf("buildPublisher() error = %v", err)
	}
	if p.Name() != "noop" || len(closers) != 0 || len(checks) != 0 {
		t.Errorf("publisher = %s, closers = %d, checks = %v", p.Name(), len(closers), checks)
	}

	cfg.Publisher.Enabled = true
	hub := api.NewHub(config.WebSocketConfig{}, logging.Discard())
	p, _, err = buildPublisher(context.Background(), cfg, hub, checks, logging.Discard())
	if err != nil {
		t.Fatalf("buildPublisher() error = %v", err)
	}
	if p.Name() != "fanout" {
		t.Errorf("publisher = %s, want fanout", p.Name())
	}
}
