package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "wirelessmesh-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test when no broker is listening.
func requireBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skip("MQTT broker not available at 127.0.0.1:1883")
	}
	conn.Close()
}

// =============================================================================
// Topic Builders
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"LocationEvent", topics.LocationEvent("loc1", "device.activated"), "wirelessmesh/location/loc1/event/device.activated"},
		{"SystemStatus", topics.SystemStatus(), "wirelessmesh/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

// =============================================================================
// Options
// =============================================================================

func TestBrokerURL(t *testing.T) {
	b := config.MQTTBrokerConfig{Host: "broker", Port: 8883}
	if got := brokerURL(b); got != "tcp://broker:8883" {
		t.Errorf("brokerURL() = %q", got)
	}
	b.TLS = true
	if got := brokerURL(b); got != "ssl://broker:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "mesh"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	if opts.ClientID != "wirelessmesh-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "mesh" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("c1"), "online", ""},
		{"offline", buildOfflinePayload("c1"), "offline", "graceful_shutdown"},
		{"lwt", buildStatusPayload("offline", "c1", "unexpected_disconnect"), "offline", "unexpected_disconnect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			if err := json.Unmarshal([]byte(tt.payload), &body); err != nil {
				t.Fatalf("payload is not JSON: %v (%s)", err, tt.payload)
			}
			if body["status"] != tt.wantStatus || body["client_id"] != "c1" {
				t.Errorf("payload = %v", body)
			}
			if body["reason"] != tt.wantReason {
				t.Errorf("reason = %q, want %q", body["reason"], tt.wantReason)
			}
			if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
				t.Errorf("timestamp: %v", err)
			}
		})
	}
}

// =============================================================================
// Publish validation (no broker needed)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "t", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "t", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "t", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Error("IsConnected() = true for unconnected client")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&Client{}).HealthCheck(ctx)
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("HealthCheck() = %v, want context canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}

// =============================================================================
// Broker tests (skipped without a broker)
// =============================================================================

func TestConnectAndPublish(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	topic := Topics{}.LocationEvent("test-loc", "device.activated")
	if err := client.Publish(topic, []byte(`{"device_id":"d1"}`), client.QoS(), false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}
