package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
)

// WebSocketChannel is the hub channel emitted events are broadcast on.
const WebSocketChannel = "location.event"

// MQTTClient is the subset of the MQTT client used for publishing.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher publishes each envelope to a per-location, per-type topic.
type MQTTPublisher struct {
	client MQTTClient
	qos    byte
	topics mqtt.Topics
}

// NewMQTTPublisher creates an MQTT backend.
func NewMQTTPublisher(client MQTTClient, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: qos}
}

// Name returns "mqtt".
func (p *MQTTPublisher) Name() string { return config.BackendMQTT }

// Publish sends env to wirelessmesh/location/{id}/event/{type}, not retained.
func (p *MQTTPublisher) Publish(_ context.Context, env Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	topic := p.topics.LocationEvent(env.CustomerLocationID, string(env.Type))
	return p.client.Publish(topic, data, p.qos, false)
}

// RedisClient is the subset of the go-redis client used for publishing.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes envelopes to one Redis pub/sub channel.
type RedisPublisher struct {
	rdb     RedisClient
	channel string
}

// DialRedis connects to Redis and verifies the connection with PING.
func DialRedis(ctx context.Context, cfg config.RedisConfig) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisPublisher(rdb, cfg.Channel), nil
}

// NewRedisPublisher wraps an existing client.
func NewRedisPublisher(rdb RedisClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Name returns "redis".
func (p *RedisPublisher) Name() string { return config.BackendRedis }

// Publish sends env to the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Broadcaster is implemented by the WebSocket hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubPublisher broadcasts envelopes to WebSocket subscribers.
type HubPublisher struct {
	hub Broadcaster
}

// NewHubPublisher creates a WebSocket backend.
func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Name returns "websocket".
func (p *HubPublisher) Name() string { return config.BackendWebSocket }

// Publish broadcasts env on WebSocketChannel.
func (p *HubPublisher) Publish(_ context.Context, env Envelope) error {
	p.hub.Broadcast(WebSocketChannel, env)
	return nil
}

// TelemetryWriter is implemented by the InfluxDB client.
type TelemetryWriter interface {
	WriteNightlightState(customerLocationID, deviceID string, on bool, at time.Time)
	WriteLocationEvent(customerLocationID, eventType string, sequence int64, at time.Time)
}

// TelemetryPublisher writes time-series points for emitted events.
type TelemetryPublisher struct {
	writer TelemetryWriter
}

// NewTelemetryPublisher creates a telemetry backend.
func NewTelemetryPublisher(writer TelemetryWriter) *TelemetryPublisher {
	return &TelemetryPublisher{writer: writer}
}

// Name returns "influxdb".
func (p *TelemetryPublisher) Name() string { return "influxdb" }

// Publish counts the event and, for nightlight toggles, records the new value.
func (p *TelemetryPublisher) Publish(_ context.Context, env Envelope) error {
	p.writer.WriteLocationEvent(env.CustomerLocationID, string(env.Type), env.Sequence, env.RecordedAt)

	e, err := env.Event()
	if err != nil {
		return err
	}
	if t, ok := e.(location.NightlightToggled); ok {
		p.writer.WriteNightlightState(t.CustomerLocationID, t.DeviceID, t.NightlightOn, env.RecordedAt)
	}
	return nil
}
