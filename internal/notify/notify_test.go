package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/wirelessmesh-core/internal/eventlog"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
)

var recordedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func mustEnvelope(t *testing.T, seq int64, e location.Event) Envelope {
	t.Helper()
	rec, err := eventlog.NewRecord(seq, e, recordedAt)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	env, err := NewEnvelope(rec)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

// =============================================================================
// Fakes
// =============================================================================

type recordingPublisher struct {
	mu    sync.Mutex
	name  string
	err   error
	block chan struct{}
	got   []Envelope
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(_ context.Context, env Envelope) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, env)
	return p.err
}

func (p *recordingPublisher) envelopes() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope(nil), p.got...)
}

type fakeMQTT struct {
	mu       sync.Mutex
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func (f *fakeMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topic, f.payload, f.qos, f.retained = topic, payload, qos, retained
	return nil
}

type fakeRedis struct {
	channel string
	message any
	err     error
	closed  bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel, f.message = channel, message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

type fakeHub struct {
	channel string
	payload any
}

func (f *fakeHub) Broadcast(channel string, payload any) {
	f.channel, f.payload = channel, payload
}

type fakeTelemetry struct {
	events     []string
	nightlight map[string]bool
}

func (f *fakeTelemetry) WriteNightlightState(_, deviceID string, on bool, _ time.Time) {
	if f.nightlight == nil {
		f.nightlight = map[string]bool{}
	}
	f.nightlight[deviceID] = on
}

func (f *fakeTelemetry) WriteLocationEvent(_, eventType string, _ int64, _ time.Time) {
	f.events = append(f.events, eventType)
}

// =============================================================================
// Envelope
// =============================================================================

func TestEnvelopeRedactsAccessToken(t *testing.T) {
	env := mustEnvelope(t, 1, location.CustomerLocationAdded{CustomerLocationID: "loc1", AccessToken: "secret"})

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("envelope leaks access token: %s", data)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"type", "customer_location_id", "sequence", "recorded_at", "payload"} {
		if _, ok := body[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}
	if body["type"] != string(location.EventLocationAdded) {
		t.Errorf("type = %v", body["type"])
	}
}

func TestEnvelopeEventDecodesPayload(t *testing.T) {
	env := mustEnvelope(t, 2, location.RoomAssigned{CustomerLocationID: "loc1", DeviceID: "d1", Room: "hall"})

	var decoded Envelope
	data, _ := env.Marshal()
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e, err := decoded.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if e != (location.RoomAssigned{CustomerLocationID: "loc1", DeviceID: "d1", Room: "hall"}) {
		t.Errorf("Event() = %#v", e)
	}
}

// =============================================================================
// Backends
// =============================================================================

func TestMQTTPublisher(t *testing.T) {
	client := &fakeMQTT{}
	p := NewMQTTPublisher(client, 1)

	env := mustEnvelope(t, 3, location.DeviceActivated{CustomerLocationID: "loc1", DeviceID: "d1"})
	if err := p.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.topic != "wirelessmesh/location/loc1/event/device.activated" {
		t.Errorf("topic = %q", client.topic)
	}
	if client.qos != 1 || client.retained {
		t.Errorf("qos = %d, retained = %v", client.qos, client.retained)
	}
	if !strings.Contains(string(client.payload), `"sequence":3`) {
		t.Errorf("payload = %s", client.payload)
	}
}

func TestRedisPublisher(t *testing.T) {
	rdb := &fakeRedis{}
	p := NewRedisPublisher(rdb, "wirelessmesh.events")

	env := mustEnvelope(t, 1, location.DeviceActivated{CustomerLocationID: "loc1", DeviceID: "d1"})
	if err := p.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rdb.channel != "wirelessmesh.events" {
		t.Errorf("channel = %q", rdb.channel)
	}
	if _, ok := rdb.message.([]byte); !ok {
		t.Errorf("message type = %T, want []byte", rdb.message)
	}

	rdb.err = errors.New("connection refused")
	if err := p.Publish(context.Background(), env); err == nil {
		t.Error("Publish() = nil, want redis error")
	}

	if err := p.Close(); err != nil || !rdb.closed {
		t.Errorf("Close() = %v, closed = %v", err, rdb.closed)
	}
}

func TestHubPublisher(t *testing.T) {
	hub := &fakeHub{}
	env := mustEnvelope(t, 1, location.DeviceActivated{CustomerLocationID: "loc1", DeviceID: "d1"})

	if err := NewHubPublisher(hub).Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if hub.channel != WebSocketChannel {
		t.Errorf("channel = %q", hub.channel)
	}
	if got, ok := hub.payload.(Envelope); !ok || got.Sequence != 1 {
		t.Errorf("payload = %#v", hub.payload)
	}
}

func TestTelemetryPublisher(t *testing.T) {
	w := &fakeTelemetry{}
	p := NewTelemetryPublisher(w)
	ctx := context.Background()

	events := []location.Event{
		location.DeviceActivated{CustomerLocationID: "loc1", DeviceID: "d1"},
		location.NightlightToggled{CustomerLocationID: "loc1", DeviceID: "d1", NightlightOn: true},
	}
	for i, e := range events {
		if err := p.Publish(ctx, mustEnvelope(t, int64(i+1), e)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	if len(w.events) != 2 {
		t.Errorf("event points = %v, want 2", w.events)
	}
	if on, ok := w.nightlight["d1"]; !ok || !on {
		t.Errorf("nightlight points = %v", w.nightlight)
	}
}

// =============================================================================
// FanOut
// =============================================================================

func TestFanOutAttemptsEveryBackend(t *testing.T) {
	ok := &recordingPublisher{name: "ok"}
	bad := &recordingPublisher{name: "bad", err: errors.New("boom")}
	f := NewFanOut(ok, nil, bad)

	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}

	err := f.Publish(context.Background(), mustEnvelope(t, 1, location.CustomerLocationRemoved{CustomerLocationID: "loc1"}))
	if err == nil || !strings.Contains(err.Error(), "bad: boom") {
		t.Errorf("err = %v, want bad: boom", err)
	}
	if len(ok.envelopes()) != 1 || len(bad.envelopes()) != 1 {
		t.Error("not every backend was attempted")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Publish(context.Background(), Envelope{}); err != nil {
		t.Errorf("Noop.Publish() = %v", err)
	}
}

// =============================================================================
// Dispatcher
// =============================================================================

func TestDispatcherDeliversInOrder(t *testing.T) {
	p := &recordingPublisher{name: "rec"}
	d := NewDispatcher(p, 16, nil)
	d.Start(context.Background())

	for i := int64(1); i <= 5; i++ {
		if !d.Notify(mustEnvelope(t, i, location.DeviceActivated{CustomerLocationID: "loc1", DeviceID: "d1"})) {
			t.Fatalf("Notify(%d) dropped", i)
		}
	}
	d.Close()

	got := p.envelopes()
	if len(got) != 5 {
		t.Fatalf("delivered %d, want 5", len(got))
	}
	for i, env := range got {
		if env.Sequence != int64(i+1) {
			t.Errorf("envelope %d sequence = %d", i, env.Sequence)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	p := &recordingPublisher{name: "rec", block: make(chan struct{})}
	d := NewDispatcher(p, 1, nil)

	env := mustEnvelope(t, 1, location.CustomerLocationRemoved{CustomerLocationID: "loc1"})
	if !d.Notify(env) {
		t.Fatal("first Notify dropped")
	}
	// Not started, so the queue stays full.
	if d.Notify(env) {
		t.Error("second Notify accepted, want dropped")
	}
	if d.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", d.Pending())
	}

	d.Start(context.Background())
	close(p.block)
	d.Close()

	if len(p.envelopes()) != 1 {
		t.Errorf("delivered %d, want 1", len(p.envelopes()))
	}
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(nil, 4, nil)
	d.Close()
	d.Close()
	if d.Notify(Envelope{}) {
		t.Error("Notify after Close accepted")
	}
}

func TestDispatcherPublishErrorIsSwallowed(t *testing.T) {
	p := &recordingPublisher{name: "bad", err: errors.New("down")}
	d := NewDispatcher(p, 4, nil)
	d.Start(context.Background())

	d.Notify(mustEnvelope(t, 1, location.CustomerLocationRemoved{CustomerLocationID: "loc1"}))
	d.Notify(mustEnvelope(t, 2, location.CustomerLocationRemoved{CustomerLocationID: "loc1"}))
	d.Close()

	if len(p.envelopes()) != 2 {
		t.Errorf("delivered %d, want 2 despite errors", len(p.envelopes()))
	}
}
