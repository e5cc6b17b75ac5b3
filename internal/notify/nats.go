package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
)

// ErrNATSDisconnected is returned by NATSPublisher.HealthCheck while the
// connection is down.
var ErrNATSDisconnected = errors.New("notify: nats not connected")

// NATSConn is the subset of *nats.Conn used for publishing.
type NATSConn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

// NATSPublisher publishes each envelope to
// {prefix}.{customer_location_id}.{event_type}.
type NATSPublisher struct {
	conn   NATSConn
	prefix string
}

// DialNATS connects to the NATS server. The connection reconnects forever;
// publishes made while disconnected are buffered by the client.
func DialNATS(cfg config.NATSConfig, logger Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", cfg.URL, err)
	}
	return NewNATSPublisher(conn, cfg.SubjectPrefix), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn NATSConn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Name returns "nats".
func (p *NATSPublisher) Name() string { return config.BackendNATS }

// Subject returns the subject an envelope is published on.
func (p *NATSPublisher) Subject(env Envelope) string {
	return p.prefix + "." + subjectToken(env.CustomerLocationID) + "." + string(env.Type)
}

// Publish sends env.
func (p *NATSPublisher) Publish(_ context.Context, env Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(env), data)
}

// HealthCheck reports whether the connection is up.
func (p *NATSPublisher) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.conn.IsConnected() {
		return ErrNATSDisconnected
	}
	return nil
}

// Close flushes buffered messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// subjectToken keeps a customer location id to a single subject token.
func subjectToken(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, id)
}
