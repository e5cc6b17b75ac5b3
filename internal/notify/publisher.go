package notify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
)

// Publisher delivers envelopes to one backend.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Name() string
}

// Logger defines the logging interface used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Noop discards every envelope. It is selected when publishing is disabled.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Envelope) error { return nil }

// Name returns "noop".
func (Noop) Name() string { return "noop" }

// FanOut publishes to every backend concurrently.
//
// All backends are attempted even when one fails; the returned error joins
// every backend failure.
type FanOut struct {
	publishers []Publisher
}

// NewFanOut creates a fan-out over the given backends. Nil entries are skipped.
func NewFanOut(publishers ...Publisher) *FanOut {
	f := &FanOut{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Name returns "fanout".
func (f *FanOut) Name() string { return "fanout" }

// Len returns the number of backends.
func (f *FanOut) Len() int { return len(f.publishers) }

// Publish sends env to every backend and waits for all of them.
func (f *FanOut) Publish(ctx context.Context, env Envelope) error {
	errs := make([]error, len(f.publishers))

	var g errgroup.Group
	for i, p := range f.publishers {
		g.Go(func() error {
			err := p.Publish(ctx, env)
			metrics.ObservePublish(p.Name(), err)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-backend errors are collected in errs

	return errors.Join(errs...)
}
