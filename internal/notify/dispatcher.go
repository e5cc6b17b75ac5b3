package notify

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
)

// publishTimeout bounds one delivery to all backends.
const publishTimeout = 10 * time.Second

// Dispatcher decouples command processing from event delivery.
//
// Notify never blocks: envelopes are queued and a single worker forwards
// them to the publisher in order. Start must be called before Notify has
// any effect beyond queueing.
type Dispatcher struct {
	publisher Publisher
	queue     chan Envelope
	logger    Logger

	mu      sync.Mutex
	closed  bool
	started bool
	done    chan struct{}
}

// NewDispatcher creates a dispatcher with a queue of size queueSize.
func NewDispatcher(publisher Publisher, queueSize int, logger Logger) *Dispatcher {
	if publisher == nil {
		publisher = Noop{}
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan Envelope, queueSize),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the delivery worker. It returns immediately. The worker
// exits after Close once the queue is drained, or when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.run(ctx)
}

// Notify queues env for delivery. It reports false when the envelope was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Notify(env Envelope) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- env:
		return true
	default:
		metrics.IncDispatchDropped()
		d.logger.Warn("event notification dropped, queue full",
			"customer_location_id", env.CustomerLocationID,
			"type", env.Type,
			"sequence", env.Sequence,
		)
		return false
	}
}

// Close stops accepting envelopes and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
}

// Pending returns the number of queued envelopes.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case env, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, env)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, env Envelope) {
	// Delivery outlives the caller's cancellation while draining on Close.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, env); err != nil {
		d.logger.Warn("event notification failed",
			"publisher", d.publisher.Name(),
			"customer_location_id", env.CustomerLocationID,
			"type", env.Type,
			"sequence", env.Sequence,
			"error", err,
		)
		return
	}
	d.logger.Debug("event published",
		"customer_location_id", env.CustomerLocationID,
		"type", env.Type,
		"sequence", env.Sequence,
	)
}
