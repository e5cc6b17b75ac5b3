package mesh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/wirelessmesh-core/internal/audit"
	"github.com/nerrad567/wirelessmesh-core/internal/eventlog"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
	"github.com/nerrad567/wirelessmesh-core/internal/notify"
)

// warmConcurrency bounds parallel replays in Warm.
const warmConcurrency = 8

// Logger defines the logging interface used by the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier receives envelopes for accepted events.
type Notifier interface {
	Notify(env notify.Envelope) bool
	Close()
}

// AuditRepository records command outcomes.
type AuditRepository interface {
	Create(ctx context.Context, log *audit.AuditLog) error
}

// Deps are the collaborators of a Service. Only Journal is required.
type Deps struct {
	Journal  eventlog.Journal
	Actuator location.Actuator
	Rules    location.Rules
	Notifier Notifier
	Audit    AuditRepository
	Logger   Logger
}

// Result is the outcome of an accepted command.
type Result struct {
	Event  location.Event
	Record eventlog.Record
}

type entity struct {
	mu     sync.Mutex
	agg    *location.CustomerLocation
	loaded bool
	// detached entities are no longer in the cache; holders must look up
	// the key again.
	detached bool
}

// Service executes commands against journaled customer locations.
type Service struct {
	journal  eventlog.Journal
	actuator location.Actuator
	rules    location.Rules
	notifier Notifier
	audit    AuditRepository
	logger   Logger

	mu       sync.Mutex
	entities map[string]*entity
	closed   bool
}

// NewService creates a service.
func NewService(deps Deps) (*Service, error) {
	if deps.Journal == nil {
		return nil, ErrNoJournal
	}
	s := &Service{
		journal:  deps.Journal,
		actuator: deps.Actuator,
		rules:    deps.Rules,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		logger:   deps.Logger,
		entities: make(map[string]*entity),
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s, nil
}

// Execute decides cmd, records the resulting event and applies it.
//
// Rejections are returned as *location.Rejection (errors.Is ErrRejected).
// A journal failure is returned wrapped and leaves the location unchanged.
func (s *Service) Execute(ctx context.Context, cmd location.Command) (Result, error) {
	if cmd == nil {
		return Result{}, location.ErrUnknownCommand
	}
	start := time.Now()

	res, err := s.execute(ctx, cmd)

	result := metrics.ResultAccepted
	switch {
	case errors.Is(err, location.ErrRejected):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultFailed
	}
	metrics.ObserveCommand(cmd.CommandName(), result, time.Since(start))
	s.recordAudit(ctx, cmd, res, result, err)

	return res, err
}

func (s *Service) execute(ctx context.Context, cmd location.Command) (Result, error) {
	id := cmd.LocationID()
	e, err := s.acquire(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer s.release(id, e)

	ev, err := e.agg.Handle(ctx, cmd)
	if err != nil {
		return Result{}, err
	}

	rec, err := s.journal.Append(ctx, e.agg.Version(), ev)
	if err != nil {
		if _, toggled := ev.(location.NightlightToggled); toggled {
			s.logger.Error("device actuated but event not recorded",
				"customer_location_id", id,
				"command", cmd.CommandName(),
				"error", err,
			)
		}
		if errors.Is(err, eventlog.ErrSequenceConflict) {
			// Another writer got ahead of this cache; force a replay.
			e.loaded = false
		}
		return Result{}, fmt.Errorf("recording %s: %w", ev.EventType(), err)
	}

	if err := e.agg.Commit(ev); err != nil {
		e.loaded = false
		s.logger.Error("recorded event could not be applied",
			"customer_location_id", id,
			"sequence", rec.Sequence,
			"error", err,
		)
		return Result{}, err
	}

	s.publish(rec)

	s.logger.Debug("command accepted",
		"customer_location_id", id,
		"command", cmd.CommandName(),
		"event", ev.EventType(),
		"sequence", rec.Sequence,
	)
	return Result{Event: ev, Record: rec}, nil
}

// Query returns the snapshot of a customer location.
func (s *Service) Query(ctx context.Context, customerLocationID string) (location.Snapshot, error) {
	e, err := s.acquire(ctx, customerLocationID)
	if err != nil {
		return location.Snapshot{}, err
	}
	defer s.release(customerLocationID, e)

	return e.agg.GetCustomerLocation()
}

// History returns the recorded events of a customer location as redacted
// envelopes, oldest first.
func (s *Service) History(ctx context.Context, customerLocationID string) ([]notify.Envelope, error) {
	records, err := s.journal.Load(ctx, customerLocationID)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", customerLocationID, err)
	}
	envs := make([]notify.Envelope, 0, len(records))
	for _, rec := range records {
		env, err := notify.NewEnvelope(rec)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// LocationIDs returns every customer location with recorded history.
func (s *Service) LocationIDs(ctx context.Context) ([]string, error) {
	return s.journal.ListLocationIDs(ctx)
}

// Warm replays every journaled location into the cache. Locations that
// fail to replay are logged and left uncached; their errors are joined.
func (s *Service) Warm(ctx context.Context) (int, error) {
	ids, err := s.journal.ListLocationIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing locations: %w", err)
	}

	var (
		mu     sync.Mutex
		loaded int
		errs   []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			e, err := s.acquire(gctx, id)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			s.release(id, e)
			mu.Lock()
			loaded++
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return an error

	return loaded, errors.Join(errs...)
}

// Evict marks a cached location stale. The next call replays it from the
// journal. Callers already holding or waiting on the location keep a single
// aggregate for the key.
func (s *Service) Evict(customerLocationID string) {
	s.mu.Lock()
	e, ok := s.entities[customerLocationID]
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.loaded = false
	e.mu.Unlock()
}

// Loaded returns the number of cached locations.
func (s *Service) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

// Actuations returns the total device actuations made by cached locations.
func (s *Service) Actuations() int64 {
	s.mu.Lock()
	entities := make([]*entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}
	s.mu.Unlock()

	var total int64
	for _, e := range entities {
		e.mu.Lock()
		if e.agg != nil {
			total += e.agg.Gate().Actuations()
		}
		e.mu.Unlock()
	}
	return total
}

// Close rejects further calls and drains the notifier.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Close()
	}
}

// acquire returns the loaded entity for id with its lock held. Pair every
// successful call with release.
func (s *Service) acquire(ctx context.Context, id string) (*entity, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		e, ok := s.entities[id]
		if !ok {
			e = &entity{}
			s.entities[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.detached {
			e.mu.Unlock()
			continue
		}
		if e.loaded {
			return e, nil
		}
		if err := s.load(ctx, id, e); err != nil {
			s.detach(id, e)
			e.mu.Unlock()
			return nil, err
		}
		return e, nil
	}
}

// release unlocks e. Locations without recorded history are dropped from
// the cache so lookups of unknown ids hold no memory.
func (s *Service) release(id string, e *entity) {
	if e.agg == nil || e.agg.Version() == 0 {
		s.detach(id, e)
	}
	e.mu.Unlock()
	metrics.SetLoadedLocations(s.Loaded())
}

// detach removes e from the cache. Caller holds e.mu.
func (s *Service) detach(id string, e *entity) {
	e.detached = true
	s.mu.Lock()
	if s.entities[id] == e {
		delete(s.entities, id)
	}
	s.mu.Unlock()
}

// load replays the journal into a fresh aggregate. Caller holds e.mu.
func (s *Service) load(ctx context.Context, id string, e *entity) error {
	start := time.Now()

	records, err := s.journal.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("loading %s: %w", id, err)
	}
	events, err := eventlog.Events(records)
	if err != nil {
		s.logger.Error("customer location journal is corrupt",
			"customer_location_id", id,
			"error", err,
		)
		return err
	}

	agg := location.NewCustomerLocation(id, location.Deps{
		Actuator: s.actuator,
		Rules:    s.rules,
		Logger:   s.logger,
	})
	if err := agg.Load(events); err != nil {
		return err
	}

	e.agg = agg
	e.loaded = true
	metrics.ObserveReplay(len(events), time.Since(start))
	return nil
}

func (s *Service) publish(rec eventlog.Record) {
	if s.notifier == nil {
		return
	}
	env, err := notify.NewEnvelope(rec)
	if err != nil {
		s.logger.Warn("building event envelope failed",
			"customer_location_id", rec.CustomerLocationID,
			"sequence", rec.Sequence,
			"error", err,
		)
		return
	}
	s.notifier.Notify(env)
}

func (s *Service) recordAudit(ctx context.Context, cmd location.Command, res Result, result string, cmdErr error) {
	if s.audit == nil {
		return
	}

	details := map[string]any{
		"command": cmd.CommandName(),
		"result":  result,
	}
	if res.Event != nil {
		details["event"] = string(res.Event.EventType())
		details["sequence"] = res.Record.Sequence
	}
	if cmdErr != nil {
		details["error"] = cmdErr.Error()
	}

	entry := &audit.AuditLog{
		Action:     audit.ActionCommand,
		EntityType: audit.EntityCustomerLocation,
		EntityID:   cmd.LocationID(),
		UserID:     ActorFrom(ctx),
		Source:     SourceFrom(ctx),
		Details:    details,
	}
	// The audit row outlives a cancelled request.
	if err := s.audit.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("audit log write failed",
			"customer_location_id", cmd.LocationID(),
			"command", cmd.CommandName(),
			"error", err,
		)
	}
}
