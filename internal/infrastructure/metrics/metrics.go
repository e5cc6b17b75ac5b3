// Package metrics holds the Prometheus collectors for the wireless mesh
// service. Init registers them once; the Observe functions are no-ops until
// then, so packages can call them unconditionally.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "wirelessmesh_"

// Command results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var (
	registerOnce sync.Once
	registry     *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	actuationsTotal *prometheus.CounterVec
	publishTotal    *prometheus.CounterVec
	dispatchDropped prometheus.Counter
	replayLatency   prometheus.Histogram
	replayEvents    prometheus.Histogram
	loadedEntities  prometheus.Gauge
)

// Init creates and registers every collector. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()

		commandsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_total",
				Help: "Commands processed by command name and result",
			},
			[]string{"command", "result"},
		)
		commandLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "command_latency_seconds",
				Help:    "Command latency including actuation and journal append",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		)
		actuationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "actuations_total",
				Help: "Device actuation calls by result",
			},
			[]string{"result"},
		)
		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "publish_total",
				Help: "Event notifications by backend and result",
			},
			[]string{"backend", "result"},
		)
		dispatchDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "publish_dropped_total",
				Help: "Event notifications dropped because the queue was full",
			},
		)
		replayLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "replay_latency_seconds",
				Help:    "Time to replay a customer location from the journal",
				Buckets: prometheus.DefBuckets,
			},
		)
		replayEvents = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "replay_events",
				Help:    "Number of events replayed per load",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		)
		loadedEntities = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "loaded_locations",
				Help: "Customer locations currently held in memory",
			},
		)

		registry.MustRegister(
			commandsTotal,
			commandLatency,
			actuationsTotal,
			publishTotal,
			dispatchDropped,
			replayLatency,
			replayEvents,
			loadedEntities,
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveCommand records one command outcome and its latency.
func ObserveCommand(command, result string, duration time.Duration) {
	if result == "" {
		result = ResultAccepted
	}
	if commandsTotal != nil {
		commandsTotal.WithLabelValues(command, result).Inc()
	}
	if commandLatency != nil {
		commandLatency.WithLabelValues(command).Observe(duration.Seconds())
	}
}

// ObserveActuation records one device actuation call.
func ObserveActuation(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if actuationsTotal != nil {
		actuationsTotal.WithLabelValues(result).Inc()
	}
}

// ObservePublish records one publish attempt on a backend.
func ObservePublish(backend string, err error) {
	if backend == "" {
		backend = "unknown"
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	if publishTotal != nil {
		publishTotal.WithLabelValues(backend, result).Inc()
	}
}

// IncDispatchDropped counts one notification dropped on a full queue.
func IncDispatchDropped() {
	if dispatchDropped != nil {
		dispatchDropped.Inc()
	}
}

// ObserveReplay records one journal replay.
func ObserveReplay(events int, duration time.Duration) {
	if replayLatency != nil {
		replayLatency.Observe(duration.Seconds())
	}
	if replayEvents != nil {
		replayEvents.Observe(float64(events))
	}
}

// SetLoadedLocations sets the number of cached customer locations.
func SetLoadedLocations(n int) {
	if loadedEntities != nil {
		loadedEntities.Set(float64(n))
	}
}
