// Package metrics exposes Prometheus instrumentation for syncs, remote
// calls, the task queue and bulk resolution.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Synchronizer
	SyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eveuniverse_sync_total",
			Help: "Entity sync operations by kind, mode and outcome",
		},
		[]string{"kind", "mode", "outcome"}, // mode: update, get; outcome: created, updated, skipped, error
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eveuniverse_sync_duration_seconds",
			Help:    "Duration of entity sync operations including children loaded inline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Remote API
	ESIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eveuniverse_esi_requests_total",
			Help: "Remote API requests by method and status",
		},
		[]string{"method", "status"},
	)

	ESICacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eveuniverse_esi_cache_hits_total",
			Help: "Remote API responses served from cache",
		},
	)

	ESICacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eveuniverse_esi_cache_misses_total",
			Help: "Remote API responses not found in cache",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eveuniverse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Task queue
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eveuniverse_tasks_enqueued_total",
			Help: "Background load tasks enqueued by kind",
		},
		[]string{"kind"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eveuniverse_tasks_completed_total",
			Help: "Background load tasks finished by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	TasksPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eveuniverse_tasks_pending",
			Help: "Background load tasks enqueued but not finished",
		},
	)

	// Bulk resolution
	BulkResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eveuniverse_bulk_ids_total",
			Help: "Ids handled by bulk resolution by outcome",
		},
		[]string{"outcome"}, // resolved, known, unresolvable
	)
)

// Recorder receives synchronizer events. The syncer depends on this
// interface so tests can run without the global registry.
type Recorder interface {
	ObserveSync(kind, mode, outcome string, d time.Duration)
}

// Prometheus records into the package-level collectors.
type Prometheus struct{}

// ObserveSync implements Recorder.
func (Prometheus) ObserveSync(kind, mode, outcome string, d time.Duration) {
	SyncTotal.WithLabelValues(kind, mode, outcome).Inc()
	SyncDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Nop discards events.
type Nop struct{}

// ObserveSync implements Recorder.
func (Nop) ObserveSync(string, string, string, time.Duration) {}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the endpoint.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
