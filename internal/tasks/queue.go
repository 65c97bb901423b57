// Package tasks runs entity loads in the background. Tasks travel over an
// in-process watermill pub/sub and are spread over a fixed number of
// workers; each worker handles one topic shard. Tasks that fail or time
// out go to a poison topic whose handler records them in the failed task
// ledger. Failed tasks are not retried.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

const (
	topicPrefix  = "tasks."
	poisonTopic  = "tasks.failed"
	closeTimeout = 10 * time.Second
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("task queue closed")

// Loader performs one load. *syncer.Service implements it.
type Loader interface {
	UpdateOrCreate(ctx context.Context, kind schema.Kind, id int64, req syncer.Request) (*syncer.Result, error)
}

// FailureRecorder stores tasks that could not be completed. *db.DB
// implements it.
type FailureRecorder interface {
	RecordFailedTask(task *models.FailedTask) error
}

// Config is passed to New.
type Config struct {
	Workers int
	// Timeout bounds a single task, children loaded inline included.
	Timeout time.Duration
	// Buffer is the per-subscriber channel buffer.
	Buffer int64
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{Workers: 4, Timeout: 5 * time.Minute, Buffer: 1024}
}

type task struct {
	Kind    string         `json:"kind"`
	ID      int64          `json:"id"`
	Request syncer.Request `json:"request"`
}

// Queue is a background task queue implementing syncer.Enqueuer.
type Queue struct {
	cfg      Config
	loader   Loader
	failures FailureRecorder
	pubsub   *gochannel.GoChannel
	router   *message.Router
	logger   zerolog.Logger

	mu       sync.Mutex
	closed   bool
	pending  int
	enqueued int
	idle     chan struct{}
}

// New builds a queue. Call Start before enqueueing.
func New(cfg Config, loader Loader, failures FailureRecorder) (*Queue, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	wmLogger := log.NewWatermillAdapter()

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, wmLogger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	idle := make(chan struct{})
	close(idle)
	q := &Queue{
		cfg:      cfg,
		loader:   loader,
		failures: failures,
		pubsub:   pubsub,
		router:   router,
		logger:   log.Logger().With().Str("component", "tasks").Logger(),
		idle:     idle,
	}

	// Outermost, so a task only counts as done once it was acked.
	router.AddMiddleware(q.track)

	poison, err := middleware.PoisonQueue(pubsub, poisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	for i := range cfg.Workers {
		name := "load-" + strconv.Itoa(i)
		h := router.AddConsumerHandler(name, shardTopic(i), pubsub, q.handle)
		h.AddMiddleware(poison, q.countFailure, middleware.Recoverer)
		if cfg.Timeout > 0 {
			h.AddMiddleware(middleware.Timeout(cfg.Timeout))
		}
	}
	router.AddConsumerHandler("record-failed", poisonTopic, pubsub, q.recordFailure)

	return q, nil
}

// Start runs the router until ctx is cancelled or Close is called, and
// returns once every handler is subscribed.
func (q *Queue) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		if err := q.router.Run(ctx); err != nil {
			q.logger.Error().Err(err).Msg("task router stopped")
			errc <- err
		}
	}()
	select {
	case <-q.router.Running():
		return nil
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue implements syncer.Enqueuer.
func (q *Queue) Enqueue(ctx context.Context, kind schema.Kind, id int64, req syncer.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(task{Kind: kind.String(), ID: id, Request: req})
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.addPendingLocked(1)
	q.enqueued++
	q.mu.Unlock()

	if err := q.pubsub.Publish(shardTopic(q.shard(id)), msg); err != nil {
		q.done()
		return fmt.Errorf("publish task: %w", err)
	}
	metrics.TasksEnqueued.WithLabelValues(kind.String()).Inc()
	return nil
}

// Pending returns the number of tasks enqueued but not finished.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Enqueued returns the number of tasks accepted since the queue was built.
func (q *Queue) Enqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued
}

// Wait blocks until no task is pending, including tasks enqueued while
// waiting, or until ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := q.idle
		n := q.pending
		q.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting tasks and shuts the router down. Tasks in flight
// get the router's close timeout to finish.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	routerErr := q.router.Close()
	if err := q.pubsub.Close(); err != nil {
		return errors.Join(routerErr, err)
	}
	return routerErr
}

func (q *Queue) handle(msg *message.Message) error {
	var t task
	if err := json.Unmarshal(msg.Payload, &t); err != nil {
		return fmt.Errorf("decode task %s: %w", msg.UUID, err)
	}
	kind, err := schema.ParseKind(t.Kind)
	if err != nil {
		return err
	}
	if _, err := q.loader.UpdateOrCreate(msg.Context(), kind, t.ID, t.Request); err != nil {
		return err
	}
	metrics.TasksCompleted.WithLabelValues(t.Kind, "ok").Inc()
	return nil
}

// countFailure keeps the queue busy until the poisoned copy of a failed
// task has been recorded.
func (q *Queue) countFailure(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			q.mu.Lock()
			q.addPendingLocked(1)
			q.mu.Unlock()
		}
		return out, err
	}
}

func (q *Queue) recordFailure(msg *message.Message) error {
	reason := msg.Metadata.Get(middleware.ReasonForPoisonedKey)

	var t task
	if err := json.Unmarshal(msg.Payload, &t); err != nil {
		// Nothing to record beyond the raw payload.
		t.Kind = "unknown"
	}
	request, err := json.Marshal(t.Request)
	if err != nil {
		return err
	}

	q.logger.Warn().Str("kind", t.Kind).Int64("id", t.ID).Str("reason", reason).Msg("task failed")
	metrics.TasksCompleted.WithLabelValues(t.Kind, "failed").Inc()

	if q.failures == nil {
		return nil
	}
	failed := &models.FailedTask{
		ID:       msg.UUID,
		Kind:     t.Kind,
		EntityID: t.ID,
		Request:  datatypes.JSON(request),
		Error:    reason,
	}
	if err := q.failures.RecordFailedTask(failed); err != nil {
		q.logger.Error().Err(err).Str("task", msg.UUID).Msg("record failed task")
	}
	return nil
}

// track marks a message done once its handler acked it. Nacked messages
// are redelivered and stay pending.
func (q *Queue) track(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err == nil {
			q.done()
		}
		return out, err
	}
}

func (q *Queue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addPendingLocked(-1)
}

func (q *Queue) addPendingLocked(delta int) {
	before := q.pending
	q.pending += delta
	if q.pending < 0 {
		q.pending = 0
	}
	switch {
	case before == 0 && q.pending > 0:
		q.idle = make(chan struct{})
	case before > 0 && q.pending == 0:
		close(q.idle)
	}
	metrics.TasksPending.Set(float64(q.pending))
}

func (q *Queue) shard(id int64) int {
	if id < 0 {
		id = -id
	}
	return int(id % int64(q.cfg.Workers))
}

func shardTopic(i int) string { return topicPrefix + strconv.Itoa(i) }

var _ syncer.Enqueuer = (*Queue)(nil)
