package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/hookrelay/pkg/logger"
	"github.com/dmitrymomot/hookrelay/pkg/shardlock"
	"github.com/dmitrymomot/hookrelay/pkg/webhook"
)

// Client performs one delivery attempt
type Client interface {
	Post(ctx context.Context, url string, body []byte, headers map[string]string, opts ...webhook.SendOption) (*webhook.Response, error)
}

// Switch reports whether production is currently enabled.
// It is consulted on every orchestrator iteration.
type Switch interface {
	WorkersEnabled(ctx context.Context) bool
}

type alwaysEnabled struct{}

func (alwaysEnabled) WorkersEnabled(context.Context) bool { return true }

// Worker is the delivery engine: one orchestrator loop feeding a fixed pool of
// consumers through a bounded shard queue.
type Worker struct {
	repo     MessageRepository
	producer Producer
	locker   shardlock.Locker
	client   Client
	workerID uuid.UUID

	endpoint    string
	threads     int
	sleepDelay  time.Duration
	errorDelay  time.Duration
	unitTimeout time.Duration
	policy      RetryPolicy
	ceiling     RetryCeiling
	enabled     Switch
	sendOptions []webhook.SendOption
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewWorker creates a delivery worker
func NewWorker(repo MessageRepository, producer Producer, locker shardlock.Locker, client Client, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if producer == nil {
		return nil, ErrProducerNil
	}
	if locker == nil {
		return nil, ErrLockerNil
	}
	if client == nil {
		return nil, ErrClientNil
	}

	options := defaultWorkerOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.endpoint == "" {
		return nil, ErrInvalidEndpoint
	}

	workerID := uuid.New()
	return &Worker{
		repo:        repo,
		producer:    producer,
		locker:      locker,
		client:      client,
		workerID:    workerID,
		endpoint:    options.endpoint,
		threads:     options.threads,
		sleepDelay:  options.sleepDelay,
		errorDelay:  options.errorDelay,
		unitTimeout: options.unitTimeout,
		policy:      options.policy,
		ceiling:     options.ceiling,
		enabled:     options.enabled,
		sendOptions: options.sendOptions,
		logger: options.logger.With(
			logger.Component("relay_worker"),
			logger.WorkerID(workerID),
		),
		now: options.now,
	}, nil
}

// Start runs the worker in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.err = nil

	go func() {
		defer close(done)
		err := w.loop(ctx)

		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
	}()

	w.logger.Info("worker started",
		slog.Int("threads", w.threads),
		slog.String("endpoint", w.endpoint),
		slog.String("retry_ceiling", w.ceiling.String()))

	return nil
}

// Stop stops production, waits for in-flight shards to finish and returns
// the fatal error that terminated the worker, if any.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotRunning
	}
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker stopping, waiting for consumers to finish")
	<-done

	w.mu.Lock()
	err := w.err
	w.mu.Unlock()

	w.logger.Info("worker stopped")
	return err
}

// Done returns a channel closed when the worker loop has exited.
// It returns nil if the worker was never started.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Run starts the worker and blocks until ctx is cancelled or a fatal error
// terminates it
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-w.Done():
	}

	if err := w.Stop(); err != nil && !errors.Is(err, ErrWorkerNotRunning) {
		return err
	}
	return nil
}

// Runner returns a function suitable for errgroup
func (w *Worker) Runner(ctx context.Context) func() error {
	return func() error {
		return w.Run(ctx)
	}
}

// loop is the orchestrator. It returns nil on cancellation and the error
// otherwise; only fatal errors end it early.
func (w *Worker) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	pool := newConsumerPool(w, w.threads)
	defer func() {
		cancel()
		pool.wait()
	}()

	for {
		delay := w.sleepDelay

		if err := w.cycle(ctx, pool); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if IsFatal(err) {
				w.logger.ErrorContext(ctx, "unrecoverable error has occurred, stopping worker", logger.Error(err))
				return err
			}
			w.logger.ErrorContext(ctx, "production cycle failed", logger.Error(err))
			delay = w.errorDelay
		}

		if err := pool.pause(ctx, delay); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.ErrorContext(ctx, "unrecoverable error has occurred in consumer, stopping worker", logger.Error(err))
			return err
		}
	}
}

// cycle runs one production cycle if the switch is on and work is pending
func (w *Worker) cycle(ctx context.Context, pool *consumerPool) error {
	if !w.enabled.WorkersEnabled(ctx) {
		w.logger.DebugContext(ctx, "workers disabled, production paused")
		return nil
	}

	pending, err := w.repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToCountPending, err)
	}
	if pending == 0 {
		return nil
	}

	pool.ensure(ctx)

	produceCtx, cancel := pool.watch(ctx)
	defer cancel()

	err = w.producer.Produce(produceCtx, pool.queue)
	if failure := pool.failure(); failure != nil {
		return failure
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToProduce, err)
	}
	return nil
}
