package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrymomot/hookrelay/pkg/logger"
	"github.com/dmitrymomot/hookrelay/pkg/webhook"
)

// releaseTimeout bounds how long giving a shard lock back may take
const releaseTimeout = 5 * time.Second

// consumerPool owns the shard queue and the consumer goroutines draining it.
// Only the orchestrator goroutine calls ensure, pause and wait.
type consumerPool struct {
	w       *Worker
	queue   chan ShardID
	slots   []*consumer
	started bool
	wg      sync.WaitGroup

	// failed is closed once a consumer hits a fatal error, stored in failErr
	failed   chan struct{}
	failOnce sync.Once
	failErr  error
}

type consumer struct {
	id   int
	done chan struct{}
}

func (c *consumer) alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func newConsumerPool(w *Worker, size int) *consumerPool {
	return &consumerPool{
		w:      w,
		queue:  make(chan ShardID, size),
		slots:  make([]*consumer, size),
		failed: make(chan struct{}),
	}
}

// fail records the first fatal consumer error and wakes the orchestrator
func (p *consumerPool) fail(err error) {
	p.failOnce.Do(func() {
		p.failErr = err
		close(p.failed)
	})
}

// failure returns the fatal consumer error, if any
func (p *consumerPool) failure() error {
	select {
	case <-p.failed:
		return p.failErr
	default:
		return nil
	}
}

// watch returns a child of ctx that is cancelled as soon as a consumer fails,
// so a producer blocked on a full queue cannot outlive a dead pool
func (p *consumerPool) watch(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-p.failed:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ensure brings the pool back to full strength, replacing dead consumers
func (p *consumerPool) ensure(ctx context.Context) {
	missing := 0
	for _, c := range p.slots {
		if c == nil || !c.alive() {
			missing++
		}
	}
	if missing == 0 {
		return
	}

	if p.started {
		p.w.logger.WarnContext(ctx, "some dead consumers detected, reaping and restoring",
			slog.Int("count", missing))
	}

	for i, c := range p.slots {
		if c != nil && c.alive() {
			continue
		}
		p.slots[i] = p.spawn(ctx, i)
	}
	p.started = true

	p.w.logger.DebugContext(ctx, "created consumers", slog.Int("count", missing))
}

func (p *consumerPool) spawn(ctx context.Context, id int) *consumer {
	c := &consumer{id: id, done: make(chan struct{})}
	p.wg.Add(1)
	go p.consume(ctx, c)
	return c
}

// pause waits for d. It returns early with the error of a consumer that hit a
// fatal error, or with ctx's error on cancellation.
func (p *consumerPool) pause(ctx context.Context, d time.Duration) error {
	if err := p.failure(); err != nil {
		return err
	}

	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-p.failed:
		return p.failErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until every consumer has exited
func (p *consumerPool) wait() {
	p.wg.Wait()
}

// consume processes shards until ctx is done. A panic while processing a
// shard is recovered and the consumer moves on; a fatal error ends this
// consumer and fails the pool.
func (p *consumerPool) consume(ctx context.Context, c *consumer) {
	defer p.wg.Done()
	defer close(c.done)

	log := p.w.logger.With(logger.ConsumerID(c.id))

	for {
		select {
		case <-ctx.Done():
			return
		case shard := <-p.queue:
			// Queued hints are dropped on shutdown, the store still has the work
			if ctx.Err() != nil {
				return
			}

			log.DebugContext(ctx, "got shard in consumer", logger.ShardID(shard))

			err := p.process(ctx, log, shard)
			if err == nil {
				continue
			}
			if IsFatal(err) {
				log.ErrorContext(ctx, "unrecoverable error while processing shard",
					logger.ShardID(shard), logger.Error(err))
				p.fail(err)
				return
			}
			log.ErrorContext(ctx, "failed to process shard",
				logger.ShardID(shard), logger.Error(err))
		}
	}
}

// process runs one shard unit and turns a panic into a logged, skipped unit.
// The attempt itself was already recorded by deliver.
func (p *consumerPool) process(ctx context.Context, log *slog.Logger, shard ShardID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "consumer panicked while processing shard",
				logger.ShardID(shard), slog.Any("panic", r))
			err = nil
		}
	}()
	return p.w.processShard(ctx, shard)
}

// processShard makes at most one delivery attempt for the oldest pending
// message of shard while holding the shard lock. A shard whose lock is taken
// is skipped without waiting.
//
// Once started, processing is detached from ctx cancellation so an in-flight
// attempt is always recorded; it is bounded by the unit timeout instead.
func (w *Worker) processShard(ctx context.Context, shard ShardID) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.unitTimeout)
	defer cancel()

	name := shard.LockName()

	held, err := w.locker.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedToLockShard, shard, err)
	}
	if held {
		w.logger.DebugContext(ctx, "shard lock already held, skipping", logger.ShardID(shard))
		return nil
	}

	lock, ok, err := w.locker.TryAcquire(ctx, name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedToLockShard, shard, err)
	}
	if !ok {
		w.logger.DebugContext(ctx, "shard lock taken by another consumer, skipping", logger.ShardID(shard))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			w.logger.WarnContext(ctx, "failed to release shard lock",
				logger.ShardID(shard), logger.Error(err))
		}
	}()

	return w.processInsideLock(ctx, shard)
}

func (w *Worker) processInsideLock(ctx context.Context, shard ShardID) error {
	msg, err := w.repo.OldestPending(ctx, shard)
	if errors.Is(err, ErrMessageNotFound) {
		w.logger.DebugContext(ctx, "no pending message for shard", logger.ShardID(shard))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w for shard %s: %w", ErrFailedToLoadMessage, shard, err)
	}

	now := w.now()
	if !w.policy.Eligible(msg, now) {
		w.logger.InfoContext(ctx, "skipping message inside backoff window",
			logger.MessageID(msg.ID),
			logger.ShardID(shard),
			slog.Time("next_retry", w.policy.NextRetry(msg.LastFailedAt, msg.ProcessedCount, now)))
		return nil
	}

	return w.deliver(ctx, msg)
}

// deliver posts msg and records the outcome. A panic during the call is
// recorded as an errored attempt before it propagates.
func (w *Worker) deliver(ctx context.Context, msg *Message) (err error) {
	recorded := false
	defer func() {
		if r := recover(); r != nil {
			if !recorded {
				_ = w.recordAttempt(ctx, msg, nil, fmt.Errorf("panic during delivery: %v", r))
			}
			panic(r)
		}
	}()

	resp, sendErr := w.post(ctx, msg)
	recorded = true
	return w.recordAttempt(ctx, msg, resp, sendErr)
}

func (w *Worker) post(ctx context.Context, msg *Message) (*webhook.Response, error) {
	headers, err := DecodeHeaders(msg.Headers)
	if err != nil {
		return nil, err
	}

	w.logger.InfoContext(ctx, "processing message",
		logger.MessageID(msg.ID),
		logger.ShardID(msg.ShardID),
		slog.Any("headers", RedactAuthorization(headers)))

	opts := make([]webhook.SendOption, 0, len(w.sendOptions)+1)
	opts = append(opts, w.sendOptions...)
	opts = append(opts, webhook.WithDeliveryID(strconv.FormatInt(msg.ID, 10)))

	resp, err := w.client.Post(ctx, w.endpoint, msg.Body, OutboundHeaders(headers), opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("delivery client returned no response")
	}

	w.logger.InfoContext(ctx, "got response",
		logger.MessageID(msg.ID),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(resp.Duration),
		slog.Any("headers", RedactHTTPHeader(resp.Header)))

	return resp, nil
}

// recordAttempt applies exactly one of the success, failure or error
// transitions to msg and persists it
func (w *Worker) recordAttempt(ctx context.Context, msg *Message, resp *webhook.Response, sendErr error) error {
	now := w.now()
	msg.ProcessedCount++
	msg.ProcessedAt = &now

	decider := NewSendingDecider(msg, w.ceiling)
	outcome := "success"

	switch {
	case sendErr != nil:
		outcome = "error"
		detail := sendErr.Error()
		msg.LastFailedAt = &now
		msg.LastFailedMessage = &detail
		w.logger.ErrorContext(ctx, "network related error has occurred",
			logger.MessageID(msg.ID),
			logger.ShardID(msg.ShardID),
			logger.Error(sendErr))
	case resp.Success():
		code, body := resp.StatusCode, string(resp.Body)
		msg.SucceededAt = &now
		msg.LastFailedAt = nil
		msg.ResponseCode = &code
		msg.ResponseBody = &body
		decider.MarkSucceeded()
	default:
		outcome = "failure"
		code, body := resp.StatusCode, string(resp.Body)
		msg.LastFailedAt = &now
		msg.ResponseCode = &code
		msg.ResponseBody = &body
	}

	msg.NeedsSending = decider.NeedsSending()

	if err := w.repo.SaveAttempt(ctx, msg); err != nil {
		return fmt.Errorf("%w for message %d: %w", ErrFailedToSaveAttempt, msg.ID, err)
	}

	w.logger.InfoContext(ctx, "delivery attempt recorded",
		logger.MessageID(msg.ID),
		logger.ShardID(msg.ShardID),
		slog.String("outcome", outcome),
		slog.Int("processed_count", msg.ProcessedCount),
		slog.Bool("needs_sending", msg.NeedsSending))

	return nil
}
