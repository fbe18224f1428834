package relay

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/hookrelay/pkg/webhook"
)

// DefaultUnitTimeout bounds one shard unit when no timeout is configured
const DefaultUnitTimeout = 2 * time.Minute

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
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
}

func defaultWorkerOptions() *workerOptions {
	return &workerOptions{
		threads:     10,
		sleepDelay:  time.Second,
		errorDelay:  time.Second,
		unitTimeout: DefaultUnitTimeout,
		policy: RetryPolicy{
			FailureDelay: 10 * time.Second,
			ExponentBase: 2,
		},
		ceiling: Unlimited,
		enabled: alwaysEnabled{},
		logger:  slog.Default(),
		now:     time.Now,
	}
}

// WithEndpoint sets the URL every message is posted to
func WithEndpoint(url string) WorkerOption {
	return func(o *workerOptions) {
		o.endpoint = url
	}
}

// WithThreadCount sets the number of consumers and the capacity of the shard queue
func WithThreadCount(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.threads = n
		}
	}
}

// WithSleepDelay sets the pause between production cycles
func WithSleepDelay(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d >= 0 {
			o.sleepDelay = d
		}
	}
}

// WithErrorDelay sets the pause after a failed production cycle
func WithErrorDelay(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d >= 0 {
			o.errorDelay = d
		}
	}
}

// WithUnitTimeout bounds the processing of one shard, delivery included.
// Shard processing keeps running after shutdown is requested until it finishes
// or this timeout expires.
func WithUnitTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.unitTimeout = d
		}
	}
}

// WithRetryPolicy sets the backoff applied after failed attempts
func WithRetryPolicy(p RetryPolicy) WorkerOption {
	return func(o *workerOptions) {
		o.policy = p
	}
}

// WithRetryCeiling sets the maximum number of attempts per message
func WithRetryCeiling(c RetryCeiling) WorkerOption {
	return func(o *workerOptions) {
		o.ceiling = c
	}
}

// WithSwitch sets the runtime switch consulted before every production cycle
func WithSwitch(s Switch) WorkerOption {
	return func(o *workerOptions) {
		if s != nil {
			o.enabled = s
		}
	}
}

// WithSendOptions adds options passed to every delivery request
func WithSendOptions(opts ...webhook.SendOption) WorkerOption {
	return func(o *workerOptions) {
		o.sendOptions = append(o.sendOptions, opts...)
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for eligibility and attempt timestamps
func WithClock(now func() time.Time) WorkerOption {
	return func(o *workerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
