package relay

import "time"

// Producer strategy names accepted by NewProducer
const (
	ProducerIterative         = "iterative"
	ProducerUnprocessedShards = "unprocessed_shards"
)

// Config holds the delivery engine configuration
type Config struct {
	ThreadCount         int           `env:"RELAY_THREAD_COUNT" envDefault:"10"`
	SleepDelay          time.Duration `env:"RELAY_SLEEP_DELAY" envDefault:"1s"`
	NoWorkDelay         time.Duration `env:"RELAY_NO_WORK_DELAY" envDefault:"1s"`
	ErrorDelay          time.Duration `env:"RELAY_ERROR_DELAY" envDefault:"1s"`
	UnitTimeout         time.Duration `env:"RELAY_UNIT_TIMEOUT" envDefault:"2m"`
	FailureDelay        time.Duration `env:"RELAY_FAILURE_DELAY" envDefault:"10s"`
	FailureExponentBase float64       `env:"RELAY_FAILURE_EXPONENT_BASE" envDefault:"2"`
	MaxFailureDelay     time.Duration `env:"RELAY_MAX_FAILURE_DELAY"`
	MaxExponentValue    int           `env:"RELAY_MAX_EXPONENT_VALUE"`
	MaxNumberOfRetries  RetryCeiling  `env:"RELAY_MAX_NUMBER_OF_RETRIES" envDefault:"-1"`
	Producer            string        `env:"RELAY_PRODUCER" envDefault:"iterative"`
	IterativeBatchSize  int           `env:"RELAY_ITERATIVE_BATCH_SIZE" envDefault:"1000"`
}

// RetryPolicy returns the backoff policy described by the configuration
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		FailureDelay: c.FailureDelay,
		ExponentBase: c.FailureExponentBase,
		MaxDelay:     c.MaxFailureDelay,
		MaxExponent:  c.MaxExponentValue,
	}
}

// WorkerOptions translates the configuration into worker options
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithThreadCount(c.ThreadCount),
		WithSleepDelay(c.SleepDelay),
		WithErrorDelay(c.ErrorDelay),
		WithUnitTimeout(c.UnitTimeout),
		WithRetryPolicy(c.RetryPolicy()),
		WithRetryCeiling(c.MaxNumberOfRetries),
	}
}

// ProducerOptions translates the configuration into producer options
func (c Config) ProducerOptions() []ProducerOption {
	return []ProducerOption{
		WithNoWorkDelay(c.NoWorkDelay),
		WithBatchSize(c.IterativeBatchSize),
	}
}
