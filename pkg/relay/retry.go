package relay

import (
	"math"
	"time"
)

// RetryPolicy describes the exponential backoff applied after failed delivery attempts.
// It is a pure value and safe for concurrent use.
type RetryPolicy struct {
	// FailureDelay is the base delay after the first failure.
	FailureDelay time.Duration
	// ExponentBase is raised to (attempts - 1). Values <= 1 give a constant delay.
	ExponentBase float64
	// MaxDelay caps the computed delay. Zero or negative means uncapped.
	MaxDelay time.Duration
	// MaxExponent caps the attempt count used as exponent. Zero or negative means uncapped.
	MaxExponent int
}

// Delay returns the backoff window for a message that has been attempted processedCount times.
// Formula: min(MaxDelay, FailureDelay * max(1, ExponentBase ^ max(0, min(processedCount, MaxExponent) - 1)))
func (p RetryPolicy) Delay(processedCount int) time.Duration {
	exponent := processedCount
	if p.MaxExponent > 0 && p.MaxExponent < exponent {
		exponent = p.MaxExponent
	}
	exponent--
	if exponent < 0 {
		exponent = 0
	}

	multiplier := math.Pow(p.ExponentBase, float64(exponent))
	if math.IsNaN(multiplier) || multiplier < 1 {
		multiplier = 1
	}

	delay := float64(p.FailureDelay) * multiplier
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	// Saturate instead of wrapping when neither cap is configured
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// NextRetry returns the earliest time a message may be attempted again.
// Messages that never failed are eligible immediately and get now back.
func (p RetryPolicy) NextRetry(lastFailedAt *time.Time, processedCount int, now time.Time) time.Time {
	if lastFailedAt == nil {
		return now
	}
	return lastFailedAt.Add(p.Delay(processedCount))
}

// Eligible reports whether msg is outside its backoff window at now.
func (p RetryPolicy) Eligible(msg *Message, now time.Time) bool {
	if msg == nil {
		return false
	}
	if msg.LastFailedAt == nil {
		return true
	}
	return !now.Before(p.NextRetry(msg.LastFailedAt, msg.ProcessedCount, now))
}
