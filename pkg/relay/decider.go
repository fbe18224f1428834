package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// Unlimited is the RetryCeiling value that never stops redelivery.
const Unlimited RetryCeiling = -1

// RetryCeiling is the maximum number of delivery attempts for a message.
// Negative values mean unlimited.
type RetryCeiling int

// Limited reports whether the ceiling bounds the number of attempts.
func (c RetryCeiling) Limited() bool {
	return c >= 0
}

// UnmarshalText parses a ceiling from configuration. Blank and negative values mean unlimited.
func (c *RetryCeiling) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*c = Unlimited
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid retry ceiling %q: %w", s, err)
	}
	if n < 0 {
		n = int(Unlimited)
	}
	*c = RetryCeiling(n)
	return nil
}

// String returns "unlimited" or the ceiling value.
func (c RetryCeiling) String() string {
	if !c.Limited() {
		return "unlimited"
	}
	return strconv.Itoa(int(c))
}

// SendingDecider decides whether a message still needs delivery after one attempt.
// A decider wraps a single message for a single attempt and is not safe for concurrent use.
type SendingDecider struct {
	msg       *Message
	ceiling   RetryCeiling
	succeeded bool
}

// NewSendingDecider returns a decider for msg bounded by ceiling.
func NewSendingDecider(msg *Message, ceiling RetryCeiling) *SendingDecider {
	return &SendingDecider{msg: msg, ceiling: ceiling}
}

// MarkSucceeded records that the current attempt delivered the message.
func (d *SendingDecider) MarkSucceeded() {
	d.succeeded = true
}

// NeedsSending reports whether the message must be attempted again.
// The message's ProcessedCount must already include the current attempt.
func (d *SendingDecider) NeedsSending() bool {
	if d.msg == nil {
		return false
	}
	if d.ceiling.Limited() && d.msg.ProcessedCount >= int(d.ceiling) {
		return false
	}
	if d.succeeded {
		return false
	}
	return d.msg.NeedsSending
}
