package relay

import (
	"bytes"
	"encoding/json"
	"time"
)

// LockNamePrefix is prepended to a shard value to form its shard lock name.
const LockNamePrefix = "message-"

// ShardID identifies a partition of messages.
// The zero value (Valid == false) is the null shard, which is a partition of its own.
type ShardID struct {
	Value string
	Valid bool
}

// Shard returns a non-null shard identifier.
func Shard(value string) ShardID {
	return ShardID{Value: value, Valid: true}
}

// NullShard returns the identifier of the null shard.
func NullShard() ShardID {
	return ShardID{}
}

// String returns the shard value, or "<null>" for the null shard.
func (s ShardID) String() string {
	if !s.Valid {
		return "<null>"
	}
	return s.Value
}

// LockName returns the name of the shard lock guarding this shard.
// The null shard shares the lock name of the empty shard value.
func (s ShardID) LockName() string {
	return LockNamePrefix + s.Value
}

// MarshalJSON encodes the null shard as JSON null and others as a string.
func (s ShardID) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ShardID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = NullShard()
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Shard(v)
	return nil
}

// Message is a persisted webhook awaiting (re)delivery.
type Message struct {
	ID                int64      `json:"id"`
	ShardID           ShardID    `json:"shard_id"`
	Body              []byte     `json:"body,omitempty"`
	Headers           []byte     `json:"headers,omitempty"`
	NeedsSending      bool       `json:"needs_sending"`
	ProcessedCount    int        `json:"processed_count"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	LastFailedAt      *time.Time `json:"last_failed_at,omitempty"`
	SucceededAt       *time.Time `json:"succeeded_at,omitempty"`
	ResponseCode      *int       `json:"response_code,omitempty"`
	ResponseBody      *string    `json:"response_body,omitempty"`
	LastFailedMessage *string    `json:"last_failed_message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Clone returns a copy of the message that shares no pointers with the original.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Body = cloneBytes(m.Body)
	c.Headers = cloneBytes(m.Headers)
	c.ProcessedAt = clonePtr(m.ProcessedAt)
	c.LastFailedAt = clonePtr(m.LastFailedAt)
	c.SucceededAt = clonePtr(m.SucceededAt)
	c.ResponseCode = clonePtr(m.ResponseCode)
	c.ResponseBody = clonePtr(m.ResponseBody)
	c.LastFailedMessage = clonePtr(m.LastFailedMessage)
	return &c
}

// PendingRef is a lightweight projection of a pending message used by shard scans.
type PendingRef struct {
	ID      int64
	ShardID ShardID
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
