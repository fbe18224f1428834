package logger

import (
	"fmt"
	"log/slog"
)

// Error records err under the key "error". A nil err yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem that produced the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// WorkerID records the identifier of a relay worker process.
func WorkerID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("worker_id", id.String())
}

// ConsumerID records the consumer slot under the key "consumer_id".
func ConsumerID(id int) slog.Attr {
	return slog.Int("consumer_id", id)
}

// ShardID records the shard identifier under the key "shard_id".
func ShardID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("shard_id", id.String())
}

// MessageID records the message identifier under the key "message_id".
// If id is nil, it returns an empty Attr.
func MessageID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("message_id", id)
}

// StatusCode records an HTTP status code under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
