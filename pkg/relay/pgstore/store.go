package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/hookrelay/pkg/pg"
	"github.com/dmitrymomot/hookrelay/pkg/relay"
)

// DB is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements relay.Store on the messages table
type Store struct {
	db DB
}

var _ relay.Store = (*Store)(nil)

// New creates a PostgreSQL message store
func New(db DB) *Store {
	return &Store{db: db}
}

const messageColumns = `id, shard_id, body, headers, needs_sending, processed_count,
	processed_at, last_failed_at, succeeded_at, response_code, response_body,
	last_failed_message, created_at, updated_at`

// CreateMessage inserts msg as a pending message and fills in its ID and
// timestamps. A non-zero msg.ID is inserted as given.
func (s *Store) CreateMessage(ctx context.Context, msg *relay.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	headers := msg.Headers
	if len(headers) == 0 {
		headers = []byte("{}")
	}
	body := msg.Body
	if body == nil {
		body = []byte{}
	}

	const insertWithID = `
		INSERT INTO messages (id, shard_id, body, headers, needs_sending)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	const insert = `
		INSERT INTO messages (shard_id, body, headers, needs_sending)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	var row pgx.Row
	if msg.ID != 0 {
		row = s.db.QueryRow(ctx, insertWithID, msg.ID, shardParam(msg.ShardID), body, string(headers), msg.NeedsSending)
	} else {
		row = s.db.QueryRow(ctx, insert, shardParam(msg.ShardID), body, string(headers), msg.NeedsSending)
	}

	if err := row.Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("message with ID %d already exists: %w", msg.ID, err)
		}
		return classify("create message", err)
	}
	return nil
}

// Message loads a message by ID
func (s *Store) Message(ctx context.Context, id int64) (*relay.Message, error) {
	row := s.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	msg, err := scanMessage(row)
	if pg.IsNotFoundError(err) {
		return nil, relay.ErrMessageNotFound
	}
	if err != nil {
		return nil, classify("load message", err)
	}
	return msg, nil
}

// CountPending implements relay.MessageRepository
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM messages WHERE needs_sending`).Scan(&n); err != nil {
		return 0, classify("count pending", err)
	}
	return n, nil
}

// OldestPending implements relay.MessageRepository
func (s *Store) OldestPending(ctx context.Context, shard relay.ShardID) (*relay.Message, error) {
	var row pgx.Row
	if shard.Valid {
		row = s.db.QueryRow(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE needs_sending AND shard_id = $1
			ORDER BY id
			LIMIT 1`, shard.Value)
	} else {
		row = s.db.QueryRow(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE needs_sending AND shard_id IS NULL
			ORDER BY id
			LIMIT 1`)
	}

	msg, err := scanMessage(row)
	if pg.IsNotFoundError(err) {
		return nil, relay.ErrMessageNotFound
	}
	if err != nil {
		return nil, classify("load oldest pending", err)
	}
	return msg, nil
}

// SaveAttempt implements relay.MessageRepository. Only the delivery columns
// of the single row are written.
func (s *Store) SaveAttempt(ctx context.Context, msg *relay.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE messages SET
			needs_sending = $2,
			processed_count = $3,
			processed_at = $4,
			last_failed_at = $5,
			succeeded_at = $6,
			response_code = $7,
			response_body = $8,
			last_failed_message = $9,
			updated_at = NOW()
		WHERE id = $1`,
		msg.ID,
		msg.NeedsSending,
		msg.ProcessedCount,
		msg.ProcessedAt,
		msg.LastFailedAt,
		msg.SucceededAt,
		msg.ResponseCode,
		sanitizeText(msg.ResponseBody),
		sanitizeText(msg.LastFailedMessage),
	)
	if err != nil {
		return classify("save attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %d: %w", msg.ID, relay.ErrMessageNotFound)
	}
	return nil
}

// NewestPendingID implements relay.ShardScanner
func (s *Store) NewestPendingID(ctx context.Context) (int64, error) {
	var id pgtype.Int8
	if err := s.db.QueryRow(ctx, `SELECT max(id) FROM messages WHERE needs_sending`).Scan(&id); err != nil {
		return 0, classify("newest pending id", err)
	}
	if !id.Valid {
		return 0, relay.ErrMessageNotFound
	}
	return id.Int64, nil
}

// ScanPending implements relay.ShardScanner
func (s *Store) ScanPending(ctx context.Context, afterID, maxID int64, limit int) ([]relay.PendingRef, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, shard_id FROM messages
		WHERE needs_sending AND id > $1 AND id <= $2
		ORDER BY id
		LIMIT $3`, afterID, maxID, limit)
	if err != nil {
		return nil, classify("scan pending", err)
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (relay.PendingRef, error) {
		var (
			ref   relay.PendingRef
			shard pgtype.Text
		)
		if err := row.Scan(&ref.ID, &shard); err != nil {
			return ref, err
		}
		ref.ShardID = shardFromText(shard)
		return ref, nil
	})
	if err != nil {
		return nil, classify("scan pending", err)
	}
	return refs, nil
}

// EligibleShards implements relay.EligibleShardFinder.
//
// The query returns the oldest pending message of every shard that could be
// out of its backoff window, ordered never-failed first and then by
// last_failed_at. The exact window is then checked with policy, which keeps
// the backoff formula in one place.
func (s *Store) EligibleShards(ctx context.Context, policy relay.RetryPolicy, now time.Time) ([]relay.ShardID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shard_id, processed_count, last_failed_at FROM (
			SELECT DISTINCT ON (shard_id) id, shard_id, processed_count, last_failed_at
			FROM messages
			WHERE needs_sending
			ORDER BY shard_id, id
		) heads
		WHERE last_failed_at IS NULL OR last_failed_at <= $1
		ORDER BY last_failed_at ASC NULLS FIRST, id`, now.Add(-minDelay(policy)))
	if err != nil {
		return nil, classify("eligible shards", err)
	}

	heads, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*relay.Message, error) {
		var (
			msg   relay.Message
			shard pgtype.Text
		)
		if err := row.Scan(&msg.ID, &shard, &msg.ProcessedCount, &msg.LastFailedAt); err != nil {
			return nil, err
		}
		msg.ShardID = shardFromText(shard)
		return &msg, nil
	})
	if err != nil {
		return nil, classify("eligible shards", err)
	}

	shards := make([]relay.ShardID, 0, len(heads))
	for _, msg := range heads {
		if policy.Eligible(msg, now) {
			shards = append(shards, msg.ShardID)
		}
	}
	return shards, nil
}

// minDelay is the shortest backoff window policy can produce
func minDelay(policy relay.RetryPolicy) time.Duration {
	d := policy.Delay(0)
	if d < 0 {
		return 0
	}
	return d
}

func scanMessage(row pgx.Row) (*relay.Message, error) {
	var (
		msg          relay.Message
		shard        pgtype.Text
		responseCode pgtype.Int4
	)
	err := row.Scan(
		&msg.ID,
		&shard,
		&msg.Body,
		&msg.Headers,
		&msg.NeedsSending,
		&msg.ProcessedCount,
		&msg.ProcessedAt,
		&msg.LastFailedAt,
		&msg.SucceededAt,
		&responseCode,
		&msg.ResponseBody,
		&msg.LastFailedMessage,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	msg.ShardID = shardFromText(shard)
	if responseCode.Valid {
		code := int(responseCode.Int32)
		msg.ResponseCode = &code
	}
	return &msg, nil
}

func shardParam(shard relay.ShardID) pgtype.Text {
	return pgtype.Text{String: shard.Value, Valid: shard.Valid}
}

func shardFromText(t pgtype.Text) relay.ShardID {
	if !t.Valid {
		return relay.NullShard()
	}
	return relay.Shard(t.String)
}

// sanitizeText makes s storable in a TEXT column, which rejects NUL bytes
// and invalid UTF-8
func sanitizeText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := strings.ToValidUTF8(*s, "\uFFFD")
	clean = strings.ReplaceAll(clean, "\x00", "")
	return &clean
}

// classify tags storage errors for the worker. Internal database errors are
// fatal; everything else, including lost connections, is recoverable.
func classify(op string, err error) error {
	if pg.IsInternalError(err) {
		return relay.Fatal(op, err)
	}
	return relay.Recoverable(op, err)
}
