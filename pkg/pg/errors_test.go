package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/hookrelay/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	wrap := func(code string) error {
		return fmt.Errorf("query failed: %w", &pgconn.PgError{Code: code})
	}

	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
		internal  bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "no rows", err: fmt.Errorf("load: %w", pgx.ErrNoRows), notFound: true},
		{name: "unique violation", err: wrap("23505"), duplicate: true},
		{name: "foreign key violation", err: wrap("23503")},
		{name: "internal error", err: wrap("XX000"), internal: true},
		{name: "data corrupted", err: wrap("XX001"), internal: true},
		{name: "index corrupted", err: wrap("XX002"), internal: true},
		{name: "connection failure", err: wrap("08006")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.notFound, pg.IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, pg.IsDuplicateKeyError(tt.err))
			assert.Equal(t, tt.internal, pg.IsInternalError(tt.err))
		})
	}
}
