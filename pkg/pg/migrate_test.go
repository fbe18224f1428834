package pg_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/hookrelay/pkg/pg"
)

func TestMigrate_PathValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no path", func(t *testing.T) {
		t.Parallel()

		err := pg.Migrate(ctx, nil, pg.Config{}, nil)
		assert.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)
		assert.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		cfg := pg.Config{MigrationsPath: filepath.Join(t.TempDir(), "absent")}
		assert.ErrorIs(t, pg.Migrate(ctx, nil, cfg, nil), pg.ErrMigrationsDirNotFound)
	})

	t.Run("embedded set without directory", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, pg.MigrateFS(ctx, nil, nil, "migrations", pg.Config{}, nil), pg.ErrMigrationPathNotProvided)
		assert.ErrorIs(t, pg.MigrateFS(ctx, nil, fstest.MapFS{}, "migrations", pg.Config{}, nil), pg.ErrMigrationsDirNotFound)
	})

	t.Run("disk path wins over embedded set", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"migrations/00001_init.sql": &fstest.MapFile{Data: []byte("-- +goose Up\n")}}
		cfg := pg.Config{MigrationsPath: filepath.Join(t.TempDir(), "absent")}
		assert.ErrorIs(t, pg.MigrateFS(ctx, nil, fsys, "migrations", cfg, nil), pg.ErrMigrationsDirNotFound)
	})
}
