// Package pg bootstraps the PostgreSQL side of hookrelay using the pgx/v5
// driver: a retrying pool constructor, goose migrations (from disk or from an
// embedded filesystem), a health check and SQLSTATE classification helpers.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// Setting PG_MIGRATIONS_PATH makes MigrateFS read migrations from that
// directory instead of the embedded set.
//
// # Configuration
//
// Config is populated from PG_* environment variables; see the field tags for
// names and defaults. PG_CONN_URL is required.
//
// # Error Handling
//
// [IsNotFoundError], [IsDuplicateKeyError] and [IsInternalError] unwrap pgx
// and *pgconn.PgError values. Internal errors (SQLSTATE class XX) signal a
// corrupted or broken database and are treated as fatal by the message store.
package pg
