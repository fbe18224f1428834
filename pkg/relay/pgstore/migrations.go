package pgstore

import "embed"

// MigrationsDir is the directory inside Migrations holding the goose files.
const MigrationsDir = "migrations"

// Migrations holds the schema of the messages and runtime_settings tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS
