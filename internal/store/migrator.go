package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// Migrator applies the persisted schema on start-up. GooseMigrator below is
// the goose-backed implementation; cmd/kromerd constructs it and calls
// Migrate once.
type Migrator interface {
	Migrate(ctx context.Context) error
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// GooseMigrator runs the embedded SQL migrations against a *sql.DB opened
// through the pgx stdlib driver (the same underlying connection the
// pgxpool.Pool uses).
type GooseMigrator struct {
	DB *sql.DB
}

func (g *GooseMigrator) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, g.DB, "migrations")
}
