package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies embedded SQL migrations via goose using the dialect
// of databaseURL. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, databaseURL string) error {
	if database == nil {
		return nil
	}
	return withGoose(databaseURL, func() error {
		return goose.UpContext(ctx, database, "migrations")
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, database *sql.DB, databaseURL string) error {
	return withGoose(databaseURL, func() error {
		return goose.DownContext(ctx, database, "migrations")
	})
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, database *sql.DB, databaseURL string) error {
	return withGoose(databaseURL, func() error {
		return goose.StatusContext(ctx, database, "migrations")
	})
}

func withGoose(databaseURL string, fn func() error) error {
	target, err := Resolve(databaseURL)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(target.Dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", target.Dialect, err)
	}
	return fn()
}
