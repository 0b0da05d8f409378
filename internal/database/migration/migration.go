// Package migration applies the embedded goose migrations for the documents schema.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var FS embed.FS

const dir = "sql"

// EnsureMigrated applies all pending migrations. It is safe to call on every start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	goose.SetBaseFS(FS)
	goose.SetLogger(zap.NewStdLog(log))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		log.Error("db_migration_failed", zap.Error(err), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("read schema version: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		log.Error("db_migration_failed",
			zap.Int64("from_version", before),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if after == before {
		log.Info("db_migration_skip", zap.Int64("version", after), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil
	}
	log.Info("db_migration_success",
		zap.Int64("from_version", before),
		zap.Int64("to_version", after),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
