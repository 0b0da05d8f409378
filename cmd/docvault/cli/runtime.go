package cli

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/logger"
	"docvault/internal/storage"
)

// runtime holds the process-wide dependencies shared by serve and sweep.
type runtime struct {
	cfg   *config.AppConfig
	log   *zap.Logger
	db    *sql.DB
	store *storage.MinIO
}

func newRuntime(ctx context.Context, cfg *config.AppConfig) (*runtime, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Error("database_connect_failed", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		_ = db.Close()
		log.Error("storage_init_failed", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	return &runtime{cfg: cfg, log: log, db: db, store: store}, nil
}

func (r *runtime) Close() {
	if err := r.db.Close(); err != nil {
		r.log.Warn("database_close_failed", zap.Error(err))
	}
	_ = r.log.Sync()
}
