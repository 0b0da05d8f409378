package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/logger"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				log.Error("database_connect_failed", zap.Error(err))
				return err
			}
			defer db.Close()

			return migration.EnsureMigrated(cmd.Context(), db, log, cfg.Database.Host)
		},
	}
}
