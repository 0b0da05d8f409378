package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/metrics"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove one batch of abandoned pending uploads and exit",
		Long: `Remove pending documents whose upload URL expired more than sweeper_grace ago.

Useful from cron when the in-process sweeper is disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			sweeper := service.NewSweeper(postgres.NewDocumentPostgres(rt.db), rt.store, rt.log, metrics.NewNop(), cfg.Upload.URLTTL, cfg.Sweeper)
			n, err := sweeper.SweepOnce(cmd.Context())
			if err != nil {
				rt.log.Error("sweep_list_failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d pending document(s)\n", n)
			return nil
		},
	}
}
