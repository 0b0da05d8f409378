package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docvault/internal/config"
)

// VersionInfo is stamped at build time through -ldflags.
type VersionInfo struct {
	Version string
	Commit  string
}

const configFlag = "config"

func NewRootCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docvault",
		Short:         "DocVault document storage service",
		Long:          "DocVault stores documents in S3-compatible object storage with presigned uploads, gapless versioning and share links.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().String(configFlag, "", "config file (YAML); environment variables take precedence")
	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

// loadConfig reads the --config file (if any) plus the environment and validates the result.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString(configFlag)
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
