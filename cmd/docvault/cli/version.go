package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docvault %s (%s)\n", info.Version, info.Commit)
		},
	}
}
