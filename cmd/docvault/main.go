package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"docvault/cmd/docvault/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

// @title                      DocVault API
// @version                    1.0
// @description                Document storage with presigned uploads, versioning and sharing.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	info := cli.VersionInfo{Version: version, Commit: commit}
	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))
	root.AddCommand(cli.NewServeCommand())
	root.AddCommand(cli.NewMigrateCommand())
	root.AddCommand(cli.NewSweepCommand())
	root.AddCommand(cli.NewConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
