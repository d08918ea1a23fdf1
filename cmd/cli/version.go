package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	v "github.com/keshon/dsda-bot/internal/version"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of dsda-cli.",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\nCommit: %s\nOS/Arch: %s/%s\n",
			v.AppName, v.Version, v.GitCommit, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
