// Package cmd implements the slackbridge CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "slackbridge",
	Short: "Bridge a Slack workspace onto a message bus",
	Long:  "slackbridge maintains a persistent Slack connection and bridges messages, reactions, and presence between the workspace and an application message bus.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presenceCmd)
	rootCmd.AddCommand(statusCmd)
}
