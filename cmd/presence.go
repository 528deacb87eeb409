package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slackbridge/slackbridge/internal/config"
	"github.com/slackbridge/slackbridge/internal/dependency"
	"github.com/slackbridge/slackbridge/internal/session"
)

var presenceConfigPath string

var presenceCmd = &cobra.Command{
	Use:   "presence <active|away>",
	Short: "Set the bot's presence status once and exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresence,
}

func init() {
	presenceCmd.Flags().StringVarP(&presenceConfigPath, "config", "c", "", "Config file path (default ~/.slackbridge/config.yaml)")
}

func runPresence(_ *cobra.Command, args []string) error {
	status := session.PresenceStatus(args[0])
	if status != session.PresenceActive && status != session.PresenceAway {
		return fmt.Errorf("unknown presence status %q (want active or away)", args[0])
	}

	cfg, err := config.Load(presenceConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	side := c.SideChannel()
	side.SetPresence(status)
	side.Flush()

	fmt.Printf("Presence set to %s.\n", status)
	return nil
}
