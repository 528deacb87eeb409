package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slackbridge/slackbridge/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show slackbridge configuration status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Println("slackbridge status")
	fmt.Println()

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:      %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Bot token:   %s\n", tokenMark(cfg.Slack.BotToken))
	fmt.Printf("App token:   %s\n", tokenMark(cfg.Slack.AppToken))
	fmt.Printf("Queue size:  %d\n", cfg.Session.QueueSize)
	fmt.Printf("Poll every:  %s\n", cfg.Session.PollInterval)
	if n := len(cfg.Presence.Schedule); n > 0 {
		fmt.Printf("Presence:    %d scheduled rule(s)\n", n)
	}
	return nil
}

func tokenMark(token string) string {
	if token == "" {
		return "✗ not set"
	}
	return "✓ set"
}
