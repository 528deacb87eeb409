package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/slackbridge/slackbridge/internal/config"
	"github.com/slackbridge/slackbridge/internal/dependency"
	"github.com/slackbridge/slackbridge/internal/presence"
)

var (
	runConfigPath string
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the slackbridge session",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Config file path (default ~/.slackbridge/config.yaml)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Verbose logging")
}

func runRun(_ *cobra.Command, _ []string) error {
	if runVerbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Load(runConfigPath)
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

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	mgr := c.Manager()
	sub := mgr.Subscribe()
	if err := mgr.Start(gctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer mgr.Stop()

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batch := <-sub:
				for _, msg := range batch {
					slog.Info("inbound message",
						"channel", msg.Channel,
						"kind", msg.ChannelType,
						"user", msg.User,
						"text", msg.Preview(),
						"tags", msg.Tags)
				}
			}
		}
	})

	sched := presence.NewScheduler(cfg.Presence.Schedule, mgr.PublishPresence)
	g.Go(func() error { return sched.Start(gctx) })

	fmt.Println("slackbridge running. Press Ctrl+C to stop.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "session error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
