// Package presence flips the bot's presence status on a cron schedule.
//
// Each rule fires through the session's side channel, so a stuck
// presence call can never block the main worker loop.
package presence

import (
	"context"
	"fmt"
	"log/slog"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/slackbridge/slackbridge/internal/config"
	"github.com/slackbridge/slackbridge/internal/session"
)

// Applier applies one presence status; the session manager's
// PublishPresence satisfies it.
type Applier func(status session.PresenceStatus)

// Scheduler arms one cron entry per configured rule.
type Scheduler struct {
	rules []config.PresenceRule
	apply Applier
	cron  *robfigcron.Cron
}

// NewScheduler creates a Scheduler for the given rules.
// Expressions use the 6-field form with a leading seconds column.
func NewScheduler(rules []config.PresenceRule, apply Applier) *Scheduler {
	return &Scheduler{
		rules: rules,
		apply: apply,
		cron:  robfigcron.New(robfigcron.WithSeconds()),
	}
}

// Start validates and arms every rule, then blocks until ctx is
// cancelled. A rule with an unparsable expression fails Start.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, rule := range s.rules {
		status := session.PresenceStatus(rule.Status)
		expr := rule.Cron
		_, err := s.cron.AddFunc(expr, func() {
			slog.Info("presence: schedule fired", "cron", expr, "status", status)
			s.apply(status)
		})
		if err != nil {
			return fmt.Errorf("presence schedule %q: %w", expr, err)
		}
	}

	if len(s.rules) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	s.cron.Start()
	slog.Info("presence: schedule armed", "rules", len(s.rules))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}
