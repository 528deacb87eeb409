package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	slackgo "github.com/slack-go/slack"
)

// PresenceStatus is a presence value the bridge can apply.
type PresenceStatus string

const (
	PresenceActive PresenceStatus = "active"
	PresenceAway   PresenceStatus = "away"
)

// apiValue maps onto Slack's users.setPresence vocabulary.
func (p PresenceStatus) apiValue() string {
	if p == PresenceAway {
		return "away"
	}
	return "auto"
}

// ClientFactory creates a fresh short-lived API client for one task.
// The main connection's client is bound to the worker that owns it, so
// side-channel tasks never share it.
type ClientFactory func() Commander

// SideChannel runs one-shot commands (reaction add, presence set) on a
// bounded worker pool, each task with its own client and timeout.
// Tasks are fire-and-forget: failures are logged, never returned, never
// retried.
type SideChannel struct {
	newClient ClientFactory
	timeout   time.Duration
	slots     chan struct{}
	wg        sync.WaitGroup
}

// NewSideChannel creates a SideChannel with at most maxConcurrent tasks
// in flight and the given per-task timeout.
func NewSideChannel(maxConcurrent int, timeout time.Duration, factory ClientFactory) *SideChannel {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SideChannel{
		newClient: factory,
		timeout:   timeout,
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// AddReaction applies an emoji reaction to the message identified by
// channel and timestamp.
func (s *SideChannel) AddReaction(channelID, emoji, timestamp string) {
	s.submit("add_reaction", func(ctx context.Context, c Commander) error {
		return c.AddReactionContext(ctx, emoji, slackgo.ItemRef{
			Channel:   channelID,
			Timestamp: timestamp,
		})
	})
}

// SetPresence applies a presence status for the bot.
func (s *SideChannel) SetPresence(status PresenceStatus) {
	s.submit("set_presence", func(ctx context.Context, c Commander) error {
		return c.SetUserPresenceContext(ctx, status.apiValue())
	})
}

// submit schedules one task on the pool. The slot is held for the whole
// task so the pool bound covers client construction and the API call;
// the context deadline covers every exit path.
func (s *SideChannel) submit(op string, fn func(ctx context.Context, c Commander) error) {
	job := uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.slots <- struct{}{}
		defer func() { <-s.slots }()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := fn(ctx, s.newClient()); err != nil {
			slog.Warn("side-channel: operation failed", "op", op, "job", job, "err", err)
			return
		}
		slog.Debug("side-channel: operation done", "op", op, "job", job)
	}()
}

// Flush blocks until every submitted task has finished.
func (s *SideChannel) Flush() { s.wg.Wait() }
