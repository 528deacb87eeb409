// Package events turns raw Slack inner events into canonical bus
// messages: deduplication, subtype filtering, identity resolution, and
// mention tag extraction.
package events

import (
	"context"
	"fmt"

	"github.com/slackbridge/slackbridge/internal/bus"
	"github.com/slackbridge/slackbridge/internal/directory"
)

// Inner event types that carry user-relevant messages. Everything else,
// and any event with a subtype (channel joins, edits, bot housekeeping),
// is a system event and is dropped.
const (
	typeMessage    = "message"
	typeAppMention = "app_mention"
)

// Normalizer assembles canonical messages from raw inner events,
// resolving author and channel identity through the directory.
type Normalizer struct {
	dir *directory.Directory
}

// NewNormalizer creates a Normalizer backed by dir.
func NewNormalizer(dir *directory.Directory) *Normalizer {
	return &Normalizer{dir: dir}
}

// EventID returns the platform's per-event identity used for
// deduplication, or "" if the event does not carry one.
func EventID(event map[string]any) string {
	ts, _ := event["ts"].(string)
	return ts
}

// Qualifies reports whether the inner event is a user-relevant message.
func Qualifies(event map[string]any) bool {
	t, _ := event["type"].(string)
	if t != typeMessage && t != typeAppMention {
		return false
	}
	if subtype, _ := event["subtype"].(string); subtype != "" {
		return false
	}
	return true
}

// Normalize converts a qualifying inner event into a canonical Message.
// Non-qualifying events return (nil, nil) and are silently dropped.
// The raw event is retained as the message payload.
func (n *Normalizer) Normalize(ctx context.Context, event map[string]any) (*bus.Message, error) {
	if !Qualifies(event) {
		return nil, nil
	}

	userID, _ := event["user"].(string)
	channelID, _ := event["channel"].(string)
	text, _ := event["text"].(string)
	thread, _ := event["thread_ts"].(string)

	userName, userEmail, err := n.dir.ResolveUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}
	chanName, chanKind, err := n.dir.ResolveChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("resolve channel: %w", err)
	}

	var tags []string
	if blocks, ok := event["blocks"].([]any); ok {
		for _, id := range extractUserIDs(blocks) {
			name, _, err := n.dir.ResolveUser(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("resolve tag %s: %w", id, err)
			}
			tags = append(tags, name)
		}
	}

	return &bus.Message{
		User:        userName,
		UserEmail:   userEmail,
		UserID:      userID,
		Tags:        tags,
		Channel:     chanName,
		ChannelID:   channelID,
		ChannelType: chanKind,
		Text:        text,
		Thread:      thread,
		Payload:     event,
	}, nil
}
