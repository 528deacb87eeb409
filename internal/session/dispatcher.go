package session

import (
	"context"
	"log/slog"

	slackgo "github.com/slack-go/slack"

	"github.com/slackbridge/slackbridge/internal/bus"
	"github.com/slackbridge/slackbridge/internal/directory"
)

// Dispatcher translates canonical outbound messages into Slack commands.
// Per-item failures are logged and the item dropped; nothing a single
// record does can stop the drain loop.
type Dispatcher struct {
	client Commander
	dir    *directory.Directory
}

// NewDispatcher creates a Dispatcher issuing commands through client.
func NewDispatcher(client Commander, dir *directory.Directory) *Dispatcher {
	return &Dispatcher{client: client, dir: dir}
}

// Dispatch issues the command a single outbound record encodes.
func (d *Dispatcher) Dispatch(ctx context.Context, msg bus.Message) {
	channelID := msg.ChannelID
	if channelID == "" {
		if msg.Channel == "" {
			slog.Warn("dispatch: record has no destination, dropping")
			return
		}
		id, err := d.dir.ResolveChannelID(ctx, msg.Channel)
		if err != nil {
			slog.Warn("dispatch: cannot resolve channel, dropping", "channel", msg.Channel, "err", err)
			return
		}
		channelID = id
	}

	switch msg.Intent() {
	case bus.IntentAddReaction:
		err := d.client.AddReactionContext(ctx, msg.Reaction, slackgo.ItemRef{
			Channel:   channelID,
			Timestamp: msg.Thread,
		})
		if err != nil {
			slog.Warn("dispatch: add reaction failed", "channel", channelID, "reaction", msg.Reaction, "err", err)
		}
	case bus.IntentSendText:
		opts := []slackgo.MsgOption{slackgo.MsgOptionText(msg.Text, false)}
		if msg.Thread != "" {
			opts = append(opts, slackgo.MsgOptionTS(msg.Thread))
		}
		if _, _, err := d.client.PostMessageContext(ctx, channelID, opts...); err != nil {
			slog.Warn("dispatch: send failed", "channel", channelID, "err", err)
		}
	default:
		slog.Warn("dispatch: record carries neither text nor a targeted reaction, dropping", "channel", channelID)
	}
}
