// Package session owns the Slack connection lifecycle, the background
// worker that bridges it onto the application queues, and the one-shot
// side-channel operations.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Commander is the subset of the Slack Web API used for outbound
// commands. *slack.Client satisfies it; tests substitute a fake.
type Commander interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackgo.MsgOption) (string, string, error)
	AddReactionContext(ctx context.Context, name string, item slackgo.ItemRef) error
	SetUserPresenceContext(ctx context.Context, presence string) error
}

// Connection maintains one persistent Socket Mode connection. Inbound
// event envelopes are acknowledged and their inner event handed to the
// registered sink on the transport's own listen goroutine.
type Connection struct {
	api *slackgo.Client
	sm  *socketmode.Client

	state     atomic.Int32
	sink      func(event map[string]any)
	botUserID string

	cancel  context.CancelFunc
	closeMu sync.Mutex
}

// NewConnection creates a Connection for the given tokens.
// Nothing is dialed until Connect.
func NewConnection(botToken, appToken string) *Connection {
	return &Connection{
		api: slackgo.New(botToken, slackgo.OptionAppLevelToken(appToken)),
	}
}

// API returns the underlying Web API client.
func (c *Connection) API() *slackgo.Client { return c.api }

// Commander returns the Web API client as the command surface used by
// the outbound dispatcher.
func (c *Connection) Commander() Commander { return c.api }

// BotUserID returns the authenticated bot's user ID, known after Connect.
func (c *Connection) BotUserID() string { return c.botUserID }

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// SetSink registers the callback invoked with each qualifying inner
// event. Must be set before Connect.
func (c *Connection) SetSink(fn func(event map[string]any)) { c.sink = fn }

// Connect authenticates, opens the Socket Mode transport, and starts the
// listen loop. It returns once the transport goroutines are running.
func (c *Connection) Connect(ctx context.Context) error {
	c.state.Store(int32(Connecting))

	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		c.state.Store(int32(Disconnected))
		return err
	}
	c.botUserID = resp.UserID
	slog.Info("slack: authenticated", "bot_user_id", c.botUserID)

	c.sm = socketmode.New(c.api)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.sm.RunContext(runCtx) //nolint:errcheck
	go c.listen(runCtx)
	return nil
}

func (c *Connection) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.state.Store(int32(Disconnected))
			return
		case evt, ok := <-c.sm.Events:
			if !ok {
				c.state.Store(int32(Disconnected))
				return
			}
			c.handleEvent(evt)
		}
	}
}

func (c *Connection) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		c.state.Store(int32(Connecting))
	case socketmode.EventTypeConnected:
		c.state.Store(int32(Connected))
		slog.Info("slack: connected")
	case socketmode.EventTypeConnectionError:
		slog.Warn("slack: connection error, client will retry", "err", evt.Data)
	case socketmode.EventTypeEventsAPI:
		// Protocol: ack the envelope before any processing.
		if evt.Request != nil {
			c.sm.Ack(*evt.Request)
		}
		cb, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || cb.Type != slackevents.CallbackEvent {
			return
		}
		c.forwardInner(evt)
	case socketmode.EventTypeSlashCommand, socketmode.EventTypeInteractive:
		// Acknowledged so the platform stops retrying, otherwise ignored.
		if evt.Request != nil {
			c.sm.Ack(*evt.Request)
		}
	}
}

// forwardInner re-parses the envelope payload as a raw map. The typed
// inner event loses unknown fields (blocks in particular), and the
// normalizer wants the raw payload anyway.
func (c *Connection) forwardInner(evt socketmode.Event) {
	if c.sink == nil || evt.Request == nil {
		return
	}
	var envelope struct {
		Event map[string]any `json:"event"`
	}
	if err := json.Unmarshal(evt.Request.Payload, &envelope); err != nil {
		slog.Warn("slack: undecodable event payload", "err", err)
		return
	}
	if envelope.Event == nil {
		return
	}
	c.sink(envelope.Event)
}

// Disconnect tears down the transport. Already-disconnected is an
// expected terminal state: calling it twice, or before Connect, is a
// no-op.
func (c *Connection) Disconnect() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state.Store(int32(Disconnected))
}
