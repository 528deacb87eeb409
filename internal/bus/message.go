// Package bus defines the canonical message shape exchanged between the
// Slack session and the application, plus the thread-safe queues that
// carry it in both directions.
package bus

// ChannelType classifies a Slack conversation.
type ChannelType string

const (
	ChannelDirect  ChannelType = "direct"
	ChannelPrivate ChannelType = "private"
	ChannelPublic  ChannelType = "public"
)

// Intent is the outbound action a Message encodes.
type Intent int

const (
	// IntentSendText posts the message text to the destination channel.
	IntentSendText Intent = iota
	// IntentAddReaction adds an emoji reaction to the thread target.
	IntentAddReaction
	// IntentMalformed means the record carries neither text nor a
	// usable reaction and must be dropped.
	IntentMalformed
)

// Message is the platform-agnostic representation of one chat message or
// message-directed action. Inbound messages always carry Text; outbound
// messages carry either Text or Reaction, never both meaningfully.
type Message struct {
	User      string // author display name
	UserEmail string // author email, may be empty
	UserID    string // platform user ID

	Tags []string // display names of users mentioned in the text

	Channel     string      // channel display name
	ChannelID   string      // platform channel ID
	ChannelType ChannelType // direct, private, or public

	Text     string // message body
	Reaction string // emoji name to apply, exclusive with Text
	Thread   string // reply anchor, or the target message of a Reaction

	Payload map[string]any // raw platform payload, retained for audit
}

// Intent classifies an outbound record. A reaction is only actionable
// together with a Thread target; a record with text falls back to a plain
// send; anything else is malformed.
func (m Message) Intent() Intent {
	switch {
	case m.Reaction != "" && m.Thread != "":
		return IntentAddReaction
	case m.Text != "":
		return IntentSendText
	default:
		return IntentMalformed
	}
}

// Preview returns a short snippet of the message text for logging.
func (m Message) Preview() string {
	preview := m.Text
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}
