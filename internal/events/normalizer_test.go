package events

import (
	"context"
	"errors"
	"sort"
	"testing"

	slackgo "github.com/slack-go/slack"

	"github.com/slackbridge/slackbridge/internal/bus"
	"github.com/slackbridge/slackbridge/internal/directory"
)

// fakeAPI backs the directory with a static workspace.
type fakeAPI struct {
	users    map[string]slackgo.User
	channels map[string]slackgo.Channel
}

func (f *fakeAPI) GetUserInfoContext(_ context.Context, id string) (*slackgo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("user_not_found")
	}
	return &u, nil
}

func (f *fakeAPI) GetUsersContext(_ context.Context, _ ...slackgo.GetUsersOption) ([]slackgo.User, error) {
	var out []slackgo.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeAPI) GetConversationInfoContext(_ context.Context, input *slackgo.GetConversationInfoInput) (*slackgo.Channel, error) {
	ch, ok := f.channels[input.ChannelID]
	if !ok {
		return nil, errors.New("channel_not_found")
	}
	return &ch, nil
}

func (f *fakeAPI) GetConversationsContext(_ context.Context, _ *slackgo.GetConversationsParameters) ([]slackgo.Channel, string, error) {
	var out []slackgo.Channel
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	return out, "", nil
}

func user(id, name string) slackgo.User {
	return slackgo.User{ID: id, Name: name, Profile: slackgo.UserProfile{RealNameNormalized: name}}
}

func newTestNormalizer() *Normalizer {
	api := &fakeAPI{
		users: map[string]slackgo.User{
			"U1":   user("U1", "Alice"),
			"U2":   user("U2", "Bob"),
			"UBOT": user("UBOT", "bridge-bot"),
		},
		channels: map[string]slackgo.Channel{
			"C1": {
				GroupConversation: slackgo.GroupConversation{
					Conversation: slackgo.Conversation{ID: "C1"},
					Name:         "general",
				},
			},
		},
	}
	return NewNormalizer(directory.New(api))
}

func userLeaf(id string) map[string]any {
	return map[string]any{"type": "user", "user_id": id}
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name  string
		event map[string]any
		want  bool
	}{
		{"plain message", map[string]any{"type": "message"}, true},
		{"app mention", map[string]any{"type": "app_mention"}, true},
		{"channel join subtype", map[string]any{"type": "message", "subtype": "channel_join"}, false},
		{"edited subtype", map[string]any{"type": "message", "subtype": "message_changed"}, false},
		{"reaction event", map[string]any{"type": "reaction_added"}, false},
		{"no type", map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Qualifies(tt.event); got != tt.want {
				t.Errorf("Qualifies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_DropsSubtypedEvents(t *testing.T) {
	n := newTestNormalizer()
	msg, err := n.Normalize(context.Background(), map[string]any{
		"type":    "message",
		"subtype": "channel_join",
		"user":    "U1",
		"channel": "C1",
		"ts":      "1.1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected drop, got %+v", msg)
	}
}

func TestNormalize_AssemblesMessage(t *testing.T) {
	n := newTestNormalizer()
	event := map[string]any{
		"type":      "message",
		"user":      "U1",
		"channel":   "C1",
		"text":      "hello there",
		"ts":        "1.1",
		"thread_ts": "1.0",
	}

	msg, err := n.Normalize(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.User != "Alice" || msg.UserID != "U1" {
		t.Errorf("author: got (%q, %q)", msg.User, msg.UserID)
	}
	if msg.Channel != "general" || msg.ChannelID != "C1" || msg.ChannelType != bus.ChannelPublic {
		t.Errorf("channel: got (%q, %q, %q)", msg.Channel, msg.ChannelID, msg.ChannelType)
	}
	if msg.Text != "hello there" || msg.Thread != "1.0" {
		t.Errorf("body: got (%q, %q)", msg.Text, msg.Thread)
	}
	if msg.Payload == nil {
		t.Error("raw payload must be retained")
	}
}

func TestExtractUserIDs_NestedDepths(t *testing.T) {
	// Three user leaves across two nested groups → three tags,
	// regardless of depth.
	blocks := []any{
		map[string]any{
			"type": "rich_text",
			"elements": []any{
				map[string]any{
					"type":     "rich_text_section",
					"elements": []any{userLeaf("U1"), map[string]any{"type": "text", "text": "hi"}},
				},
				map[string]any{
					"type": "rich_text_quote",
					"elements": []any{
						map[string]any{
							"type":     "rich_text_section",
							"elements": []any{userLeaf("U2"), userLeaf("U1")},
						},
					},
				},
			},
		},
	}

	ids := extractUserIDs(blocks)
	if len(ids) != 3 {
		t.Fatalf("expected 3 mention leaves, got %d: %v", len(ids), ids)
	}
	sort.Strings(ids)
	want := []string{"U1", "U1", "U2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

func TestNormalize_MentionEventTags(t *testing.T) {
	n := newTestNormalizer()
	event := map[string]any{
		"type":    "app_mention",
		"user":    "U1",
		"channel": "C1",
		"text":    "<@UBOT> ask <@U2> and <@U1>",
		"ts":      "2.2",
		"blocks": []any{
			map[string]any{
				"type": "rich_text",
				"elements": []any{
					map[string]any{
						"type":     "rich_text_section",
						"elements": []any{userLeaf("UBOT"), userLeaf("U2"), userLeaf("U1")},
					},
				},
			},
		},
	}

	msg, err := n.Normalize(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One resolved name per mention leaf; the bot's own tag is not
	// filtered at this layer.
	got := append([]string(nil), msg.Tags...)
	sort.Strings(got)
	want := []string{"Alice", "Bob", "bridge-bot"}
	if len(got) != len(want) {
		t.Fatalf("got tags %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got tags %v, want %v", got, want)
		}
	}
}

func TestEventID(t *testing.T) {
	if id := EventID(map[string]any{"ts": "9.9"}); id != "9.9" {
		t.Errorf("got %q", id)
	}
	if id := EventID(map[string]any{}); id != "" {
		t.Errorf("expected empty, got %q", id)
	}
}
