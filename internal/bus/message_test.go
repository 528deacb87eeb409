package bus

import "testing"

func TestMessageIntent(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Intent
	}{
		{"text only", Message{Text: "hello", ChannelID: "C1"}, IntentSendText},
		{"reaction with target", Message{Reaction: "eyes", Thread: "1.2"}, IntentAddReaction},
		{"reaction without target falls back to text", Message{Reaction: "eyes", Text: "hi"}, IntentSendText},
		{"reaction without target or text", Message{Reaction: "eyes"}, IntentMalformed},
		{"empty record", Message{ChannelID: "C1"}, IntentMalformed},
		{"reaction wins over text when targeted", Message{Reaction: "wave", Thread: "9.9", Text: "hi"}, IntentAddReaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Intent(); got != tt.want {
				t.Errorf("Intent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueueDrainOrder(t *testing.T) {
	q := NewQueue(8)
	for _, text := range []string{"a", "b", "c"} {
		q.Push(Message{Text: text})
	}

	out := q.Drain()
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	for i, want := range []string{"a", "b", "c"} {
		if out[i].Text != want {
			t.Errorf("position %d: got %q, want %q", i, out[i].Text, want)
		}
	}

	if again := q.Drain(); again != nil {
		t.Errorf("expected nil on empty drain, got %d messages", len(again))
	}
}

func TestQueueDrainEmptyNeverBlocks(t *testing.T) {
	q := NewQueue(1)
	done := make(chan struct{})
	go func() {
		q.Drain()
		close(done)
	}()
	<-done
}
