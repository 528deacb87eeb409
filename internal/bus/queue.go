package bus

// Queue is a thread-safe FIFO of Messages backed by a buffered Go channel.
//
// Producers (the transport's listen goroutine, application publishers) call
// Push; the session worker empties it with Drain once per iteration. The
// buffer keeps senders from blocking on a slow consumer.
type Queue struct {
	ch chan Message
}

// DefaultQueueSize is the buffer used when no size is given.
const DefaultQueueSize = 100

// NewQueue creates a Queue with the given buffer size.
// A size of 0 or less falls back to DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Message, size)}
}

// Push appends one message. Blocks only if the buffer is full.
func (q *Queue) Push(m Message) {
	q.ch <- m
}

// Drain removes and returns every message currently queued, in arrival
// order. Returns nil when the queue is empty. It never blocks.
func (q *Queue) Drain() []Message {
	var out []Message
	for {
		select {
		case m := <-q.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Len reports the number of queued messages.
func (q *Queue) Len() int { return len(q.ch) }
