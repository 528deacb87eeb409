package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/slackbridge/slackbridge/internal/bus"
	"github.com/slackbridge/slackbridge/internal/config"
	"github.com/slackbridge/slackbridge/internal/directory"
	"github.com/slackbridge/slackbridge/internal/events"
)

// Transport is the connection surface the Manager drives. *Connection
// implements it; tests substitute a fake.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	SetSink(fn func(event map[string]any))
	BotUserID() string
	Commander() Commander
}

// subscriberBuffer sizes each subscriber's batch channel so a burst of
// ticks does not stall the worker.
const subscriberBuffer = 16

// Manager owns one connection session, the inbound and outbound queues,
// and the background worker that bridges them.
//
// Each worker iteration drains the whole outbound queue first, then
// delivers everything queued inbound as one ordered batch to every
// subscriber, then sleeps the poll interval. Outbound intents are never
// starved by inbound volume, and both sides share the connection's
// client, so the per-iteration ordering is deterministic.
type Manager struct {
	cfg   *config.Config
	conn  Transport
	dir   *directory.Directory
	norm  *events.Normalizer
	dedup *events.Deduplicator
	side  *SideChannel

	inbound  *bus.Queue
	outbound *bus.Queue

	mu          sync.Mutex
	subscribers map[chan []bus.Message]map[string]struct{}
	publishers  map[<-chan bus.Message]struct{}
	running     bool
	stop        chan struct{}
	workerDone  chan struct{}
	runCtx      context.Context
}

// NewManager assembles a Manager from its collaborators.
func NewManager(cfg *config.Config, conn Transport, dir *directory.Directory, side *SideChannel) *Manager {
	return &Manager{
		cfg:         cfg,
		conn:        conn,
		dir:         dir,
		norm:        events.NewNormalizer(dir),
		dedup:       events.NewDeduplicator(),
		side:        side,
		inbound:     bus.NewQueue(cfg.Session.QueueSize),
		outbound:    bus.NewQueue(cfg.Session.QueueSize),
		subscribers: make(map[chan []bus.Message]map[string]struct{}),
		publishers:  make(map[<-chan bus.Message]struct{}),
	}
}

// Start connects the transport and spawns the worker. Calling Start on a
// running manager is an error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("session: already running")
	}

	m.runCtx = ctx
	m.conn.SetSink(m.handleRawEvent)
	if err := m.conn.Connect(ctx); err != nil {
		return err
	}

	m.running = true
	m.stop = make(chan struct{})
	m.workerDone = make(chan struct{})

	for src := range m.publishers {
		go m.pump(src, m.stop)
	}

	dispatcher := NewDispatcher(m.conn.Commander(), m.dir)
	go m.worker(ctx, dispatcher, m.stop, m.workerDone)
	go m.watchdog(m.workerDone)

	slog.Info("session: started")
	return nil
}

// Stop signals the worker, waits for it, and closes the connection.
// It is idempotent: stopping an idle manager is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.workerDone
	m.mu.Unlock()

	<-done
	m.conn.Disconnect()
	slog.Info("session: stopped")
}

// Subscribe registers and returns a new subscriber endpoint receiving
// one ordered batch of messages per worker tick. Channel names or IDs,
// if given, restrict delivery to messages from those channels.
func (m *Manager) Subscribe(channels ...string) <-chan []bus.Message {
	ch := make(chan []bus.Message, subscriberBuffer)
	m.RegisterSubscriber(ch, channels...)
	return ch
}

// RegisterSubscriber adds an endpoint to the subscriber set. Endpoints
// are deduplicated by identity: re-registering is a no-op and keeps the
// original channel filter.
func (m *Manager) RegisterSubscriber(ch chan []bus.Message, channels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.subscribers[ch]; dup {
		return
	}
	var filter map[string]struct{}
	if len(channels) > 0 {
		filter = make(map[string]struct{}, len(channels))
		for _, c := range channels {
			filter[c] = struct{}{}
		}
	}
	m.subscribers[ch] = filter
}

// RegisterPublisher adds a message source drained into the outbound
// queue. Sources are deduplicated by identity.
func (m *Manager) RegisterPublisher(src <-chan bus.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.publishers[src]; dup {
		return
	}
	m.publishers[src] = struct{}{}
	if m.running {
		go m.pump(src, m.stop)
	}
}

// Publish enqueues one outbound message.
func (m *Manager) Publish(msg bus.Message) {
	m.outbound.Push(msg)
}

// PublishReaction applies an emoji reaction to an existing message via
// the side channel, outside the main outbound queue.
func (m *Manager) PublishReaction(channelID, emoji, timestamp string) {
	m.side.AddReaction(channelID, emoji, timestamp)
}

// PublishPresence applies a presence status via the side channel.
func (m *Manager) PublishPresence(status PresenceStatus) {
	m.side.SetPresence(status)
}

// handleRawEvent is the transport sink. It runs on the transport's
// listen goroutine: only the dedup window, the directory (both locked)
// and the inbound queue are touched.
func (m *Manager) handleRawEvent(event map[string]any) {
	if !events.Qualifies(event) {
		return
	}
	if m.cfg.Slack.SkipOwn {
		if user, _ := event["user"].(string); user != "" && user == m.conn.BotUserID() {
			return
		}
	}
	if id := events.EventID(event); id != "" && !m.dedup.ShouldProcess(id) {
		return
	}

	msg, err := m.norm.Normalize(m.runCtx, event)
	if err != nil {
		slog.Warn("session: normalize failed, dropping event", "err", err)
		return
	}
	if msg != nil {
		m.inbound.Push(*msg)
	}
}

func (m *Manager) worker(ctx context.Context, d *Dispatcher, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session: worker panicked", "panic", r)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		for _, msg := range m.outbound.Drain() {
			d.Dispatch(ctx, msg)
		}
		if batch := m.inbound.Drain(); len(batch) > 0 {
			m.deliver(ctx, batch, stop)
		}

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(m.cfg.Session.PollInterval)):
		}
	}
}

// watchdog runs the shutdown sequence if the worker exits while the
// manager still believes it is running (panic or context cancellation).
func (m *Manager) watchdog(done chan struct{}) {
	<-done

	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return // explicit Stop in progress
	}

	if m.runCtx.Err() != nil {
		slog.Info("session: context cancelled, shutting down")
	} else {
		slog.Error("session: worker terminated unexpectedly, shutting down")
	}
	m.Stop()
}

// deliver hands one ordered batch to every registered subscriber,
// applying each subscriber's channel filter. A send to a full or
// abandoned endpoint yields to shutdown so the worker can always be
// joined.
func (m *Manager) deliver(ctx context.Context, batch []bus.Message, stop chan struct{}) {
	m.mu.Lock()
	subs := make(map[chan []bus.Message]map[string]struct{}, len(m.subscribers))
	for ch, filter := range m.subscribers {
		subs[ch] = filter
	}
	m.mu.Unlock()

	for ch, filter := range subs {
		out := filterBatch(batch, filter)
		if len(out) == 0 {
			continue
		}
		select {
		case ch <- out:
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// filterBatch returns the batch entries whose channel name or ID is in
// the subscriber's filter. A nil filter matches everything.
func filterBatch(batch []bus.Message, filter map[string]struct{}) []bus.Message {
	if filter == nil {
		return batch
	}
	var out []bus.Message
	for _, msg := range batch {
		if _, ok := filter[msg.Channel]; ok {
			out = append(out, msg)
			continue
		}
		if _, ok := filter[msg.ChannelID]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// pump drains one publisher source into the outbound queue until the
// session stops or the source closes.
func (m *Manager) pump(src <-chan bus.Message, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			m.outbound.Push(msg)
		}
	}
}
