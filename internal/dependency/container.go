// Package dependency wires core slackbridge services using go.uber.org/dig.
package dependency

import (
	"time"

	slackgo "github.com/slack-go/slack"
	"go.uber.org/dig"

	"github.com/slackbridge/slackbridge/internal/config"
	"github.com/slackbridge/slackbridge/internal/directory"
	"github.com/slackbridge/slackbridge/internal/session"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig.
type Container struct {
	cfg     *config.Config
	conn    *session.Connection
	dir     *directory.Directory
	side    *session.SideChannel
	manager *session.Manager
}

func (c *Container) Config() *config.Config            { return c.cfg }
func (c *Container) Connection() *session.Connection   { return c.conn }
func (c *Container) Directory() *directory.Directory   { return c.dir }
func (c *Container) SideChannel() *session.SideChannel { return c.side }
func (c *Container) Manager() *session.Manager         { return c.manager }

// New builds and wires all core services from cfg.
// cfg must already be validated: tokens are used as-is.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	for _, provide := range []any{
		func() *config.Config { return cfg },
		newConnection,
		func(c *session.Connection) session.Transport { return c },
		func(c *session.Connection) directory.Client { return c.API() },
		directory.New,
		newSideChannel,
		session.NewManager,
	} {
		if err := d.Provide(provide); err != nil {
			return nil, err
		}
	}

	out := &Container{cfg: cfg}
	err := d.Invoke(func(
		conn *session.Connection,
		dir *directory.Directory,
		side *session.SideChannel,
		manager *session.Manager,
	) {
		out.conn = conn
		out.dir = dir
		out.side = side
		out.manager = manager
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newConnection(cfg *config.Config) *session.Connection {
	return session.NewConnection(cfg.Slack.BotToken, cfg.Slack.AppToken)
}

// newSideChannel builds the one-shot runner. Each task gets a fresh Web
// API client: the main connection's client belongs to the session worker.
func newSideChannel(cfg *config.Config) *session.SideChannel {
	factory := func() session.Commander {
		return slackgo.New(cfg.Slack.BotToken)
	}
	return session.NewSideChannel(cfg.SideChannel.MaxConcurrent, time.Duration(cfg.SideChannel.Timeout), factory)
}
