// Package config defines the slackbridge configuration schema.
//
// YAML keys use camelCase. Tokens may be given inline or as a path to a
// file holding the token, mirroring how deployment secrets are usually
// mounted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can use "250ms" style strings.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// SlackConfig holds the credentials and connection options for the
// Slack workspace.
type SlackConfig struct {
	// BotToken is an xoxb- token, or a path to a file containing one.
	BotToken string `yaml:"botToken" env:"SLACK_BOT_TOKEN"`
	// AppToken is an xapp- token (Socket Mode), or a path to a file.
	AppToken string `yaml:"appToken" env:"SLACK_APP_TOKEN"`
	// SkipOwn drops inbound messages authored by the bot itself.
	SkipOwn bool `yaml:"skipOwn"`
}

// SessionConfig tunes the worker loop and queues.
type SessionConfig struct {
	QueueSize    int      `yaml:"queueSize"`
	PollInterval Duration `yaml:"pollInterval"`
}

// SideChannelConfig tunes the one-shot reaction/presence operations.
type SideChannelConfig struct {
	Timeout       Duration `yaml:"timeout"`
	MaxConcurrent int      `yaml:"maxConcurrent"`
}

// PresenceRule flips presence to Status when its cron expression fires.
type PresenceRule struct {
	Cron   string `yaml:"cron"`
	Status string `yaml:"status"` // "active" or "away"
}

// PresenceConfig holds the optional presence schedule.
type PresenceConfig struct {
	Schedule []PresenceRule `yaml:"schedule"`
}

// Config is the full slackbridge configuration.
type Config struct {
	Slack       SlackConfig       `yaml:"slack"`
	Session     SessionConfig     `yaml:"session"`
	SideChannel SideChannelConfig `yaml:"sideChannel"`
	Presence    PresenceConfig    `yaml:"presence"`
}

// DefaultConfig returns a Config with all tunables at their defaults.
// Tokens are intentionally empty; they come from the file or environment.
func DefaultConfig() Config {
	return Config{
		Slack: SlackConfig{
			SkipOwn: true,
		},
		Session: SessionConfig{
			QueueSize:    100,
			PollInterval: Duration(100 * time.Millisecond),
		},
		SideChannel: SideChannelConfig{
			Timeout:       Duration(5 * time.Second),
			MaxConcurrent: 4,
		},
	}
}

// ConfigPath returns the default configuration file path:
// ~/.slackbridge/config.yaml.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slackbridge/config.yaml"
	}
	return filepath.Join(home, ".slackbridge", "config.yaml")
}

// Validate resolves and checks both tokens, replacing file paths with the
// file contents. It must be called before the config is used to build a
// client.
func (c *Config) Validate() error {
	bot, err := resolveToken(c.Slack.BotToken, "xoxb-")
	if err != nil {
		return fmt.Errorf("bot token: %w", err)
	}
	app, err := resolveToken(c.Slack.AppToken, "xapp-")
	if err != nil {
		return fmt.Errorf("app token: %w", err)
	}
	c.Slack.BotToken = bot
	c.Slack.AppToken = app

	if c.Session.QueueSize <= 0 {
		c.Session.QueueSize = DefaultConfig().Session.QueueSize
	}
	if c.Session.PollInterval <= 0 {
		c.Session.PollInterval = DefaultConfig().Session.PollInterval
	}
	if c.SideChannel.Timeout <= 0 {
		c.SideChannel.Timeout = DefaultConfig().SideChannel.Timeout
	}
	if c.SideChannel.MaxConcurrent <= 0 {
		c.SideChannel.MaxConcurrent = DefaultConfig().SideChannel.MaxConcurrent
	}

	for i, rule := range c.Presence.Schedule {
		if rule.Status != "active" && rule.Status != "away" {
			return fmt.Errorf("presence schedule entry %d: status must be \"active\" or \"away\", got %q", i, rule.Status)
		}
	}
	return nil
}

// resolveToken accepts either a token with the expected prefix or a path
// to a readable file whose trimmed contents are the token.
func resolveToken(v, prefix string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("missing (expected a %q token or a token file path)", prefix)
	}
	if strings.HasPrefix(v, prefix) {
		return v, nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return "", fmt.Errorf("not a %q token and not a readable file: %s", prefix, v)
	}
	token := strings.TrimSpace(string(data))
	if !strings.HasPrefix(token, prefix) {
		return "", fmt.Errorf("file %s does not contain a %q token", v, prefix)
	}
	return token, nil
}
