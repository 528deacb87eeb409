package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Session.QueueSize != def.Session.QueueSize {
		t.Errorf("expected default queue size %d, got %d", def.Session.QueueSize, cfg.Session.QueueSize)
	}
	if cfg.SideChannel.Timeout != def.SideChannel.Timeout {
		t.Errorf("expected default timeout %v, got %v", def.SideChannel.Timeout, cfg.SideChannel.Timeout)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
slack:
  botToken: xoxb-test
  appToken: xapp-test
session:
  queueSize: 42
  pollInterval: 250ms
presence:
  schedule:
    - cron: "0 0 9 * * MON-FRI"
      status: active
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-test" {
		t.Errorf("expected bot token %q, got %q", "xoxb-test", cfg.Slack.BotToken)
	}
	if cfg.Session.QueueSize != 42 {
		t.Errorf("expected queueSize 42, got %d", cfg.Session.QueueSize)
	}
	if cfg.Session.PollInterval != Duration(250*time.Millisecond) {
		t.Errorf("expected pollInterval 250ms, got %v", cfg.Session.PollInterval)
	}
	if len(cfg.Presence.Schedule) != 1 || cfg.Presence.Schedule[0].Status != "active" {
		t.Errorf("unexpected presence schedule: %+v", cfg.Presence.Schedule)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "slack: [not: valid")

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
slack:
  botToken: xoxb-from-file
  appToken: xapp-from-file
`)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-from-env" {
		t.Errorf("expected env override, got %q", cfg.Slack.BotToken)
	}
	if cfg.Slack.AppToken != "xapp-from-file" {
		t.Errorf("expected file value for app token, got %q", cfg.Slack.AppToken)
	}
}

func TestValidate_TokenPrefixes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Slack.BotToken = "xoxb-ok"
	cfg.Slack.AppToken = "xapp-ok"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Slack.BotToken = "not-a-token"
	cfg.Slack.AppToken = "xapp-ok"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid bot token")
	}
}

func TestValidate_TokenFile(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "bot.token")
	if err := os.WriteFile(tokenPath, []byte("xoxb-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Slack.BotToken = tokenPath
	cfg.Slack.AppToken = "xapp-ok"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-secret" {
		t.Errorf("expected token read from file, got %q", cfg.Slack.BotToken)
	}
}

func TestValidate_PresenceStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Slack.BotToken = "xoxb-ok"
	cfg.Slack.AppToken = "xapp-ok"
	cfg.Presence.Schedule = []PresenceRule{{Cron: "0 9 * * *", Status: "busy"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown presence status")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := DefaultConfig()
	original.Slack.BotToken = "xoxb-round"
	original.Session.QueueSize = 7

	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Slack.BotToken != original.Slack.BotToken {
		t.Errorf("bot token mismatch: got %q", loaded.Slack.BotToken)
	}
	if loaded.Session.QueueSize != 7 {
		t.Errorf("queue size mismatch: got %d", loaded.Session.QueueSize)
	}
}
