package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Database.Path == "" {
		t.Error("expected a default database path")
	}
	if cfg.Providers.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("unexpected default OpenAI model: %s", cfg.Providers.OpenAI.Model)
	}
	if cfg.Providers.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected default Anthropic model: %s", cfg.Providers.Anthropic.Model)
	}
	if cfg.Sweeper.MaxPendingAge != 10*time.Minute {
		t.Errorf("expected 10m max pending age, got %s", cfg.Sweeper.MaxPendingAge)
	}
	if cfg.Sweeper.Schedule != "@every 1m" {
		t.Errorf("unexpected sweeper schedule: %s", cfg.Sweeper.Schedule)
	}

	if cfg.Providers.OpenAI.Available() {
		t.Error("provider must be unavailable without an API key")
	}
	if cfg.Notifications.Email.Configured() {
		t.Error("email must be unconfigured without credentials")
	}
	if cfg.Notifications.Slack.Configured() {
		t.Error("slack must be unconfigured without a webhook")
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.path", "/tmp/sieve-test.db")
	viper.Set("server.addr", ":9090")
	viper.Set("providers.openai.api_key", "sk-test")
	viper.Set("notifications.email.api_key", "xkeysib-test")
	viper.Set("notifications.email.sender_email", "alerts@example.com")
	viper.Set("sweeper.max_pending_age", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/sieve-test.db" {
		t.Errorf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr)
	}
	if !cfg.Providers.OpenAI.Available() {
		t.Error("expected OpenAI available with an API key")
	}
	if !cfg.Notifications.Email.Configured() {
		t.Error("expected email configured")
	}
	if cfg.Notifications.Email.SenderName != "Sieve Moderator" {
		t.Errorf("default sender name should survive overrides, got %s", cfg.Notifications.Email.SenderName)
	}
	if cfg.Sweeper.MaxPendingAge != 30*time.Minute {
		t.Errorf("expected 30m max pending age, got %s", cfg.Sweeper.MaxPendingAge)
	}
}
