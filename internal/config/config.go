// Package config materializes the application's configuration into one
// immutable struct built at process start.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds every recognized option. Each credential is independently
// optional; components treat a missing credential as "channel or provider
// not configured" rather than an error.
type Config struct {
	Database      DatabaseConfig
	Server        ServerConfig
	Providers     ProvidersConfig
	Notifications NotificationsConfig
	Sweeper       SweeperConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds HTTP facade settings.
type ServerConfig struct {
	Addr string
}

// ProviderConfig holds one classification provider's credential and model.
type ProviderConfig struct {
	APIKey string
	Model  string
}

// Available reports whether the provider can be invoked at all.
func (p ProviderConfig) Available() bool {
	return p.APIKey != ""
}

// ProvidersConfig holds the classification providers in priority order:
// OpenAI first, Anthropic second, deterministic fallback always last.
type ProvidersConfig struct {
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
}

// EmailConfig holds the Brevo transactional email channel settings.
type EmailConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// Configured reports whether the email channel should be attempted.
func (e EmailConfig) Configured() bool {
	return e.APIKey != "" && e.SenderEmail != ""
}

// SlackConfig holds the Slack incoming-webhook channel settings.
type SlackConfig struct {
	WebhookURL string
}

// Configured reports whether the Slack channel should be attempted.
func (s SlackConfig) Configured() bool {
	return s.WebhookURL != ""
}

// NotificationsConfig groups the alert channels.
type NotificationsConfig struct {
	Email EmailConfig
	Slack SlackConfig
}

// SweeperConfig controls reconciliation of stale pending requests.
type SweeperConfig struct {
	MaxPendingAge time.Duration
	Schedule      string
}

// Load builds a Config from the current viper state, applying defaults.
func Load() (*Config, error) {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("providers.openai.model", "gpt-4o-mini")
	viper.SetDefault("providers.anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("notifications.email.sender_name", "Sieve Moderator")
	viper.SetDefault("sweeper.max_pending_age", "10m")
	viper.SetDefault("sweeper.schedule", "@every 1m")

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "sieve", "sieve.db")
	}

	maxAge := viper.GetDuration("sweeper.max_pending_age")
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}

	return &Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				APIKey: viper.GetString("providers.openai.api_key"),
				Model:  viper.GetString("providers.openai.model"),
			},
			Anthropic: ProviderConfig{
				APIKey: viper.GetString("providers.anthropic.api_key"),
				Model:  viper.GetString("providers.anthropic.model"),
			},
		},
		Notifications: NotificationsConfig{
			Email: EmailConfig{
				APIKey:      viper.GetString("notifications.email.api_key"),
				SenderEmail: viper.GetString("notifications.email.sender_email"),
				SenderName:  viper.GetString("notifications.email.sender_name"),
			},
			Slack: SlackConfig{
				WebhookURL: viper.GetString("notifications.slack.webhook_url"),
			},
		},
		Sweeper: SweeperConfig{
			MaxPendingAge: maxAge,
			Schedule:      viper.GetString("sweeper.schedule"),
		},
	}, nil
}
