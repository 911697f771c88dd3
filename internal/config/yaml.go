package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/notifications"
)

// AgentRosterConfig toggles which compiled-in agents the orchestrator
// runs. Unlike the teacher's AgentConfig, it never configures an
// agent's model or role — those are fixed in code per agent; the only
// thing YAML drives here is enabled/disabled.
type AgentRosterConfig struct {
	Agents []AgentToggle `yaml:"agents"`
}

// AgentToggle is one roster entry.
type AgentToggle struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// LoadAgentRoster reads an agent roster file. A missing file is not an
// error: it means every compiled-in agent stays at its default enabled
// state.
func LoadAgentRoster(path string) (*AgentRosterConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &AgentRosterConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agent roster: %w", err)
	}
	var cfg AgentRosterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse agent roster: %w", err)
	}
	return &cfg, nil
}

// QuickActionCatalog is the seed-on-boot set of quick actions, mirroring
// the teacher's team/project YAML seeding into its store.
type QuickActionCatalog struct {
	Actions []domain.QuickAction `yaml:"actions"`
}

// LoadQuickActionCatalog reads a quick action catalog file. A missing
// file yields an empty catalog rather than an error, matching the
// teacher's "config not found, feature stays off" tolerance.
func LoadQuickActionCatalog(path string) (*QuickActionCatalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &QuickActionCatalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quick action catalog: %w", err)
	}
	var cfg QuickActionCatalog
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse quick action catalog: %w", err)
	}
	return &cfg, nil
}

// NotificationRoutingConfig is the YAML shape for the Slack/Discord/
// email channels a Router fans notifications out to.
type NotificationRoutingConfig struct {
	Slack   SlackRoutingConfig   `yaml:"slack"`
	Discord DiscordRoutingConfig `yaml:"discord"`
	Email   EmailRoutingConfig   `yaml:"email"`
}

// SlackRoutingConfig is the YAML shape of a Slack webhook channel.
type SlackRoutingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	WebhookURL  string `yaml:"webhook_url"`
	Channel     string `yaml:"channel"`
	Username    string `yaml:"username"`
	IconEmoji   string `yaml:"icon_emoji"`
	MinPriority string `yaml:"min_priority"`
}

// DiscordRoutingConfig is the YAML shape of a Discord webhook channel.
type DiscordRoutingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	WebhookURL  string `yaml:"webhook_url"`
	Username    string `yaml:"username"`
	AvatarURL   string `yaml:"avatar_url"`
	MinPriority string `yaml:"min_priority"`
}

// EmailRoutingConfig is the YAML shape of an SMTP channel.
type EmailRoutingConfig struct {
	Enabled     bool     `yaml:"enabled"`
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`
	MinPriority string   `yaml:"min_priority"`
}

// LoadNotificationRouting reads a notification routing file. A missing
// file disables every channel rather than erroring, matching
// loadNotificationConfig's "config not found, notifications disabled"
// tolerance.
func LoadNotificationRouting(path string) (*NotificationRoutingConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &NotificationRoutingConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notification routing: %w", err)
	}
	var cfg NotificationRoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse notification routing: %w", err)
	}
	return &cfg, nil
}

// ParsePriority converts a YAML min_priority string into a
// notifications.Priority, defaulting to PriorityLow for an empty or
// unrecognized value so a misconfigured channel over-notifies rather
// than silently never firing.
func ParsePriority(s string) notifications.Priority {
	return notifications.ParsePriority(s)
}
