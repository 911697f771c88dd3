package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DEVCOACH/internal/notifications"
)

// DiscordConfig holds configuration for Discord notifications.
type DiscordConfig struct {
	WebhookURL  string                 `json:"webhook_url"`
	Username    string                 `json:"username,omitempty"`
	AvatarURL   string                 `json:"avatar_url,omitempty"`
	MinPriority notifications.Priority `json:"min_priority,omitempty"`
}

// DiscordNotifier sends notifications to Discord via webhooks.
type DiscordNotifier struct {
	config DiscordConfig
	client *http.Client
}

// NewDiscordNotifier creates a new Discord notifier.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) ShouldNotify(n notifications.Notification) bool {
	return n.Priority >= d.config.MinPriority
}

// Send sends a notification to Discord.
func (d *DiscordNotifier) Send(n notifications.Notification) error {
	if d.config.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL not configured")
	}

	color := 0x00FF00
	switch n.Priority {
	case notifications.PriorityCritical:
		color = 0xFF0000
	case notifications.PriorityHigh:
		color = 0xFFA500
	}

	fields := []map[string]interface{}{
		{"name": "Kind", "value": string(n.Kind), "inline": true},
		{"name": "Source", "value": n.Source, "inline": true},
		{"name": "Priority", "value": n.Priority.String(), "inline": true},
	}
	for k, v := range n.Fields {
		fields = append(fields, map[string]interface{}{
			"name":   k,
			"value":  fmt.Sprintf("%v", v),
			"inline": false,
		})
	}

	embed := map[string]interface{}{
		"title":       n.Title,
		"description": n.Body,
		"color":       color,
		"timestamp":   n.CreatedAt.Format(time.RFC3339),
		"fields":      fields,
	}
	payload := map[string]interface{}{"embeds": []map[string]interface{}{embed}}
	if d.config.Username != "" {
		payload["username"] = d.config.Username
	}
	if d.config.AvatarURL != "" {
		payload["avatar_url"] = d.config.AvatarURL
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := d.client.Post(d.config.WebhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}
	return nil
}
