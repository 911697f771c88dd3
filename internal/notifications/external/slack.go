package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DEVCOACH/internal/notifications"
)

// SlackConfig holds configuration for Slack notifications.
type SlackConfig struct {
	WebhookURL  string                `json:"webhook_url"`
	Channel     string                `json:"channel,omitempty"`
	Username    string                `json:"username,omitempty"`
	IconEmoji   string                `json:"icon_emoji,omitempty"`
	MinPriority notifications.Priority `json:"min_priority,omitempty"`
}

// SlackNotifier sends notifications to Slack via webhooks.
type SlackNotifier struct {
	config SlackConfig
	client *http.Client
}

// NewSlackNotifier creates a new Slack notifier.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

// ShouldNotify checks if the notification meets the configured minimum
// priority.
func (s *SlackNotifier) ShouldNotify(n notifications.Notification) bool {
	return n.Priority >= s.config.MinPriority
}

// Send sends a notification to Slack.
func (s *SlackNotifier) Send(n notifications.Notification) error {
	if s.config.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	color := "good"
	switch n.Priority {
	case notifications.PriorityCritical:
		color = "danger"
	case notifications.PriorityHigh:
		color = "warning"
	}

	fields := []map[string]interface{}{
		{"title": "Kind", "value": string(n.Kind), "short": true},
		{"title": "Source", "value": n.Source, "short": true},
		{"title": "Priority", "value": n.Priority.String(), "short": true},
	}
	for k, v := range n.Fields {
		fields = append(fields, map[string]interface{}{
			"title": k,
			"value": fmt.Sprintf("%v", v),
			"short": false,
		})
	}

	payload := map[string]interface{}{
		"text": n.Title,
		"attachments": []map[string]interface{}{
			{
				"color":  color,
				"title":  n.Title,
				"text":   n.Body,
				"fields": fields,
				"ts":     n.CreatedAt.Unix(),
			},
		},
	}
	if s.config.Channel != "" {
		payload["channel"] = s.config.Channel
	}
	if s.config.Username != "" {
		payload["username"] = s.config.Username
	}
	if s.config.IconEmoji != "" {
		payload["icon_emoji"] = s.config.IconEmoji
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := s.client.Post(s.config.WebhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}
	return nil
}
