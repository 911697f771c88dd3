package external

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/DEVCOACH/internal/notifications"
)

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	SMTPHost    string                 `json:"smtp_host"`
	SMTPPort    int                    `json:"smtp_port"`
	Username    string                 `json:"username"`
	Password    string                 `json:"password"`
	From        string                 `json:"from"`
	To          []string               `json:"to"`
	MinPriority notifications.Priority `json:"min_priority,omitempty"`
}

// EmailNotifier sends notifications via email.
type EmailNotifier struct {
	config EmailConfig
}

// NewEmailNotifier creates a new email notifier.
func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	return &EmailNotifier{config: config}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) ShouldNotify(n notifications.Notification) bool {
	return n.Priority >= e.config.MinPriority
}

// Send sends a notification via email.
func (e *EmailNotifier) Send(n notifications.Notification) error {
	if e.config.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}
	if e.config.From == "" {
		return fmt.Errorf("from address not configured")
	}
	if len(e.config.To) == 0 {
		return fmt.Errorf("no recipient addresses configured")
	}

	subject := e.buildSubject(n)
	body := e.buildBody(n)
	message := e.buildMessage(subject, body)

	addr := fmt.Sprintf("%s:%d", e.config.SMTPHost, e.config.SMTPPort)
	var auth smtp.Auth
	if e.config.Username != "" && e.config.Password != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, e.config.From, e.config.To, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (e *EmailNotifier) buildSubject(n notifications.Notification) string {
	prefix := ""
	switch n.Priority {
	case notifications.PriorityCritical:
		prefix = "[CRITICAL] "
	case notifications.PriorityHigh:
		prefix = "[HIGH] "
	}
	return fmt.Sprintf("%s%s - %s", prefix, n.Kind, n.Title)
}

func (e *EmailNotifier) buildBody(n notifications.Notification) string {
	var body strings.Builder

	body.WriteString(fmt.Sprintf("%s\n", n.Title))
	body.WriteString(strings.Repeat("=", len(n.Title)) + "\n\n")
	body.WriteString(n.Body + "\n\n")
	body.WriteString(fmt.Sprintf("Kind: %s\n", n.Kind))
	body.WriteString(fmt.Sprintf("Source: %s\n", n.Source))
	body.WriteString(fmt.Sprintf("Priority: %s\n", n.Priority))
	body.WriteString(fmt.Sprintf("Timestamp: %s\n", n.CreatedAt.Format(time.RFC3339)))

	if len(n.Fields) > 0 {
		body.WriteString("\nFields:\n--------\n")
		for k, v := range n.Fields {
			body.WriteString(fmt.Sprintf("%s: %v\n", k, v))
		}
	}
	return body.String()
}

func (e *EmailNotifier) buildMessage(subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.config.To, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}
