package external

import (
	"strings"
	"testing"

	"github.com/DEVCOACH/internal/notifications"
)

func TestEmailNotifier_Name(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{})
	if notifier.Name() != "email" {
		t.Errorf("expected name 'email', got '%s'", notifier.Name())
	}
}

func TestEmailNotifier_ShouldNotify(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{MinPriority: notifications.PriorityHigh})

	low := testNotification()
	low.Priority = notifications.PriorityMedium
	if notifier.ShouldNotify(low) {
		t.Error("expected medium priority to be filtered out")
	}

	high := testNotification()
	high.Priority = notifications.PriorityCritical
	if !notifier.ShouldNotify(high) {
		t.Error("expected critical priority to notify")
	}
}

func TestEmailNotifier_Send_MissingSMTPHostIsError(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{From: "bot@example.com", To: []string{"dev@example.com"}})
	if err := notifier.Send(testNotification()); err == nil {
		t.Error("expected error for missing SMTP host")
	}
}

func TestEmailNotifier_Send_MissingFromIsError(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.example.com", To: []string{"dev@example.com"}})
	if err := notifier.Send(testNotification()); err == nil {
		t.Error("expected error for missing from address")
	}
}

func TestEmailNotifier_Send_MissingRecipientsIsError(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.example.com", From: "bot@example.com"})
	if err := notifier.Send(testNotification()); err == nil {
		t.Error("expected error for missing recipients")
	}
}

func TestEmailNotifier_BuildSubject_MarksCriticalPriority(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{})
	n := testNotification()
	n.Priority = notifications.PriorityCritical

	subject := notifier.buildSubject(n)
	if !strings.HasPrefix(subject, "[CRITICAL] ") {
		t.Errorf("expected subject to be prefixed with [CRITICAL], got %q", subject)
	}
	if !strings.Contains(subject, n.Title) {
		t.Errorf("expected subject to contain title, got %q", subject)
	}
}

func TestEmailNotifier_BuildBody_IncludesFields(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{})
	body := notifier.buildBody(testNotification())

	if !strings.Contains(body, "the install section references a removed flag") {
		t.Error("expected body to contain notification body text")
	}
	if !strings.Contains(body, "file: README.md") {
		t.Error("expected body to contain the notification's fields")
	}
}

func TestEmailNotifier_BuildMessage_IncludesHeaders(t *testing.T) {
	notifier := NewEmailNotifier(EmailConfig{
		From: "bot@example.com",
		To:   []string{"dev@example.com", "lead@example.com"},
	})

	message := notifier.buildMessage("subject line", "body text")
	if !strings.Contains(message, "From: bot@example.com\r\n") {
		t.Error("expected From header")
	}
	if !strings.Contains(message, "To: dev@example.com, lead@example.com\r\n") {
		t.Error("expected To header listing all recipients")
	}
	if !strings.Contains(message, "Subject: subject line\r\n") {
		t.Error("expected Subject header")
	}
	if !strings.Contains(message, "\r\n\r\nbody text") {
		t.Error("expected body to follow a blank line after headers")
	}
}
