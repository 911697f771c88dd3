// Package notifications fans critical reality discrepancies and
// critical agent suggestions out to external channels (Slack, Discord,
// email) and a local terminal/banner notifier for operators at the
// keyboard.
package notifications

import "time"

// Priority mirrors domain.Suggestion's and domain.Discrepancy's
// severity scales, collapsed to one four-step ranking so every channel
// filters on the same ordinal regardless of which domain type a
// notification was built from.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParsePriority maps the string priorities domain.Suggestion and
// domain.Severity use onto Priority, defaulting unrecognized values to
// PriorityLow rather than rejecting them outright.
func ParsePriority(s string) Priority {
	switch s {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "medium", "normal":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Kind distinguishes the two sources a Notification can be built from.
type Kind string

const (
	KindDiscrepancy Kind = "discrepancy"
	KindSuggestion  Kind = "suggestion"
)

// Notification is the channel-agnostic envelope routed to every
// registered NotificationChannel, replacing the teacher's events.Event.
type Notification struct {
	ID        string
	Kind      Kind
	Source    string
	Priority  Priority
	Title     string
	Body      string
	Fields    map[string]interface{}
	CreatedAt time.Time
}

// NotificationChannel is a destination a Notification can be routed to.
type NotificationChannel interface {
	Name() string
	ShouldNotify(n Notification) bool
	Send(n Notification) error
}
