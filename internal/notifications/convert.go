package notifications

import (
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// FromDiscrepancy builds a Notification from a reality-check finding.
func FromDiscrepancy(d domain.Discrepancy) Notification {
	return Notification{
		ID:       d.ID,
		Kind:     KindDiscrepancy,
		Source:   "reality_check",
		Priority: ParsePriority(string(d.Severity)),
		Title:    string(d.Kind),
		Body:     d.Description,
		Fields: map[string]interface{}{
			"location":      d.Location,
			"suggested_fix": d.SuggestedFix,
			"auto_fixable":  d.AutoFixable,
		},
		CreatedAt: time.Now(),
	}
}

// FromSuggestion builds a Notification from an agent's advisory output.
func FromSuggestion(s domain.Suggestion) Notification {
	return Notification{
		ID:       s.Title,
		Kind:     KindSuggestion,
		Source:   s.AgentName,
		Priority: ParsePriority(s.Priority),
		Title:    s.Title,
		Body:     s.Body,
		Fields: map[string]interface{}{
			"kind":       s.Kind,
			"confidence": s.Confidence,
		},
		CreatedAt: time.Now(),
	}
}
