package agent

import (
	"fmt"

	"github.com/DEVCOACH/internal/domain"
)

var checkpointThresholds = [...]float64{30, 50, 70}

// SessionOrchestrator nudges toward checkpoints as usage crosses the
// session's checkpoint thresholds, escalating to a critical suggestion
// once usage reaches the emergency band.
type SessionOrchestrator struct{}

// NewSessionOrchestrator builds the Session Orchestrator agent.
func NewSessionOrchestrator() *SessionOrchestrator { return &SessionOrchestrator{} }

func (a *SessionOrchestrator) Name() string               { return "session_orchestrator" }
func (a *SessionOrchestrator) Priority() Priority          { return PriorityHigh }
func (a *SessionOrchestrator) ContextBudgetPercent() float64 { return 20 }

// Activate fires at or above 25% usage.
func (a *SessionOrchestrator) Activate(ctx AgentContext) bool {
	return ctx.ContextUsagePercent >= 25
}

func (a *SessionOrchestrator) Run(ctx AgentContext) ([]domain.Suggestion, error) {
	usage := ctx.ContextUsagePercent

	if usage >= 85 {
		return []domain.Suggestion{{
			AgentName:  a.Name(),
			Kind:       "emergency_checkpoint",
			Priority:   "critical",
			Title:      "Create an emergency checkpoint now",
			Body:       fmt.Sprintf("Context usage is at %.0f%%, past the emergency threshold.", usage),
			Confidence: 0.95,
			SuggestedTool: &domain.SuggestedToolCall{
				Name:   "session_checkpoint",
				Params: map[string]interface{}{"session_id": ctx.SessionID, "force": true},
			},
		}}, nil
	}

	for _, threshold := range checkpointThresholds {
		if usage >= threshold && usage < threshold+20 {
			return []domain.Suggestion{{
				AgentName:  a.Name(),
				Kind:       "checkpoint_reminder",
				Priority:   "medium",
				Title:      "Consider a checkpoint",
				Body:       fmt.Sprintf("Context usage crossed %.0f%%.", threshold),
				Confidence: 0.7,
				SuggestedTool: &domain.SuggestedToolCall{
					Name:   "session_checkpoint",
					Params: map[string]interface{}{"session_id": ctx.SessionID},
				},
			}}, nil
		}
	}

	return nil, nil
}
