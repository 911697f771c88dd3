package session

import (
	"fmt"

	"github.com/DEVCOACH/internal/domain"
)

// ExecuteQuickAction implements execute_quick_action (§4.C): looks up the
// action, bumps its usage counter, and runs its steps in order, merging
// each step's parameter template with the caller's overrides. Execution
// stops at the first step error; the partial results accumulated so far
// are returned alongside it.
func (m *Manager) ExecuteQuickAction(actionID string, params map[string]interface{}, sessionID string) ([]QuickActionStepResult, error) {
	action, err := m.store.GetQuickAction(actionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if action == nil {
		return nil, domain.NewError(domain.ErrInvalidParameters, fmt.Sprintf("unknown quick action: %s", actionID))
	}

	if err := m.store.RecordQuickActionUsage(actionID); err != nil {
		return nil, domain.StorageError(err)
	}

	if m.tools == nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "no tool executor configured", nil)
	}

	results := make([]QuickActionStepResult, 0, len(action.Steps))
	for _, step := range action.Steps {
		merged := mergeParams(step.ParameterTemplate, params)
		if sessionID != "" {
			if _, ok := merged["session"]; !ok {
				merged["session"] = sessionID
			}
		}

		out, err := m.tools.Execute(step.Tool, merged)
		if err != nil {
			results = append(results, QuickActionStepResult{Tool: step.Tool, Error: err.Error()})
			return results, err
		}
		results = append(results, QuickActionStepResult{Tool: step.Tool, Result: out})
	}

	return results, nil
}

func mergeParams(template, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(template)+len(overrides))
	for k, v := range template {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// SuggestActions implements suggest_actions (§4.C): phase==implementation
// suggests running tests; context_used_percent over 50 suggests a
// checkpoint with confidence scaling toward certainty as usage climbs.
func (m *Manager) SuggestActions(sessionID string, limit int) ([]ActionSuggestion, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}

	var suggestions []ActionSuggestion
	if sess.CurrentPhase == domain.PhaseImplementation {
		suggestions = append(suggestions, ActionSuggestion{
			ActionID:   "run_tests",
			Name:       "Run tests",
			Confidence: 0.7,
			Reason:     "session is in the implementation phase",
		})
	}

	if percent := sess.UsagePercent(); percent > 50 {
		confidence := 0.9
		if percent >= domain.CheckpointThresholds[3] {
			confidence = 0.99
		}
		suggestions = append(suggestions, ActionSuggestion{
			ActionID:   "create_checkpoint",
			Name:       "Create checkpoint",
			Confidence: confidence,
			Reason:     fmt.Sprintf("context usage is at %.0f%%", percent),
		})
	}

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
