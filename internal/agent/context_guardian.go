package agent

import (
	"fmt"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/store"
)

// UsagePattern classifies the shape of recent context-sample growth.
type UsagePattern string

const (
	PatternSteady      UsagePattern = "steady"
	PatternSpike       UsagePattern = "spike"
	PatternExponential UsagePattern = "exponential"
)

// ContextGuardian watches recent token samples for runaway growth and
// suggests optimization scaled to how severe the pattern looks.
type ContextGuardian struct {
	store *store.Store
}

// NewContextGuardian builds the Context Guardian agent.
func NewContextGuardian(st *store.Store) *ContextGuardian {
	return &ContextGuardian{store: st}
}

func (a *ContextGuardian) Name() string               { return "context_guardian" }
func (a *ContextGuardian) Priority() Priority          { return PriorityMedium }
func (a *ContextGuardian) ContextBudgetPercent() float64 { return 10 }

// Activate fires at or above 40% usage.
func (a *ContextGuardian) Activate(ctx AgentContext) bool {
	return ctx.ContextUsagePercent >= 40
}

func (a *ContextGuardian) Run(ctx AgentContext) ([]domain.Suggestion, error) {
	if ctx.ContextUsagePercent >= 80 {
		return []domain.Suggestion{{
			AgentName:  a.Name(),
			Kind:       "exhaustion_risk",
			Priority:   "critical",
			Title:      "Context budget nearly exhausted",
			Body:       fmt.Sprintf("Usage at %.0f%%; optimize or checkpoint before continuing.", ctx.ContextUsagePercent),
			Confidence: 0.9,
		}}, nil
	}

	samples, err := a.store.ListContextSamples(ctx.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load context samples: %w", err)
	}

	pattern := classifyPattern(samples)
	if pattern == PatternSteady {
		return nil, nil
	}

	priority := "medium"
	strategy := "consolidate imports and drop low-priority context"
	if pattern == PatternExponential {
		priority = "high"
		strategy = "summarize prior conversation to arrest runaway growth"
	}

	return []domain.Suggestion{{
		AgentName:  a.Name(),
		Kind:       "optimization_suggestion",
		Priority:   priority,
		Title:      fmt.Sprintf("Usage pattern looks like a %s", pattern),
		Body:       fmt.Sprintf("Recommended: %s.", strategy),
		Confidence: 0.6,
		SuggestedTool: &domain.SuggestedToolCall{
			Name:   "context_optimize",
			Params: map[string]interface{}{"session_id": ctx.SessionID},
		},
	}}, nil
}

// classifyPattern looks at the last handful of samples' token deltas: a
// roughly flat sequence is steady, one outsized sample against a flat
// baseline is a spike, and a consistently accelerating sequence is
// exponential.
func classifyPattern(samples []*domain.ContextSample) UsagePattern {
	if len(samples) < 3 {
		return PatternSteady
	}

	n := len(samples)
	window := samples
	if n > 6 {
		window = samples[n-6:]
	}

	var sum float64
	for _, s := range window {
		sum += float64(s.Tokens)
	}
	mean := sum / float64(len(window))

	last := float64(window[len(window)-1].Tokens)
	if last > mean*3 {
		return PatternSpike
	}

	accelerating := 0
	for i := 1; i < len(window); i++ {
		if float64(window[i].Tokens) > float64(window[i-1].Tokens)*1.3 {
			accelerating++
		}
	}
	if accelerating >= len(window)-2 && accelerating > 0 {
		return PatternExponential
	}

	return PatternSteady
}
