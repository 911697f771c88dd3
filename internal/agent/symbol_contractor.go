package agent

import (
	"fmt"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/store"
)

// SymbolContractor keeps naming consistent: on a proposed name that
// conflicts with the registry's canonical name for the same concept, it
// suggests the existing name; on a genuinely new concept, it offers
// registration. With no proposal attached to the run, it has nothing to
// check and returns no suggestions.
type SymbolContractor struct {
	store *store.Store
}

// NewSymbolContractor builds the Symbol Contractor agent.
func NewSymbolContractor(st *store.Store) *SymbolContractor {
	return &SymbolContractor{store: st}
}

func (a *SymbolContractor) Name() string               { return "symbol_contractor" }
func (a *SymbolContractor) Priority() Priority          { return PriorityCritical }
func (a *SymbolContractor) ContextBudgetPercent() float64 { return 15 }

// Activate fires below 90% usage.
func (a *SymbolContractor) Activate(ctx AgentContext) bool {
	return ctx.ContextUsagePercent < 90
}

func (a *SymbolContractor) Run(ctx AgentContext) ([]domain.Suggestion, error) {
	if ctx.ProposedSymbol == nil {
		return nil, nil
	}
	prop := ctx.ProposedSymbol

	existing, err := a.store.LookupSymbol(ctx.ProjectID, prop.Concept, prop.ContextType)
	if err != nil {
		return nil, fmt.Errorf("symbol lookup failed: %w", err)
	}

	if existing == nil {
		return []domain.Suggestion{{
			AgentName:  a.Name(),
			Kind:       "symbol_registration",
			Priority:   "medium",
			Title:      fmt.Sprintf("Register %q as the canonical name for %q", prop.ChosenName, prop.Concept),
			Body:       "No existing symbol covers this concept; registering it now keeps future sessions consistent.",
			Confidence: 0.8,
			SuggestedTool: &domain.SuggestedToolCall{
				Name: "symbol_register",
				Params: map[string]interface{}{
					"project": ctx.ProjectID, "concept": prop.Concept,
					"chosen_name": prop.ChosenName, "context_type": string(prop.ContextType),
				},
			},
		}}, nil
	}

	if existing.ChosenName != prop.ChosenName {
		return []domain.Suggestion{{
			AgentName:  a.Name(),
			Kind:       "symbol_conflict",
			Priority:   "high",
			Title:      fmt.Sprintf("Use existing name %q instead of %q", existing.ChosenName, prop.ChosenName),
			Body:       fmt.Sprintf("%q is already registered as %q for this concept (used %d times).", prop.Concept, existing.ChosenName, existing.UsageCount),
			Confidence: 0.9,
		}}, nil
	}

	return nil, nil
}
