package agent

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

type registration struct {
	agent  Agent
	health Health
}

// Orchestrator runs its roster sequentially, never in parallel, and
// never lets the sum of registered budgets exceed maxTotalBudgetPercent.
type Orchestrator struct {
	store *store.Store
	obs   *observable.Registry

	mu            sync.Mutex
	registrations []*registration
	totalBudget   float64
}

// New builds an empty Orchestrator.
func New(st *store.Store, obs *observable.Registry) *Orchestrator {
	return &Orchestrator{store: st, obs: obs}
}

// Register adds an agent to the roster in the order given, rejecting
// any registration that would push the roster's total
// context_budget_percent over 50%.
func (o *Orchestrator) Register(a Agent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.totalBudget+a.ContextBudgetPercent() > maxTotalBudgetPercent {
		return domain.Invalid(
			fmt.Sprintf("registering %s would push total agent budget to %.1f%%, over the %.0f%% cap",
				a.Name(), o.totalBudget+a.ContextBudgetPercent(), maxTotalBudgetPercent),
			"context_budget_percent",
		)
	}

	o.registrations = append(o.registrations, &registration{agent: a, health: Health{Enabled: true}})
	o.totalBudget += a.ContextBudgetPercent()
	return nil
}

// Toggle implements agent_toggle: enables or disables a registered
// agent by name without removing it from the roster.
func (o *Orchestrator) Toggle(name string, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, r := range o.registrations {
		if r.agent.Name() == name {
			r.health.Enabled = enabled
			return nil
		}
	}
	return domain.Invalid(fmt.Sprintf("unknown agent: %s", name), "name")
}

// Status implements agent_status: a snapshot of every registered
// agent's health counters.
func (o *Orchestrator) Status() map[string]Health {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]Health, len(o.registrations))
	for _, r := range o.registrations {
		out[r.agent.Name()] = r.health
	}
	return out
}

// Run implements agent_run (§4.H): executes every active, enabled agent
// in priority order (highest first, registration order among equal
// priorities), each bounded by perAgentTimeout. A timing out or erroring
// agent is skipped and its health counters updated; none of its
// suggestions are kept.
func (o *Orchestrator) Run(ctx AgentContext) (*RunResult, error) {
	o.mu.Lock()
	regs := make([]*registration, len(o.registrations))
	copy(regs, o.registrations)
	o.mu.Unlock()

	// Registration order carries no priority guarantee by itself — a
	// roster reload or a newly registered agent could land anywhere in
	// o.registrations, so priority is enforced here rather than assumed.
	sort.SliceStable(regs, func(i, j int) bool {
		return priorityRank(regs[i].agent.Priority()) > priorityRank(regs[j].agent.Priority())
	})

	var suggestions []domain.Suggestion

	for _, r := range regs {
		if !r.health.Enabled || !r.agent.Activate(ctx) {
			continue
		}

		start := time.Now()
		result, err := runWithTimeout(r.agent, ctx, perAgentTimeout)
		elapsed := time.Since(start)

		o.mu.Lock()
		r.health.TotalTime += elapsed
		o.mu.Unlock()

		decision := &domain.AgentDecision{
			AgentName:    r.agent.Name(),
			ActionType:   "agent_run",
			InputContext: fmt.Sprintf("phase=%s usage=%.1f%%", ctx.CurrentPhase, ctx.ContextUsagePercent),
			ProjectName:  ctx.ProjectID,
			SessionID:    ctx.SessionID,
		}

		if err != nil {
			o.mu.Lock()
			r.health.Errors++
			r.health.LastError = err.Error()
			o.mu.Unlock()
			decision.DecisionMade = "skipped: " + err.Error()
			o.store.RecordAgentDecision(decision)
			continue
		}

		decision.DecisionMade = fmt.Sprintf("%d suggestion(s)", len(result))
		o.store.RecordAgentDecision(decision)
		suggestions = append(suggestions, result...)
	}

	if len(suggestions) > 0 {
		o.obs.Publish(observable.TopicAgentSuggestions, &RunResult{
			Suggestions: suggestions, SessionID: ctx.SessionID, ProjectID: ctx.ProjectID,
		})
	}

	return &RunResult{Suggestions: suggestions, SessionID: ctx.SessionID, ProjectID: ctx.ProjectID}, nil
}

// priorityRank orders Priority values from highest to lowest so Run can
// sort the roster into strictly non-increasing priority order.
func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// runWithTimeout runs a.Run(ctx) on its own goroutine and returns a
// timeout error if it doesn't finish within d. The goroutine is not
// forcibly killed (Go has no such primitive) — it is abandoned and its
// result discarded, matching the "results are discarded, side effects
// are not undone" cancellation semantics applied elsewhere.
func runWithTimeout(a Agent, ctx AgentContext, d time.Duration) ([]domain.Suggestion, error) {
	type outcome struct {
		suggestions []domain.Suggestion
		err         error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("agent panicked: %v", rec)}
			}
		}()
		s, err := a.Run(ctx)
		done <- outcome{suggestions: s, err: err}
	}()

	select {
	case o := <-done:
		return o.suggestions, o.err
	case <-time.After(d):
		return nil, fmt.Errorf("agent %s exceeded %s timeout", a.Name(), d)
	}
}
