// Package agent implements the agent orchestrator (§4.H): a fixed,
// sequential roster of advisory agents run per session, each bounded by
// a wall-clock timeout and a share of the session's context budget.
package agent

import (
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// Priority mirrors domain.Suggestion's priority values, reused here for
// an agent's declared priority.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// maxTotalBudgetPercent is the ceiling the orchestrator enforces across
// every registered agent's context_budget_percent.
const maxTotalBudgetPercent = 50.0

// perAgentTimeout bounds a single agent's Run call.
const perAgentTimeout = 200 * time.Millisecond

// AgentContext is the read-only view an agent's activation predicate and
// Run method see. ProposedSymbol is an extension beyond the literal
// spec fields (session_id, project_id, current_phase,
// context_usage_percent, timestamp): it is how a caller asks the Symbol
// Contractor to check a concept/name pair without a separate tool call.
type AgentContext struct {
	SessionID           string
	ProjectID           string
	CurrentPhase        domain.Phase
	ContextUsagePercent float64
	Timestamp           time.Time
	ProposedSymbol      *ProposedSymbol
}

// ProposedSymbol names a concept an assistant wants to use, for the
// Symbol Contractor to check against the registry.
type ProposedSymbol struct {
	Concept     string
	ChosenName  string
	ContextType domain.SymbolType
}

// Agent is one entry of the orchestrator's roster.
type Agent interface {
	Name() string
	Priority() Priority
	ContextBudgetPercent() float64
	Activate(ctx AgentContext) bool
	Run(ctx AgentContext) ([]domain.Suggestion, error)
}

// Health tracks a registered agent's runtime counters, updated on every
// timeout or exception.
type Health struct {
	Errors    int           `json:"errors"`
	TotalTime time.Duration `json:"total_time"`
	LastError string        `json:"last_error,omitempty"`
	Enabled   bool          `json:"enabled"`
}

// RunResult is what agent_run returns.
type RunResult struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	SessionID   string              `json:"session_id"`
	ProjectID   string              `json:"project_id"`
}
