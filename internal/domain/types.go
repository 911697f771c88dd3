// Package domain holds the data model shared by every component: sessions,
// checkpoints, context samples, reality snapshots, projects, blockers,
// symbols, agent decisions, quick actions and document metadata (§3).
package domain

import "time"

// SessionKind enumerates the kinds of coding session tracked.
type SessionKind string

const (
	KindFeature       SessionKind = "feature"
	KindBugfix        SessionKind = "bugfix"
	KindRefactor      SessionKind = "refactor"
	KindDocumentation SessionKind = "documentation"
)

func (k SessionKind) Valid() bool {
	switch k {
	case KindFeature, KindBugfix, KindRefactor, KindDocumentation:
		return true
	}
	return false
}

// Phase enumerates the four phases a session moves through.
type Phase string

const (
	PhasePlanning       Phase = "planning"
	PhaseImplementation Phase = "implementation"
	PhaseTesting        Phase = "testing"
	PhaseDocumentation  Phase = "documentation"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusActive     Status = "active"
	StatusCheckpoint Status = "checkpoint"
	StatusHandoff    Status = "handoff"
	StatusComplete   Status = "complete"
)

// Scope is the estimated size of a session's work, used to derive its
// context budget.
type Scope struct {
	Lines int `json:"lines"`
	Tests int `json:"tests"`
	Docs  int `json:"docs"`
}

// PhaseAllocation is the per-phase share of a session's context budget,
// derived at start as 10:50:25:15 of the total.
type PhaseAllocation struct {
	Planning       int `json:"planning"`
	Implementation int `json:"implementation"`
	Testing        int `json:"testing"`
	Documentation  int `json:"documentation"`
}

// CheckpointThresholds are the usage-percent points at which a session is
// expected to checkpoint: 35, 60, 70, 85.
var CheckpointThresholds = [4]float64{35, 60, 70, 85}

// Metrics is a session's progress counters. Frozen once status is
// complete or handoff.
type Metrics struct {
	LinesWritten  int     `json:"lines_written"`
	TestsWritten  int     `json:"tests_written"`
	TestsPassing  int     `json:"tests_passing"`
	DocsUpdated   int     `json:"docs_updated"`
	VelocityScore float64 `json:"velocity_score"`
}

// Session is a bounded development task with a token budget (§3).
type Session struct {
	ID                 string          `json:"id"`
	ProjectName        string          `json:"project_name"`
	Kind               SessionKind     `json:"kind"`
	StartTime          time.Time       `json:"start_time"`
	EstimatedCompleted *time.Time      `json:"estimated_completion_time,omitempty"`
	EndTime            *time.Time      `json:"end_time,omitempty"`
	CurrentPhase       Phase           `json:"current_phase"`
	Status             Status          `json:"status"`
	Scope              Scope           `json:"scope"`
	ContextBudget      int             `json:"context_budget"`
	ContextUsed        int             `json:"context_used"`
	PhaseAllocation    PhaseAllocation `json:"phase_allocation"`
	Metrics            Metrics         `json:"metrics"`
}

// UsagePercent returns context_used / context_budget * 100, or 0 when the
// budget is non-positive (should not happen, but never divide by zero).
func (s *Session) UsagePercent() float64 {
	if s.ContextBudget <= 0 {
		return 0
	}
	return float64(s.ContextUsed) / float64(s.ContextBudget) * 100
}

// Frozen reports whether metrics and budget may no longer change.
func (s *Session) Frozen() bool {
	return s.Status == StatusComplete || s.Status == StatusHandoff
}

// Checkpoint is an immutable, durable point-in-time snapshot of session
// progress (§3). Checkpoint 0 is synthesized at session start.
type Checkpoint struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"session_id"`
	Number              int       `json:"number"`
	Timestamp           time.Time `json:"timestamp"`
	ContextUsed         int       `json:"context_used"`
	CommitHash          string    `json:"commit_hash,omitempty"`
	CompletedComponents []string  `json:"completed_components"`
	Metrics             Metrics   `json:"metrics"`
	ContinuationPlan    string    `json:"continuation_plan,omitempty"`
}

// ContextSampleKind distinguishes ordinary usage growth from context
// freed by optimization. Only ContextSampleKindOptimization may carry a
// negative Tokens value; ContextSampleKindUsage's delta is always
// positive, matching track_usage/checkpoint's accounting.
type ContextSampleKind string

const (
	ContextSampleKindUsage        ContextSampleKind = "usage"
	ContextSampleKindOptimization ContextSampleKind = "optimization"
)

// ContextSample is an append-only record of token usage within a session.
// Tokens is the signed delta this sample contributes to context_used; a
// session's context_used always equals the sum of its samples' Tokens.
type ContextSample struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	Phase     Phase             `json:"phase"`
	Tokens    int               `json:"tokens"`
	Operation string            `json:"operation"`
	Kind      ContextSampleKind `json:"kind"`
}

// DiscrepancyKind enumerates what a reality check found wrong.
type DiscrepancyKind string

const (
	DiscFileMismatch DiscrepancyKind = "file_mismatch"
	DiscTestFailure  DiscrepancyKind = "test_failure"
	DiscDocGap       DiscrepancyKind = "documentation_gap"
	DiscStateDrift   DiscrepancyKind = "state_drift"
)

// Severity enumerates discrepancy severity.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Discrepancy is a single item found by a reality check.
type Discrepancy struct {
	ID            string          `json:"id"`
	Kind          DiscrepancyKind `json:"kind"`
	Severity      Severity        `json:"severity"`
	Description   string          `json:"description"`
	Location      string          `json:"location,omitempty"`
	SuggestedFix  string          `json:"suggested_fix,omitempty"`
	AutoFixable   bool            `json:"auto_fixable"`
	UIPriority    int             `json:"ui_priority"`
}

// RealitySnapshot is an immutable record of a reality check run.
type RealitySnapshot struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"`
	Timestamp       time.Time     `json:"timestamp"`
	Discrepancies   []Discrepancy `json:"discrepancies"`
	ConfidenceScore int           `json:"confidence_score"`
}

// BlockerKind enumerates what is blocking progress.
type BlockerKind string

const (
	BlockerTechnical           BlockerKind = "technical"
	BlockerContext             BlockerKind = "context"
	BlockerExternal            BlockerKind = "external"
	BlockerUnclearRequirement  BlockerKind = "unclear_requirement"
)

// Blocker records an obstacle encountered during a session.
type Blocker struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	ProjectTag     string      `json:"project_tag"`
	Kind           BlockerKind `json:"kind"`
	Description    string      `json:"description"`
	Impact         int         `json:"impact"`
	CreatedAt      time.Time   `json:"created_at"`
	Resolution     string      `json:"resolution,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
	TimeToResolve  *time.Duration `json:"time_to_resolve,omitempty"`
}

// SymbolType enumerates the kind of language construct a symbol names.
type SymbolType string

const (
	SymbolClass     SymbolType = "class"
	SymbolFunction  SymbolType = "function"
	SymbolVariable  SymbolType = "variable"
	SymbolConstant  SymbolType = "constant"
	SymbolInterface SymbolType = "interface"
)

// Symbol is a canonical name assigned to a concept within a project.
// Unique on (project, concept, context_type).
type Symbol struct {
	ID              string     `json:"id"`
	ProjectName     string     `json:"project_name"`
	Concept         string     `json:"concept"`
	ChosenName      string     `json:"chosen_name"`
	ContextType     SymbolType `json:"context_type"`
	Confidence      float64    `json:"confidence"`
	UsageCount      int        `json:"usage_count"`
	CreatedByAgent  string     `json:"created_by_agent"`
	SessionID       string     `json:"session_id,omitempty"`
}

// AgentDecision is a weak, append-only long-term memory entry recorded by
// the agent orchestrator. Its foreign keys to sessions are deliberately
// relaxed (§4.A) so it survives session deletion.
type AgentDecision struct {
	ID            string    `json:"id"`
	AgentName     string    `json:"agent_name"`
	ActionType    string    `json:"action_type"`
	InputContext  string    `json:"input_context"`
	DecisionMade  string    `json:"decision_made"`
	Outcome       *bool     `json:"outcome,omitempty"`
	ProjectName   string    `json:"project_name"`
	SessionID     string    `json:"session_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// QuickActionStep is one step of a quick action's tool sequence.
type QuickActionStep struct {
	Tool              string                 `json:"tool"`
	ParameterTemplate map[string]interface{} `json:"parameter_template"`
}

// QuickAction is a named, ordered sequence of tool calls an operator can
// trigger with one call.
type QuickAction struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Steps       []QuickActionStep `json:"steps"`
	UIGroup     string            `json:"ui_group,omitempty"`
	Shortcut    string            `json:"shortcut,omitempty"`
	UsageCount  int               `json:"usage_count"`
	LastUsed    *time.Time        `json:"last_used,omitempty"`
}

// Project aggregates cross-session statistics for a named project.
type Project struct {
	Name                string    `json:"name"`
	SessionsCompleted   int       `json:"sessions_completed"`
	TotalLinesWritten   int       `json:"total_lines_written"`
	AverageVelocity     float64   `json:"average_velocity"`
	VelocitySampleCount int       `json:"-"`
	CompletionRate      float64   `json:"completion_rate"`
	CommonBlockerTags   []string  `json:"common_blocker_tags"`
	TechStack           []string  `json:"tech_stack"`
	CreatedAt           time.Time `json:"created_at"`
}

// DocumentMetadata records what was generated by the documentation engine.
type DocumentMetadata struct {
	Path       string    `json:"path"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	GeneratedAt time.Time `json:"generated_at"`
	WordCount  int       `json:"word_count"`
	Sections   []string  `json:"sections"`
	References []string  `json:"references"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Suggestion is a prioritized, optionally actionable recommendation
// emitted by an advisory agent.
type Suggestion struct {
	AgentName        string            `json:"agent_name"`
	Kind             string            `json:"kind"`
	Priority         string            `json:"priority"` // critical|high|medium|low
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	SuggestedTool    *SuggestedToolCall `json:"suggested_tool_call,omitempty"`
	Confidence       float64           `json:"confidence"`
}

// SuggestedToolCall binds a suggestion to a concrete tool invocation.
type SuggestedToolCall struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}
