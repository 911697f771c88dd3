package session

import (
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// CheckpointMetrics is the subset of progress counters a caller reports at
// checkpoint time (§4.C checkpoint): cumulative lines written, cumulative
// passing tests, and the caller's own estimate of context_used_percent.
type CheckpointMetrics struct {
	Lines              int
	TestsPassing       int
	ContextUsedPercent float64
}

// CheckpointResult is what checkpoint() returns to its caller.
type CheckpointResult struct {
	CheckpointID     string
	CommitHash       string
	Checkpoint       *domain.Checkpoint
	ContinuationPlan string
}

// HandoffResult is what handoff() returns to its caller.
type HandoffResult struct {
	HandoffDocument     *domain.DocumentMetadata
	ContextRequirements []string
	PrerequisiteChecks  []string
	NextSessionEstimate time.Duration
}

// QuickActionStepResult is the outcome of one step of a quick action.
type QuickActionStepResult struct {
	Tool   string      `json:"tool"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ActionSuggestion is one entry of suggest_actions' output.
type ActionSuggestion struct {
	ActionID   string  `json:"action_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// VCS is the version-control capability checkpoint/handoff need: a single
// commit of the working tree.
type VCS interface {
	Commit(message string) (hash string, err error)
}

// DocEngine is the documentation capability handoff() needs.
type DocEngine interface {
	GenerateHandoff(sess *domain.Session, nextGoals []string, includeContextDump bool) (*domain.DocumentMetadata, error)
}

// ToolExecutor dispatches a tool call by name, used by execute_quick_action
// to run each step of a quick action (§4.I).
type ToolExecutor interface {
	Execute(name string, params map[string]interface{}) (interface{}, error)
}
