// Package ctxmon implements the context monitor (§4.D): usage tracking,
// status/trend computation, feasibility prediction, and optimization
// strategies over a session's context budget.
package ctxmon

// Trend classifies how fast a session is consuming its context budget.
type Trend string

const (
	TrendStable   Trend = "stable"
	TrendRising   Trend = "rising"
	TrendCritical Trend = "critical"
)

// Status is the result of get_status.
type Status struct {
	UsedTokens     int            `json:"used_tokens"`
	TotalTokens    int            `json:"total_tokens"`
	UsagePercent   float64        `json:"usage_percent"`
	PhaseBreakdown map[string]int `json:"phase_breakdown"`
	Trend          Trend          `json:"trend"`
	RecentRate     float64        `json:"recent_rate"`
}

// Prediction is the result of predict.
type Prediction struct {
	RemainingCapacity       int      `json:"remaining_capacity"`
	RecommendedCheckpoint   bool     `json:"recommended_checkpoint"`
	TasksFeasible           []string `json:"tasks_feasible"`
	OptimizationSuggestions []string `json:"optimization_suggestions"`
}

// OptimizeResult is the result of optimize.
type OptimizeResult struct {
	OptimizationsApplied []string `json:"optimizations_applied"`
	TokensSaved          int      `json:"tokens_saved"`
	SideEffects          []string `json:"side_effects"`
	NewCapacity          int      `json:"new_capacity"`
}

// Analytics is the result of analytics.
type Analytics struct {
	AveragePerPhase map[string]float64 `json:"average_per_phase"`
	PeakUsagePoints []int              `json:"peak_usage_points"`
	EfficiencyScore float64            `json:"efficiency_score"`
}

// strategy is one optimization technique, in ascending risk order.
type strategy struct {
	name       string
	savingRate float64 // fraction of current used tokens it frees
	sideEffect string
	risky      bool
}

var strategies = []strategy{
	{name: "remove_comments", savingRate: 0.05, sideEffect: "stripped non-essential comments from working context", risky: false},
	{name: "consolidate_imports", savingRate: 0.03, sideEffect: "merged duplicate import/reference blocks", risky: false},
	{name: "drop_low_priority_context", savingRate: 0.10, sideEffect: "discarded low-priority scratch context", risky: false},
	{name: "summarize_prior_conversation", savingRate: 0.20, sideEffect: "replaced earlier conversation turns with a summary", risky: true},
}
