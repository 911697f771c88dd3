package ctxmon

import (
	"fmt"
	"strings"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

// Monitor implements §4.D's operations over a session's context samples.
type Monitor struct {
	store *store.Store
	obs   *observable.Registry
}

// New builds a Monitor.
func New(st *store.Store, obs *observable.Registry) *Monitor {
	return &Monitor{store: st, obs: obs}
}

func (m *Monitor) publishStatus(sessionID string, status Status) {
	m.obs.Publish(observable.TopicContextStatus, map[string]interface{}{
		"session_id": sessionID,
		"status":     status,
	})
}

// TrackUsage implements track_usage (§4.D). Duplicate calls are accounted
// as separate samples by design — callers, not this method, are
// responsible for not double-counting.
func (m *Monitor) TrackUsage(sessionID string, phase domain.Phase, tokens int, label string) error {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return domain.StorageError(err)
	}
	if sess == nil {
		return domain.SessionNotFound(sessionID)
	}

	if _, err := m.store.ApplyContextDelta(sessionID, phase, tokens, label); err != nil {
		return domain.StorageError(err)
	}

	status, err := m.GetStatus(sessionID)
	if err != nil {
		return err
	}
	m.publishStatus(sessionID, *status)
	return nil
}

// GetStatus implements get_status (§4.D).
func (m *Monitor) GetStatus(sessionID string) (*Status, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}

	samples, err := m.store.ListContextSamples(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	breakdown := map[string]int{}
	for _, s := range samples {
		breakdown[string(s.Phase)] += s.Tokens
	}

	trend, rate := classifyTrend(samples, sess.ContextBudget)

	return &Status{
		UsedTokens:     sess.ContextUsed,
		TotalTokens:    sess.ContextBudget,
		UsagePercent:   sess.UsagePercent(),
		PhaseBreakdown: breakdown,
		Trend:          trend,
		RecentRate:     rate,
	}, nil
}

// classifyTrend implements §4.D's trend rules: critical if the last 5
// samples sum to more than 20% of budget; rising if the trailing-30-minute
// rate exceeds 2x the session's historical mean rate; else stable.
func classifyTrend(samples []*domain.ContextSample, budget int) (Trend, float64) {
	if len(samples) == 0 || budget <= 0 {
		return TrendStable, 0
	}

	last5 := samples
	if len(last5) > 5 {
		last5 = last5[len(last5)-5:]
	}
	var last5Sum int
	for _, s := range last5 {
		last5Sum += s.Tokens
	}
	if float64(last5Sum) > 0.20*float64(budget) {
		return TrendCritical, recentRate(samples)
	}

	first, last := samples[0].Timestamp, samples[len(samples)-1].Timestamp
	totalMinutes := last.Sub(first).Minutes()
	var totalTokens int
	for _, s := range samples {
		totalTokens += s.Tokens
	}
	historicalMean := 0.0
	if totalMinutes > 0 {
		historicalMean = float64(totalTokens) / totalMinutes
	}

	rate := recentRate(samples)
	if historicalMean > 0 && rate > 2*historicalMean {
		return TrendRising, rate
	}
	return TrendStable, rate
}

func recentRate(samples []*domain.ContextSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	cutoff := samples[len(samples)-1].Timestamp.Add(-30 * time.Minute)
	var tokens int
	for _, s := range samples {
		if s.Timestamp.After(cutoff) {
			tokens += s.Tokens
		}
	}
	return float64(tokens) / 30.0
}

// taskCostWeights keyword-weights a planned task's heuristic cost.
var taskCostWeights = map[string]float64{
	"refactor": 1.5,
	"rewrite":  1.6,
	"migrate":  1.4,
	"test":     1.1,
	"fix":      0.8,
	"docs":     0.7,
	"document": 0.7,
}

func heuristicCost(task string) int {
	words := strings.Fields(strings.ToLower(task))
	base := 300 + 40*len(words)
	weight := 1.0
	for _, w := range words {
		if mult, ok := taskCostWeights[w]; ok {
			weight = mult
			break
		}
	}
	return int(float64(base) * weight)
}

// Predict implements predict (§4.D).
func (m *Monitor) Predict(sessionID string, plannedTasks []string) (*Prediction, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	status, err := m.GetStatus(sessionID)
	if err != nil {
		return nil, err
	}

	remaining := sess.ContextBudget - sess.ContextUsed
	margin := remaining - int(0.10*float64(remaining))

	var feasible []string
	for _, task := range plannedTasks {
		if heuristicCost(task) <= margin {
			feasible = append(feasible, task)
		}
	}

	recommendCheckpoint := status.UsagePercent > 60 || status.Trend == TrendCritical

	var suggestions []string
	if remaining < sess.ContextBudget/10 {
		suggestions = append(suggestions, "remove_comments", "consolidate_imports")
	}
	if status.Trend != TrendStable {
		suggestions = append(suggestions, "drop_low_priority_context")
	}

	return &Prediction{
		RemainingCapacity:       remaining,
		RecommendedCheckpoint:   recommendCheckpoint,
		TasksFeasible:           feasible,
		OptimizationSuggestions: suggestions,
	}, nil
}

// Optimize implements optimize (§4.D): applies strategies in ascending
// risk order until target_reduction tokens are freed, skipping risky
// strategies when preserve_functionality is set.
func (m *Monitor) Optimize(sessionID string, targetReduction int, preserveFunctionality bool) (*OptimizeResult, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}

	var applied []string
	var sideEffects []string
	saved := 0
	used := sess.ContextUsed

	for _, strat := range strategies {
		if saved >= targetReduction {
			break
		}
		if preserveFunctionality && strat.risky {
			continue
		}
		amount := int(strat.savingRate * float64(used))
		if amount <= 0 {
			continue
		}
		applied = append(applied, strat.name)
		sideEffects = append(sideEffects, strat.sideEffect)
		saved += amount
	}

	newTotal := sess.ContextUsed
	if saved > 0 {
		label := fmt.Sprintf("optimize:%s", strings.Join(applied, "+"))
		newTotal, err = m.store.ApplyContextReduction(sessionID, sess.CurrentPhase, saved, label)
		if err != nil {
			return nil, domain.StorageError(err)
		}
	}

	return &OptimizeResult{
		OptimizationsApplied: applied,
		TokensSaved:          saved,
		SideEffects:          sideEffects,
		NewCapacity:          sess.ContextBudget - newTotal,
	}, nil
}

// Analytics implements analytics (§4.D).
func (m *Monitor) Analytics(sessionID string) (*Analytics, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	samples, err := m.store.ListContextSamples(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	sums := map[string]int{}
	counts := map[string]int{}
	var peaks []int
	running := 0
	for _, s := range samples {
		sums[string(s.Phase)] += s.Tokens
		counts[string(s.Phase)]++
		running += s.Tokens
		peaks = append(peaks, running)
	}

	avg := map[string]float64{}
	for phase, total := range sums {
		avg[phase] = float64(total) / float64(counts[phase])
	}

	efficiency := 0.0
	if sess.ContextUsed > 0 {
		efficiency = float64(sess.Metrics.LinesWritten) / float64(sess.ContextUsed)
	}

	return &Analytics{
		AveragePerPhase: avg,
		PeakUsagePoints: topPeaks(peaks, 5),
		EfficiencyScore: efficiency,
	}, nil
}

func topPeaks(running []int, n int) []int {
	if len(running) <= n {
		return running
	}
	return running[len(running)-n:]
}
