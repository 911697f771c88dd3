package project

import (
	"fmt"
	"sort"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

// Tracker implements §4.G's operations.
type Tracker struct {
	store *store.Store
	obs   *observable.Registry
}

// New builds a Tracker.
func New(st *store.Store, obs *observable.Registry) *Tracker {
	return &Tracker{store: st, obs: obs}
}

// Track implements track (§4.G): upsert the project row and recompute
// aggregates from its completed sessions. Session-completion already
// folds a single session's metrics into the running aggregate (see
// store.CompleteSession); Track recomputes the tag/stack slices from
// everything seen so far, which completing a session alone doesn't do.
func (t *Tracker) Track(projectName string, sess *domain.Session) error {
	proj, err := t.store.GetProject(projectName)
	if err != nil {
		return domain.StorageError(err)
	}
	if proj == nil {
		proj = &domain.Project{Name: projectName, CreatedAt: time.Now()}
	}

	blockers, err := t.store.ListBlockersByProjectTag(projectName, false)
	if err != nil {
		return domain.StorageError(err)
	}
	tags := blockerTagCounts(blockers)

	if err := t.store.UpdateProjectAggregates(
		projectName, proj.SessionsCompleted, proj.TotalLinesWritten, proj.VelocitySampleCount,
		proj.AverageVelocity, proj.CompletionRate, tags, proj.TechStack,
	); err != nil {
		return domain.StorageError(err)
	}

	updated, err := t.store.GetProject(projectName)
	if err != nil {
		return domain.StorageError(err)
	}
	t.obs.Publish(observable.TopicProjectStatus, updated)
	return nil
}

func blockerTagCounts(blockers []*domain.Blocker) []string {
	counts := make(map[string]int)
	for _, b := range blockers {
		counts[string(b.Kind)]++
	}
	tags := make([]string, 0, len(counts))
	for kind := range counts {
		tags = append(tags, kind)
	}
	sort.Strings(tags)
	return tags
}

// AnalyzeVelocity implements analyze_velocity (§4.G). window, when given,
// bounds how far back completed sessions are considered; the considered
// sessions are then split into a recent half and a prior half by
// end_time, and the trend compares their means against a ±20% band.
func (t *Tracker) AnalyzeVelocity(projectName string, window *time.Duration) (*VelocityAnalysis, error) {
	sessions, err := t.store.ListSessions(projectName, 0)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	cutoff := time.Time{}
	if window != nil {
		cutoff = time.Now().Add(-*window)
	}

	type point struct {
		velocity float64
		end      time.Time
	}
	var points []point
	for _, sess := range sessions {
		if sess.EndTime == nil {
			continue
		}
		if !cutoff.IsZero() && sess.EndTime.Before(cutoff) {
			continue
		}
		elapsedDays := sess.EndTime.Sub(sess.StartTime).Hours() / 24
		if elapsedDays <= 0 {
			elapsedDays = 1.0 / 24
		}
		points = append(points, point{
			velocity: float64(sess.Metrics.LinesWritten) / elapsedDays,
			end:      *sess.EndTime,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].end.Before(points[j].end) })

	if len(points) == 0 {
		return &VelocityAnalysis{Trend: TrendStable, Factors: []string{"no completed sessions in window"}}, nil
	}

	var sum float64
	for _, p := range points {
		sum += p.velocity
	}
	avg := sum / float64(len(points))
	current := points[len(points)-1].velocity

	mid := len(points) / 2
	trend := TrendStable
	var factors []string
	if mid > 0 {
		var priorSum, recentSum float64
		for _, p := range points[:mid] {
			priorSum += p.velocity
		}
		for _, p := range points[mid:] {
			recentSum += p.velocity
		}
		priorMean := priorSum / float64(mid)
		recentMean := recentSum / float64(len(points)-mid)

		switch {
		case priorMean == 0:
			if recentMean > 0 {
				trend = TrendImproving
			}
		case recentMean > priorMean*1.2:
			trend = TrendImproving
			factors = append(factors, fmt.Sprintf("recent velocity %.1f exceeds prior %.1f by more than 20%%", recentMean, priorMean))
		case recentMean < priorMean*0.8:
			trend = TrendDeclining
			factors = append(factors, fmt.Sprintf("recent velocity %.1f trails prior %.1f by more than 20%%", recentMean, priorMean))
		}
	}

	return &VelocityAnalysis{
		CurrentVelocity: current,
		AverageVelocity: avg,
		Trend:           trend,
		Factors:         factors,
	}, nil
}

// ReportBlocker implements report_blocker.
func (t *Tracker) ReportBlocker(sessionID, projectTag string, kind domain.BlockerKind, description string, impact int) (*domain.Blocker, error) {
	if !validBlockerKind(kind) {
		return nil, domain.Invalid("unknown blocker kind", "kind")
	}
	b := &domain.Blocker{
		SessionID:   sessionID,
		ProjectTag:  projectTag,
		Kind:        kind,
		Description: description,
		Impact:      impact,
	}
	if err := t.store.CreateBlocker(b); err != nil {
		return nil, domain.StorageError(err)
	}
	t.obs.Publish(observable.TopicProjectStatus, b)
	return b, nil
}

func validBlockerKind(kind domain.BlockerKind) bool {
	switch kind {
	case domain.BlockerTechnical, domain.BlockerContext, domain.BlockerExternal, domain.BlockerUnclearRequirement:
		return true
	default:
		return false
	}
}

// ResolveBlocker implements resolve_blocker.
func (t *Tracker) ResolveBlocker(id, resolution string) (*domain.Blocker, error) {
	b, err := t.store.ResolveBlocker(id, resolution)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if b == nil {
		return nil, domain.NewError(domain.ErrBlockerNotFound, fmt.Sprintf("blocker not found: %s", id))
	}
	t.obs.Publish(observable.TopicProjectStatus, b)
	return b, nil
}

// GenerateReport implements generate_report (§4.G).
func (t *Tracker) GenerateReport(projectName string, timeRange *TimeRange, includePredictions bool) (*Report, error) {
	sessions, err := t.store.ListSessions(projectName, 0)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	byStatus := make(map[string]int)
	var totalLines, totalTests int
	var docsSum, docsCount int
	var consideredCount int
	for _, sess := range sessions {
		if timeRange != nil && !timeRange.contains(sess.StartTime) {
			continue
		}
		consideredCount++
		byStatus[string(sess.Status)]++
		totalLines += sess.Metrics.LinesWritten
		totalTests += sess.Metrics.TestsWritten
		if sess.Status == domain.StatusComplete {
			docsSum += sess.Metrics.DocsUpdated
			docsCount++
		}
	}

	avgDocs := 0.0
	if docsCount > 0 {
		avgDocs = float64(docsSum) / float64(docsCount)
	}

	velocity, err := t.AnalyzeVelocity(projectName, nil)
	if err != nil {
		return nil, err
	}

	blockers, err := t.store.ListBlockersByProjectTag(projectName, false)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	byType := make(map[string]int)
	for _, b := range blockers {
		byType[string(b.Kind)]++
	}

	report := &Report{
		SessionsSummary:  SessionsSummary{Total: consideredCount, ByStatus: byStatus},
		VelocityAnalysis: *velocity,
		BlockersSummary:  BlockersSummary{Total: len(blockers), ByType: byType},
		ProductivityMetrics: ProductivityMetrics{
			TotalLinesWritten:     totalLines,
			TotalTestsWritten:     totalTests,
			AverageDocsPerSession: avgDocs,
		},
	}

	if includePredictions {
		report.Predictions = t.predict(projectName, sessions, velocity)
	}

	return report, nil
}

func (t *Tracker) predict(projectName string, sessions []*domain.Session, velocity *VelocityAnalysis) *Predictions {
	pred := &Predictions{}

	var active *domain.Session
	for _, sess := range sessions {
		if sess.Status == domain.StatusActive {
			active = sess
			break
		}
	}

	if active != nil && velocity.AverageVelocity > 0 {
		remainingLines := active.Scope.Lines - active.Metrics.LinesWritten
		if remainingLines > 0 {
			days := float64(remainingLines) / velocity.AverageVelocity
			eta := time.Now().Add(time.Duration(days * 24 * float64(time.Hour)))
			pred.EstimatedCompletion = &eta
		}
	}

	switch velocity.Trend {
	case TrendDeclining:
		pred.RiskFactors = append(pred.RiskFactors, "velocity declining over the recent window")
		pred.RecommendedActions = append(pred.RecommendedActions, "review recent blockers before starting the next session")
	case TrendImproving:
		pred.RecommendedActions = append(pred.RecommendedActions, "current pace is on track, no action needed")
	}

	return pred
}
