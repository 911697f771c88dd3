package project

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

func setupTracker(t *testing.T) (*Tracker, *store.Store, func()) {
	tempDir := t.TempDir()
	st, err := store.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	return New(st, observable.New()), st, func() { st.Close() }
}

// completeSession creates and immediately completes a session with the
// given line count, backdating end_time so sessions can be ordered by
// recency; elapsed time within each session is negligible here, so
// velocity differences come from lines alone. It returns the session's ID.
func completeSession(t *testing.T, st *store.Store, project string, lines int, daysAgo float64) string {
	t.Helper()
	sess := &domain.Session{
		ProjectName:  project,
		Kind:         domain.KindFeature,
		CurrentPhase: domain.PhasePlanning,
		Status:       domain.StatusActive,
		Scope:        domain.Scope{Lines: 1000},
	}
	if err := st.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	metrics := domain.Metrics{LinesWritten: lines, VelocityScore: float64(lines)}
	endTime := time.Now().Add(-time.Duration(daysAgo*24) * time.Hour).Add(time.Hour)
	if err := st.CompleteSession(sess.ID, metrics, endTime); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}
	return sess.ID
}

func TestAnalyzeVelocity_NoSessions(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	analysis, err := tracker.AnalyzeVelocity("ghost-project", nil)
	if err != nil {
		t.Fatalf("AnalyzeVelocity failed: %v", err)
	}
	if analysis.Trend != TrendStable {
		t.Errorf("expected stable trend with no sessions, got %s", analysis.Trend)
	}
}

func TestAnalyzeVelocity_DecliningTrend(t *testing.T) {
	tracker, st, cleanup := setupTracker(t)
	defer cleanup()

	completeSession(t, st, "demo", 1000, 4)
	completeSession(t, st, "demo", 1000, 3)
	completeSession(t, st, "demo", 100, 2)
	completeSession(t, st, "demo", 100, 1)

	analysis, err := tracker.AnalyzeVelocity("demo", nil)
	if err != nil {
		t.Fatalf("AnalyzeVelocity failed: %v", err)
	}
	if analysis.Trend != TrendDeclining {
		t.Errorf("expected declining trend, got %s (factors=%v)", analysis.Trend, analysis.Factors)
	}
}

func TestReportBlocker_RejectsUnknownKind(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	_, err := tracker.ReportBlocker("sess-1", "demo", domain.BlockerKind("made_up"), "desc", 3)
	ce := domain.AsCoordError(err)
	if ce.Code != domain.ErrInvalidParameters {
		t.Errorf("expected InvalidParameters, got %v", ce.Code)
	}
}

func TestReportAndResolveBlocker(t *testing.T) {
	tracker, st, cleanup := setupTracker(t)
	defer cleanup()

	sessID := completeSession(t, st, "demo", 0, 0)
	b, err := tracker.ReportBlocker(sessID, "demo", domain.BlockerTechnical, "flaky dependency", 5)
	if err != nil {
		t.Fatalf("ReportBlocker failed: %v", err)
	}

	resolved, err := tracker.ResolveBlocker(b.ID, "pinned the dependency version")
	if err != nil {
		t.Fatalf("ResolveBlocker failed: %v", err)
	}
	if resolved.TimeToResolve == nil {
		t.Error("expected time_to_resolve to be recorded")
	}
}

func TestResolveBlocker_UnknownID(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	_, err := tracker.ResolveBlocker("does-not-exist", "n/a")
	ce := domain.AsCoordError(err)
	if ce.Code != domain.ErrBlockerNotFound {
		t.Errorf("expected BlockerNotFound, got %v", ce.Code)
	}
}

func TestGenerateReport_SummarizesSessionsAndBlockers(t *testing.T) {
	tracker, st, cleanup := setupTracker(t)
	defer cleanup()

	completeSession(t, st, "demo", 500, 2)
	sessID := completeSession(t, st, "demo", 600, 1)
	if _, err := tracker.ReportBlocker(sessID, "demo", domain.BlockerContext, "ran out of budget", 2); err != nil {
		t.Fatalf("ReportBlocker failed: %v", err)
	}

	report, err := tracker.GenerateReport("demo", nil, true)
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if report.SessionsSummary.Total != 2 {
		t.Errorf("expected 2 sessions, got %d", report.SessionsSummary.Total)
	}
	if report.ProductivityMetrics.TotalLinesWritten != 1100 {
		t.Errorf("expected 1100 total lines, got %d", report.ProductivityMetrics.TotalLinesWritten)
	}
	if report.BlockersSummary.Total != 1 {
		t.Errorf("expected 1 blocker, got %d", report.BlockersSummary.Total)
	}
	if report.Predictions == nil {
		t.Error("expected predictions to be included")
	}
}
