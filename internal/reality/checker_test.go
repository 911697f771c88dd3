package reality

import (
	"path/filepath"
	"testing"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/session"
	"github.com/DEVCOACH/internal/store"
)

func setupChecker(t *testing.T) (*Checker, *domain.Session, *store.Store, func()) {
	tempDir := t.TempDir()
	st, err := store.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	obs := observable.New()
	sessMgr := session.New(st, obs, nil, nil, nil)

	sess, err := sessMgr.Start("demo", domain.KindFeature, domain.Scope{Lines: 1000, Tests: 500, Docs: 200}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	checker := New(st, obs, nil, nil, tempDir)
	return checker, sess, st, func() { st.Close() }
}

func TestPerformCheck_MissingFile(t *testing.T) {
	checker, sess, st, cleanup := setupChecker(t)
	defer cleanup()

	cp := &domain.Checkpoint{
		SessionID:           sess.ID,
		Number:              1,
		CompletedComponents: []string{"src/managers/SessionManager.ts"},
	}
	if err := st.RecordCheckpoint(cp, sess.ID, domain.PhaseImplementation, "checkpoint"); err != nil {
		t.Fatalf("RecordCheckpoint failed: %v", err)
	}

	snapshot, recs, err := checker.PerformCheck(sess.ID, CheckQuick, nil)
	if err != nil {
		t.Fatalf("PerformCheck failed: %v", err)
	}

	if len(snapshot.Discrepancies) != 1 {
		t.Fatalf("expected exactly 1 discrepancy, got %d: %+v", len(snapshot.Discrepancies), snapshot.Discrepancies)
	}
	if snapshot.Discrepancies[0].Kind != domain.DiscFileMismatch {
		t.Errorf("expected file_mismatch, got %s", snapshot.Discrepancies[0].Kind)
	}
	if snapshot.ConfidenceScore != 80 {
		t.Errorf("expected confidence 80, got %d", snapshot.ConfidenceScore)
	}
	if len(recs) == 0 || recs[0] != "Address 1 critical issues before continuing" {
		t.Errorf("unexpected recommendations: %v", recs)
	}
}

func TestValidateMetrics_Thresholds(t *testing.T) {
	checker, sess, st, cleanup := setupChecker(t)
	defer cleanup()

	if err := st.RecordCheckpoint(&domain.Checkpoint{
		SessionID: sess.ID, Number: 1, Metrics: domain.Metrics{LinesWritten: 100},
	}, sess.ID, domain.PhaseImplementation, "checkpoint"); err != nil {
		t.Fatalf("RecordCheckpoint failed: %v", err)
	}

	reportedLines := 130
	variances, err := checker.ValidateMetrics(sess.ID, ReportedMetrics{LinesWritten: &reportedLines})
	if err != nil {
		t.Fatalf("ValidateMetrics failed: %v", err)
	}
	if len(variances) != 1 {
		t.Fatalf("expected 1 variance entry, got %d", len(variances))
	}
	if variances[0].Status != MetricMajorVariance {
		t.Errorf("expected major_variance for 30%% deviation, got %s", variances[0].Status)
	}
}
