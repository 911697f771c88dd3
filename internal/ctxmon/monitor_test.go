package ctxmon

import (
	"path/filepath"
	"testing"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/session"
	"github.com/DEVCOACH/internal/store"
)

func setupMonitor(t *testing.T) (*Monitor, *domain.Session, func()) {
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

	return New(st, obs), sess, func() { st.Close() }
}

func TestTrackUsage_UpdatesStatus(t *testing.T) {
	mon, sess, cleanup := setupMonitor(t)
	defer cleanup()

	if err := mon.TrackUsage(sess.ID, domain.PhasePlanning, 2000, "plan"); err != nil {
		t.Fatalf("TrackUsage failed: %v", err)
	}

	status, err := mon.GetStatus(sess.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.UsedTokens != 2000 {
		t.Errorf("expected used_tokens 2000, got %d", status.UsedTokens)
	}
	if status.PhaseBreakdown["planning"] != 2000 {
		t.Errorf("expected planning breakdown 2000, got %d", status.PhaseBreakdown["planning"])
	}
}

func TestPredict_FeasibilityMargin(t *testing.T) {
	mon, sess, cleanup := setupMonitor(t)
	defer cleanup()

	pred, err := mon.Predict(sess.ID, []string{"fix typo", "refactor entire module"})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.RemainingCapacity != sess.ContextBudget {
		t.Errorf("expected full remaining capacity, got %d", pred.RemainingCapacity)
	}
	if len(pred.TasksFeasible) == 0 {
		t.Error("expected at least the cheap task to be feasible")
	}
}

func TestOptimize_SkipsRiskyWhenPreserving(t *testing.T) {
	mon, sess, cleanup := setupMonitor(t)
	defer cleanup()

	if err := mon.TrackUsage(sess.ID, domain.PhaseImplementation, 10000, "work"); err != nil {
		t.Fatalf("TrackUsage failed: %v", err)
	}

	result, err := mon.Optimize(sess.ID, 5000, true)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	for _, applied := range result.OptimizationsApplied {
		if applied == "summarize_prior_conversation" {
			t.Error("expected risky strategy to be skipped when preserving functionality")
		}
	}
	if result.TokensSaved == 0 {
		t.Error("expected some tokens saved")
	}
}

func TestOptimize_RecordsNegativeOptimizationSampleAndShrinksUsage(t *testing.T) {
	mon, sess, cleanup := setupMonitor(t)
	defer cleanup()

	if err := mon.TrackUsage(sess.ID, domain.PhaseImplementation, 10000, "work"); err != nil {
		t.Fatalf("TrackUsage failed: %v", err)
	}

	result, err := mon.Optimize(sess.ID, 1000, false)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if result.TokensSaved == 0 {
		t.Fatal("expected some tokens saved")
	}

	samples, err := mon.store.ListContextSamples(sess.ID)
	if err != nil {
		t.Fatalf("ListContextSamples failed: %v", err)
	}
	last := samples[len(samples)-1]
	if last.Kind != domain.ContextSampleKindOptimization {
		t.Errorf("expected optimization sample kind, got %q", last.Kind)
	}
	if last.Tokens >= 0 {
		t.Errorf("expected a negative token delta for freed context, got %d", last.Tokens)
	}
	if -last.Tokens != result.TokensSaved {
		t.Errorf("expected sample to record -%d tokens, got %d", result.TokensSaved, last.Tokens)
	}

	status, err := mon.GetStatus(sess.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.UsedTokens != 10000-result.TokensSaved {
		t.Errorf("expected used tokens %d, got %d", 10000-result.TokensSaved, status.UsedTokens)
	}
}
