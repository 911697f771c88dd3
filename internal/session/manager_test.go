package session

import (
	"path/filepath"
	"testing"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

func setupManager(t *testing.T) (*Manager, func()) {
	tempDir := t.TempDir()
	st, err := store.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	mgr := New(st, observable.New(), nil, nil, nil)
	return mgr, func() { st.Close() }
}

func TestStart_BudgetMath(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	sess, err := mgr.Start("demo", domain.KindFeature, domain.Scope{Lines: 1000, Tests: 500, Docs: 200}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if sess.ContextBudget != 23880 {
		t.Errorf("expected budget 23880, got %d", sess.ContextBudget)
	}
	want := domain.PhaseAllocation{Planning: 2388, Implementation: 11940, Testing: 5970, Documentation: 3582}
	if sess.PhaseAllocation != want {
		t.Errorf("expected allocation %+v, got %+v", want, sess.PhaseAllocation)
	}
}

func TestStart_RejectsNegativeScope(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	if _, err := mgr.Start("demo", domain.KindFeature, domain.Scope{Lines: -1}, nil); err == nil {
		t.Fatal("expected error for negative scope")
	}
}

func TestCheckpoint_Delta(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	sess, err := mgr.Start("demo", domain.KindFeature, domain.Scope{Lines: 1000, Tests: 500, Docs: 200}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := mgr.store.AppendContextSample(&domain.ContextSample{
		SessionID: sess.ID, Phase: domain.PhasePlanning, Tokens: 2000, Operation: "plan",
	}); err != nil {
		t.Fatalf("AppendContextSample failed: %v", err)
	}

	result, err := mgr.Checkpoint(sess.ID, []string{"core"}, CheckpointMetrics{
		Lines: 500, TestsPassing: 10, ContextUsedPercent: 35,
	}, "", false)
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}

	if result.Checkpoint.ContextUsed != 8358 {
		t.Errorf("expected context_used 8358, got %d", result.Checkpoint.ContextUsed)
	}

	samples, err := mgr.store.ListContextSamples(sess.ID)
	if err != nil {
		t.Fatalf("ListContextSamples failed: %v", err)
	}
	last := samples[len(samples)-1]
	if last.Tokens != 6358 {
		t.Errorf("expected delta sample of 6358 tokens, got %d", last.Tokens)
	}
	if last.Phase != domain.PhaseImplementation {
		t.Errorf("expected delta sample tagged implementation, got %s", last.Phase)
	}
}

func TestCheckpoint_RejectsNonActiveSession(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	sess, err := mgr.Start("demo", domain.KindFeature, domain.Scope{Lines: 10, Tests: 10, Docs: 10}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := mgr.Complete(sess.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	_, err = mgr.Checkpoint(sess.ID, nil, CheckpointMetrics{ContextUsedPercent: 50}, "", false)
	ce := domain.AsCoordError(err)
	if ce.Code != domain.ErrInvalidState {
		t.Errorf("expected InvalidState, got %v", ce.Code)
	}
}

func TestSuggestActions_ChecksThresholds(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	sess, err := mgr.Start("demo", domain.KindFeature, domain.Scope{Lines: 1000, Tests: 500, Docs: 200}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := mgr.Checkpoint(sess.ID, nil, CheckpointMetrics{ContextUsedPercent: 55}, "", false); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}

	suggestions, err := mgr.SuggestActions(sess.ID, 5)
	if err != nil {
		t.Fatalf("SuggestActions failed: %v", err)
	}

	var foundCheckpoint bool
	for _, s := range suggestions {
		if s.ActionID == "create_checkpoint" {
			foundCheckpoint = true
			if s.Confidence < 0.9 {
				t.Errorf("expected checkpoint suggestion confidence >= 0.9, got %f", s.Confidence)
			}
		}
	}
	if !foundCheckpoint {
		t.Error("expected a create_checkpoint suggestion above 50% usage")
	}
}
