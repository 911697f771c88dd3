package agent

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

func setupOrchestrator(t *testing.T) (*Orchestrator, *store.Store, func()) {
	tempDir := t.TempDir()
	st, err := store.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	orch := New(st, observable.New())
	return orch, st, func() { st.Close() }
}

func TestRegister_RejectsOverBudgetRoster(t *testing.T) {
	orch, st, cleanup := setupOrchestrator(t)
	defer cleanup()

	if err := orch.Register(NewSymbolContractor(st)); err != nil {
		t.Fatalf("Register symbol_contractor failed: %v", err)
	}
	if err := orch.Register(NewSessionOrchestrator()); err != nil {
		t.Fatalf("Register session_orchestrator failed: %v", err)
	}
	if err := orch.Register(NewContextGuardian(st)); err != nil {
		t.Fatalf("Register context_guardian failed: %v", err)
	}

	err := orch.Register(NewSessionOrchestrator())
	ce := domain.AsCoordError(err)
	if ce.Code != domain.ErrInvalidParameters {
		t.Errorf("expected InvalidParameters for over-budget roster, got %v", ce.Code)
	}
}

// TestRun_AgentActivation reproduces S4: at 30% usage in the
// implementation phase, Symbol Contractor runs with nothing to check
// (zero suggestions), Session Orchestrator emits one medium-priority
// checkpoint suggestion, and Context Guardian does not run at all.
func TestRun_AgentActivation(t *testing.T) {
	orch, st, cleanup := setupOrchestrator(t)
	defer cleanup()

	if err := orch.Register(NewSymbolContractor(st)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := orch.Register(NewSessionOrchestrator()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := orch.Register(NewContextGuardian(st)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result, err := orch.Run(AgentContext{
		SessionID:           "sess-1",
		ProjectID:           "demo",
		CurrentPhase:        domain.PhaseImplementation,
		ContextUsagePercent: 30,
		Timestamp:           time.Now(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Suggestions) != 1 {
		t.Fatalf("expected exactly 1 suggestion, got %d: %+v", len(result.Suggestions), result.Suggestions)
	}
	s := result.Suggestions[0]
	if s.AgentName != "session_orchestrator" {
		t.Errorf("expected suggestion from session_orchestrator, got %s", s.AgentName)
	}
	if s.Priority != "medium" {
		t.Errorf("expected medium priority, got %s", s.Priority)
	}
}

func TestRun_SkipsTimingOutAgent(t *testing.T) {
	orch, _, cleanup := setupOrchestrator(t)
	defer cleanup()

	if err := orch.Register(&slowAgent{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result, err := orch.Run(AgentContext{SessionID: "sess-1", ProjectID: "demo", ContextUsagePercent: 50})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("expected no suggestions from a timing-out agent, got %d", len(result.Suggestions))
	}

	status := orch.Status()
	if status["slow"].Errors != 1 {
		t.Errorf("expected 1 recorded error for the timing-out agent, got %d", status["slow"].Errors)
	}
}

// TestRun_OrdersByPriorityRegardlessOfRegistrationOrder reproduces a
// roster registered in ascending priority order and checks Run still
// executes it highest-priority-first (testable property #5).
func TestRun_OrdersByPriorityRegardlessOfRegistrationOrder(t *testing.T) {
	orch, _, cleanup := setupOrchestrator(t)
	defer cleanup()

	var order []string
	record := func(name string) *recordingAgent {
		return &recordingAgent{name: name, order: &order}
	}

	low := record("low")
	low.priority = PriorityLow
	medium := record("medium")
	medium.priority = PriorityMedium
	critical := record("critical")
	critical.priority = PriorityCritical

	if err := orch.Register(low); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := orch.Register(medium); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := orch.Register(critical); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := orch.Run(AgentContext{SessionID: "sess-1", ProjectID: "demo"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"critical", "medium", "low"}
	if len(order) != len(want) {
		t.Fatalf("expected %d agents to run, got %v", len(want), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected run order %v, got %v", want, order)
		}
	}
}

type recordingAgent struct {
	name     string
	priority Priority
	order    *[]string
}

func (a *recordingAgent) Name() string                  { return a.name }
func (a *recordingAgent) Priority() Priority             { return a.priority }
func (a *recordingAgent) ContextBudgetPercent() float64  { return 1 }
func (a *recordingAgent) Activate(ctx AgentContext) bool { return true }
func (a *recordingAgent) Run(ctx AgentContext) ([]domain.Suggestion, error) {
	*a.order = append(*a.order, a.name)
	return nil, nil
}

type slowAgent struct{}

func (a *slowAgent) Name() string                 { return "slow" }
func (a *slowAgent) Priority() Priority            { return PriorityLow }
func (a *slowAgent) ContextBudgetPercent() float64 { return 5 }
func (a *slowAgent) Activate(ctx AgentContext) bool { return true }
func (a *slowAgent) Run(ctx AgentContext) ([]domain.Suggestion, error) {
	time.Sleep(500 * time.Millisecond)
	return nil, nil
}
