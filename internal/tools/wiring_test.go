package tools

import (
	"path/filepath"
	"testing"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/health"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/session"
	"github.com/DEVCOACH/internal/store"
)

func setupWiredRegistry(t *testing.T) (*Registry, *store.Store, func()) {
	tempDir := t.TempDir()
	st, err := store.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	obs := observable.New()
	mgr := session.New(st, obs, nil, nil, nil)
	checker := health.New(tempDir, st.DB(), func() error { return nil }, func() error { return nil })

	r := Build(Components{Store: st, Sessions: mgr, Health: checker})
	return r, st, func() { st.Close() }
}

func TestBuild_SessionStartEndToEnd(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	result := r.Dispatch("session_start", map[string]interface{}{
		"project": "demo",
		"kind":    string(domain.KindFeature),
		"lines":   float64(1000),
		"tests":   float64(500),
		"docs":    float64(200),
	})
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	sess, ok := result.Value.(*domain.Session)
	if !ok || sess.ID == "" {
		t.Fatalf("expected a started session, got %#v", result.Value)
	}
	if sess.ProjectName != "demo" {
		t.Fatalf("expected project demo, got %s", sess.ProjectName)
	}
}

func TestBuild_SessionStartRejectsUnknownKind(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	result := r.Dispatch("session_start", map[string]interface{}{
		"project": "demo",
		"kind":    "not-a-real-kind",
	})
	if result.Error == nil {
		t.Fatal("expected an error for an invalid session kind")
	}
}

func TestBuild_SymbolRegisterThenLookup(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	regResult := r.Dispatch("symbol_register", map[string]interface{}{
		"project":      "demo",
		"concept":      "user session token",
		"chosen_name":  "SessionToken",
		"context_type": string(domain.SymbolClass),
	})
	if regResult.Error != nil {
		t.Fatalf("unexpected error: %v", regResult.Error)
	}

	lookupResult := r.Dispatch("symbol_lookup", map[string]interface{}{
		"project":      "demo",
		"concept":      "user session token",
		"context_type": string(domain.SymbolClass),
	})
	if lookupResult.Error != nil {
		t.Fatalf("unexpected error: %v", lookupResult.Error)
	}
	sym, ok := lookupResult.Value.(*domain.Symbol)
	if !ok || sym == nil || sym.ChosenName != "SessionToken" {
		t.Fatalf("unexpected lookup result: %#v", lookupResult.Value)
	}
}

func TestBuild_SymbolRegisterRejectsBlankChosenName(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	result := r.Dispatch("symbol_register", map[string]interface{}{
		"project":      "demo",
		"concept":      "user session token",
		"chosen_name":  "   ",
		"context_type": string(domain.SymbolClass),
	})
	if result.Error == nil {
		t.Fatal("expected blank chosen_name to be rejected")
	}
}

func TestBuild_HealthCheckReportsHealthy(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	result := r.Dispatch("health_check", nil)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	body, ok := result.Value.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a map result, got %#v", result.Value)
	}
	if body["status"] != health.StatusHealthy {
		t.Fatalf("expected healthy status, got %#v", body["status"])
	}
}

func TestBuild_ListToolsIncludesWiredTools(t *testing.T) {
	r, _, cleanup := setupWiredRegistry(t)
	defer cleanup()

	result := r.Dispatch(listToolsName, nil)
	summaries := result.Value.([]Summary)
	names := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		names[s.Name] = true
	}
	for _, want := range []string{"session_start", "session_checkpoint", "symbol_register", "symbol_lookup", "health_check"} {
		if !names[want] {
			t.Fatalf("expected %s to be registered, got %v", want, names)
		}
	}
}
