package tools

import (
	"testing"

	"github.com/DEVCOACH/internal/domain"
)

func TestRegister_RejectsReservedNameAndDuplicates(t *testing.T) {
	r := New()

	err := r.Register(Definition{Name: listToolsName, Handler: func(map[string]interface{}) (interface{}, error) { return nil, nil }})
	if err == nil {
		t.Fatal("expected error registering reserved name")
	}

	def := Definition{Name: "ping", Handler: func(map[string]interface{}) (interface{}, error) { return "pong", nil }}
	if err := r.Register(def); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(def); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}

func TestDispatch_ListTools(t *testing.T) {
	r := New()
	if err := r.Register(Definition{
		Name:       "ping",
		Schema:     []Field{{Name: "who", Type: TypeString, Required: true}},
		SideEffect: SideEffectRead,
		Handler:    func(map[string]interface{}) (interface{}, error) { return "pong", nil },
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result := r.Dispatch(listToolsName, nil)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	summaries, ok := result.Value.([]Summary)
	if !ok || len(summaries) != 1 || summaries[0].Name != "ping" {
		t.Fatalf("unexpected ListTools result: %#v", result.Value)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := New()
	result := r.Dispatch("does_not_exist", nil)
	if result.Error == nil || result.Error.Code != domain.ErrUnknownTool {
		t.Fatalf("expected ErrUnknownTool, got %#v", result.Error)
	}
}

func TestDispatch_MissingRequiredField(t *testing.T) {
	r := New()
	if err := r.Register(Definition{
		Name:   "greet",
		Schema: []Field{{Name: "name", Type: TypeString, Required: true}},
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return "hello " + getString(p, "name"), nil
		},
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result := r.Dispatch("greet", map[string]interface{}{})
	if result.Error == nil || result.Error.Code != domain.ErrInvalidParameters {
		t.Fatalf("expected ErrInvalidParameters, got %#v", result.Error)
	}
}

func TestDispatch_CoercesFloatToInt(t *testing.T) {
	r := New()
	if err := r.Register(Definition{
		Name:   "double",
		Schema: []Field{{Name: "n", Type: TypeInt, Required: true}},
		Handler: func(p map[string]interface{}) (interface{}, error) {
			n := getInt(p, "n")
			return n * 2, nil
		},
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result := r.Dispatch("double", map[string]interface{}{"n": float64(21)})
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Value.(int) != 42 {
		t.Fatalf("expected 42, got %v", result.Value)
	}
}

func TestDispatch_HandlerErrorBecomesCoordError(t *testing.T) {
	r := New()
	if err := r.Register(Definition{
		Name:    "fail",
		Handler: func(map[string]interface{}) (interface{}, error) { return nil, domain.NewError(domain.ErrConflict, "nope") },
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result := r.Dispatch("fail", nil)
	if result.Error == nil || result.Error.Code != domain.ErrConflict {
		t.Fatalf("expected ErrConflict, got %#v", result.Error)
	}
}
