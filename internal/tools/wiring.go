package tools

import (
	"fmt"

	"github.com/DEVCOACH/internal/agent"
	"github.com/DEVCOACH/internal/ctxmon"
	"github.com/DEVCOACH/internal/docs"
	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/health"
	"github.com/DEVCOACH/internal/project"
	"github.com/DEVCOACH/internal/reality"
	"github.com/DEVCOACH/internal/session"
	"github.com/DEVCOACH/internal/store"
	"github.com/DEVCOACH/internal/stringutils"
)

// Components bundles every collaborator whose operations get registered
// into a Registry. Any field may be nil; Build skips that component's
// tools rather than panicking, so a partially wired process can still
// serve the operations it has.
type Components struct {
	Store    *store.Store
	Sessions *session.Manager
	Context  *ctxmon.Monitor
	Reality  *reality.Checker
	Docs     *docs.Engine
	Project  *project.Tracker
	Agents   *agent.Orchestrator
	Health   *health.Checker
}

// Build constructs a Registry and registers every named operation
// SPEC_FULL.md's tool list assigns to a built component.
func Build(c Components) *Registry {
	r := New()

	if c.Sessions != nil {
		registerSessionTools(r, c.Sessions)
	}
	if c.Context != nil {
		registerContextTools(r, c.Context)
	}
	if c.Reality != nil {
		registerRealityTools(r, c.Reality)
	}
	if c.Docs != nil {
		registerDocTools(r, c.Docs)
	}
	if c.Project != nil {
		registerProjectTools(r, c.Project)
	}
	if c.Agents != nil {
		registerAgentTools(r, c.Agents)
	}
	if c.Store != nil {
		registerSymbolTools(r, c.Store)
	}
	if c.Health != nil {
		registerHealthTools(r, c.Health)
	}

	return r
}

func mustRegister(r *Registry, def Definition) {
	if err := r.Register(def); err != nil {
		panic(fmt.Sprintf("tools: %v", err))
	}
}

func registerSessionTools(r *Registry, mgr *session.Manager) {
	mustRegister(r, Definition{
		Name: "session_start",
		Schema: []Field{
			{Name: "project", Type: TypeString, Required: true},
			{Name: "kind", Type: TypeString, Required: true},
			{Name: "lines", Type: TypeInt, Required: false},
			{Name: "tests", Type: TypeInt, Required: false},
			{Name: "docs", Type: TypeInt, Required: false},
			{Name: "budget_override", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			scope := domain.Scope{Lines: getInt(p, "lines"), Tests: getInt(p, "tests"), Docs: getInt(p, "docs")}
			var override *int
			if v, ok := p["budget_override"]; ok {
				n := v.(int)
				override = &n
			}
			return mgr.Start(getString(p, "project"), domain.SessionKind(getString(p, "kind")), scope, override)
		},
	})

	mustRegister(r, Definition{
		Name: "session_checkpoint",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "completed", Type: TypeStringList, Required: false},
			{Name: "lines", Type: TypeInt, Required: false},
			{Name: "tests_passing", Type: TypeInt, Required: false},
			{Name: "context_used_percent", Type: TypeFloat, Required: true},
			{Name: "commit_message", Type: TypeString, Required: false},
			{Name: "force", Type: TypeBool, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			metrics := session.CheckpointMetrics{
				Lines:              getInt(p, "lines"),
				TestsPassing:       getInt(p, "tests_passing"),
				ContextUsedPercent: getFloat(p, "context_used_percent"),
			}
			return mgr.Checkpoint(getString(p, "session_id"), getStringList(p, "completed"), metrics, getString(p, "commit_message"), getBool(p, "force"))
		},
	})

	mustRegister(r, Definition{
		Name: "session_handoff",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "next_goals", Type: TypeStringList, Required: false},
			{Name: "include_context_dump", Type: TypeBool, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mgr.Handoff(getString(p, "session_id"), getStringList(p, "next_goals"), getBool(p, "include_context_dump"))
		},
	})

	mustRegister(r, Definition{
		Name:       "session_status",
		Schema:     []Field{{Name: "session_id", Type: TypeString, Required: true}},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mgr.Status(getString(p, "session_id"))
		},
	})

	mustRegister(r, Definition{
		Name: "progress_report",
		Schema: []Field{
			{Name: "project", Type: TypeString, Required: true},
			{Name: "limit", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mgr.History(getString(p, "project"), getInt(p, "limit"))
		},
	})

	mustRegister(r, Definition{
		Name: "quick_action",
		Schema: []Field{
			{Name: "action_id", Type: TypeString, Required: true},
			{Name: "session_id", Type: TypeString, Required: false},
			{Name: "params", Type: TypeObject, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mgr.ExecuteQuickAction(getString(p, "action_id"), getObject(p, "params"), getString(p, "session_id"))
		},
	})

	mustRegister(r, Definition{
		Name: "suggest_actions",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "limit", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mgr.SuggestActions(getString(p, "session_id"), getInt(p, "limit"))
		},
	})
}

func registerContextTools(r *Registry, mon *ctxmon.Monitor) {
	mustRegister(r, Definition{
		Name: "track_usage",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "phase", Type: TypeString, Required: true},
			{Name: "tokens", Type: TypeInt, Required: true},
			{Name: "label", Type: TypeString, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			err := mon.TrackUsage(getString(p, "session_id"), domain.Phase(getString(p, "phase")), getInt(p, "tokens"), getString(p, "label"))
			return nil, err
		},
	})

	mustRegister(r, Definition{
		Name:       "context_status",
		Schema:     []Field{{Name: "session_id", Type: TypeString, Required: true}},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mon.GetStatus(getString(p, "session_id"))
		},
	})

	mustRegister(r, Definition{
		Name: "context_predict",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "planned_tasks", Type: TypeStringList, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mon.Predict(getString(p, "session_id"), getStringList(p, "planned_tasks"))
		},
	})

	mustRegister(r, Definition{
		Name: "context_optimize",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "target_reduction", Type: TypeInt, Required: true},
			{Name: "preserve_functionality", Type: TypeBool, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return mon.Optimize(getString(p, "session_id"), getInt(p, "target_reduction"), getBool(p, "preserve_functionality"))
		},
	})
}

func registerRealityTools(r *Registry, checker *reality.Checker) {
	mustRegister(r, Definition{
		Name: "reality_check",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "kind", Type: TypeString, Required: false},
			{Name: "focus_areas", Type: TypeStringList, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			kind := reality.CheckKind(getString(p, "kind"))
			if kind == "" {
				kind = reality.CheckComprehensive
			}
			snapshot, recommendations, err := checker.PerformCheck(getString(p, "session_id"), kind, getStringList(p, "focus_areas"))
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"snapshot": snapshot, "recommendations": recommendations}, nil
		},
	})

	mustRegister(r, Definition{
		Name: "reality_fix",
		Schema: []Field{
			{Name: "snapshot_id", Type: TypeString, Required: true},
			{Name: "fix_ids", Type: TypeStringList, Required: true},
			{Name: "auto_commit", Type: TypeBool, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return checker.ApplyFixes(getString(p, "snapshot_id"), getStringList(p, "fix_ids"), getBool(p, "auto_commit"))
		},
	})

	mustRegister(r, Definition{
		Name: "metric_validate",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "lines_written", Type: TypeInt, Required: false},
			{Name: "tests_written", Type: TypeInt, Required: false},
			{Name: "tests_passing", Type: TypeInt, Required: false},
			{Name: "docs_updated", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			reported := reality.ReportedMetrics{
				LinesWritten: getIntPtr(p, "lines_written"),
				TestsWritten: getIntPtr(p, "tests_written"),
				TestsPassing: getIntPtr(p, "tests_passing"),
				DocsUpdated:  getIntPtr(p, "docs_updated"),
			}
			return checker.ValidateMetrics(getString(p, "session_id"), reported)
		},
	})
}

func registerDocTools(r *Registry, engine *docs.Engine) {
	mustRegister(r, Definition{
		Name: "doc_generate",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "kind", Type: TypeString, Required: true},
			{Name: "include_sections", Type: TypeStringList, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return engine.Generate(getString(p, "session_id"), docs.Kind(getString(p, "kind")), getStringList(p, "include_sections"))
		},
	})

	mustRegister(r, Definition{
		Name: "doc_update",
		Schema: []Field{
			{Name: "file_path", Type: TypeString, Required: true},
			{Name: "mode", Type: TypeString, Required: true},
			{Name: "context", Type: TypeString, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return engine.Update(getString(p, "file_path"), docs.UpdateMode(getString(p, "mode")), getString(p, "context"))
		},
	})

	mustRegister(r, Definition{
		Name:       "doc_status",
		Schema:     []Field{{Name: "paths", Type: TypeStringList, Required: true}},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return engine.CheckStatus(getStringList(p, "paths"))
		},
	})
}

func registerProjectTools(r *Registry, tracker *project.Tracker) {
	mustRegister(r, Definition{
		Name:       "velocity_analyze",
		Schema:     []Field{{Name: "project", Type: TypeString, Required: true}},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return tracker.AnalyzeVelocity(getString(p, "project"), nil)
		},
	})

	mustRegister(r, Definition{
		Name: "blocker_report",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "project_tag", Type: TypeString, Required: true},
			{Name: "kind", Type: TypeString, Required: true},
			{Name: "description", Type: TypeString, Required: true},
			{Name: "impact", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return tracker.ReportBlocker(getString(p, "session_id"), getString(p, "project_tag"), domain.BlockerKind(getString(p, "kind")), getString(p, "description"), getInt(p, "impact"))
		},
	})

	mustRegister(r, Definition{
		Name: "blocker_resolve",
		Schema: []Field{
			{Name: "blocker_id", Type: TypeString, Required: true},
			{Name: "resolution", Type: TypeString, Required: true},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return tracker.ResolveBlocker(getString(p, "blocker_id"), getString(p, "resolution"))
		},
	})

	mustRegister(r, Definition{
		Name: "project_track",
		Schema: []Field{
			{Name: "project", Type: TypeString, Required: true},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return nil, tracker.Track(getString(p, "project"), nil)
		},
	})
}

func registerAgentTools(r *Registry, orch *agent.Orchestrator) {
	mustRegister(r, Definition{
		Name: "agent_run",
		Schema: []Field{
			{Name: "session_id", Type: TypeString, Required: true},
			{Name: "project_id", Type: TypeString, Required: true},
			{Name: "phase", Type: TypeString, Required: false},
			{Name: "context_usage_percent", Type: TypeFloat, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return orch.Run(agent.AgentContext{
				SessionID:           getString(p, "session_id"),
				ProjectID:           getString(p, "project_id"),
				CurrentPhase:        domain.Phase(getString(p, "phase")),
				ContextUsagePercent: getFloat(p, "context_usage_percent"),
			})
		},
	})

	mustRegister(r, Definition{
		Name:       "agent_status",
		Schema:     nil,
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return orch.Status(), nil
		},
	})

	mustRegister(r, Definition{
		Name: "agent_toggle",
		Schema: []Field{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "enabled", Type: TypeBool, Required: true},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return nil, orch.Toggle(getString(p, "name"), getBool(p, "enabled"))
		},
	})
}

func registerSymbolTools(r *Registry, st *store.Store) {
	mustRegister(r, Definition{
		Name: "symbol_register",
		Schema: []Field{
			{Name: "project", Type: TypeString, Required: true},
			{Name: "concept", Type: TypeString, Required: true},
			{Name: "chosen_name", Type: TypeString, Required: true},
			{Name: "context_type", Type: TypeString, Required: true},
			{Name: "created_by_agent", Type: TypeString, Required: false},
			{Name: "session_id", Type: TypeString, Required: false},
		},
		SideEffect: SideEffectMutate,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			chosenName := getString(p, "chosen_name")
			if stringutils.IsEmpty(chosenName) {
				return nil, domain.Invalid("chosen_name must not be blank", "chosen_name")
			}
			sym := &domain.Symbol{
				ProjectName:    getString(p, "project"),
				Concept:        getString(p, "concept"),
				ChosenName:     chosenName,
				ContextType:    domain.SymbolType(getString(p, "context_type")),
				CreatedByAgent: getString(p, "created_by_agent"),
				SessionID:      getString(p, "session_id"),
				Confidence:     1.0,
			}
			existing, err := st.LookupSymbol(sym.ProjectName, sym.Concept, sym.ContextType)
			if err != nil {
				return nil, domain.StorageError(err)
			}
			if existing != nil {
				return nil, domain.NewError(domain.ErrConflict, fmt.Sprintf("symbol %s/%s is already registered as %s", sym.ProjectName, sym.Concept, existing.ChosenName))
			}
			if err := st.RegisterSymbol(sym); err != nil {
				return nil, domain.StorageError(err)
			}
			return sym, nil
		},
	})

	mustRegister(r, Definition{
		Name: "symbol_lookup",
		Schema: []Field{
			{Name: "project", Type: TypeString, Required: true},
			{Name: "concept", Type: TypeString, Required: true},
			{Name: "context_type", Type: TypeString, Required: true},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			sym, err := st.LookupSymbol(getString(p, "project"), getString(p, "concept"), domain.SymbolType(getString(p, "context_type")))
			if err != nil {
				return nil, domain.StorageError(err)
			}
			if sym != nil {
				st.IncrementSymbolUsage(sym.ID)
			}
			return sym, nil
		},
	})

	mustRegister(r, Definition{
		Name:       "symbol_list",
		Schema:     []Field{{Name: "project", Type: TypeString, Required: true}},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return st.ListSymbols(getString(p, "project"))
		},
	})

	mustRegister(r, Definition{
		Name: "agent_memory_query",
		Schema: []Field{
			{Name: "agent_name", Type: TypeString, Required: false},
			{Name: "action_type", Type: TypeString, Required: false},
			{Name: "project", Type: TypeString, Required: false},
			{Name: "limit", Type: TypeInt, Required: false},
		},
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			return st.QueryAgentDecisions(getString(p, "agent_name"), getString(p, "action_type"), getString(p, "project"), getInt(p, "limit"))
		},
	})
}

func registerHealthTools(r *Registry, checker *health.Checker) {
	mustRegister(r, Definition{
		Name:       "health_check",
		Schema:     nil,
		SideEffect: SideEffectRead,
		Handler: func(p map[string]interface{}) (interface{}, error) {
			status, checks := checker.Report()
			return map[string]interface{}{"status": status, "checks": checks}, nil
		},
	})
}
