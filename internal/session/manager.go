// Package session implements the session manager (§4.C): start,
// checkpoint, handoff, complete, status, history, execute_quick_action and
// suggest_actions over the persistent store, publishing to the observable
// registry as each operation commits.
package session

import (
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

// Manager implements §4.C's operations.
type Manager struct {
	store *store.Store
	obs   *observable.Registry
	vcs   VCS
	docs  DocEngine
	tools ToolExecutor
}

// New builds a session Manager. vcs, docs and tools may be nil; Checkpoint
// and Handoff degrade gracefully (no commit attempted, no handoff document
// generated) when their collaborator is absent, and ExecuteQuickAction
// returns a single ExternalToolError, before running any step, instead
// of panicking.
func New(st *store.Store, obs *observable.Registry, vcs VCS, docs DocEngine, tools ToolExecutor) *Manager {
	return &Manager{store: st, obs: obs, vcs: vcs, docs: docs, tools: tools}
}

// SetToolExecutor wires the dispatcher ExecuteQuickAction uses to run a
// quick action's steps. It exists because the dispatcher's own registry
// is built from this Manager, so the two cannot be constructed in a
// single step; callers build the Manager, build the registry around it,
// then call SetToolExecutor with that registry.
func (m *Manager) SetToolExecutor(tools ToolExecutor) {
	m.tools = tools
}

func (m *Manager) publishSessionState(sess *domain.Session) {
	m.obs.Publish(observable.TopicSessionStatus, sess)
	m.obs.Publish(observable.TopicContextStatus, map[string]interface{}{
		"session_id":     sess.ID,
		"usage_percent":  sess.UsagePercent(),
		"context_used":   sess.ContextUsed,
		"context_budget": sess.ContextBudget,
		"phase":          sess.CurrentPhase,
	})
}

// Start implements session_start (§4.C).
func (m *Manager) Start(project string, kind domain.SessionKind, scope domain.Scope, budgetOverride *int) (*domain.Session, error) {
	if scope.Lines < 0 || scope.Tests < 0 || scope.Docs < 0 {
		return nil, domain.Invalid("scope fields must not be negative", "scope")
	}
	if !kind.Valid() {
		return nil, domain.Invalid("unknown session kind", "kind")
	}

	budget := computeBudget(scope)
	if budgetOverride != nil {
		budget = *budgetOverride
	}

	sess := &domain.Session{
		ProjectName:     project,
		Kind:            kind,
		CurrentPhase:    domain.PhasePlanning,
		Status:          domain.StatusActive,
		Scope:           scope,
		ContextBudget:   budget,
		PhaseAllocation: computeAllocation(budget),
	}

	if err := m.store.CreateSession(sess); err != nil {
		return nil, domain.StorageError(err)
	}

	m.publishSessionState(sess)
	return sess, nil
}

// Checkpoint implements session_checkpoint (§4.C).
func (m *Manager) Checkpoint(sessionID string, completedComponents []string, metrics CheckpointMetrics, commitMessage string, force bool) (*CheckpointResult, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	if sess.Status != domain.StatusActive {
		return nil, domain.InvalidState(fmt.Sprintf("session %s is not active", sessionID))
	}

	phase := phaseForPercent(metrics.ContextUsedPercent)
	targetTokens := tokensAtPercent(sess.ContextBudget, metrics.ContextUsedPercent)

	number, err := m.store.NextCheckpointNumber(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	var commitHash string
	if commitMessage != "" {
		if m.vcs == nil {
			if !force {
				return nil, domain.Wrap(domain.ErrExternalTool, "no VCS configured", nil)
			}
		} else {
			hash, err := m.vcs.Commit(commitMessage)
			if err != nil {
				if !force {
					return nil, domain.Wrap(domain.ErrExternalTool, "commit failed", err)
				}
			} else {
				commitHash = hash
			}
		}
	}

	sessionMetrics := sess.Metrics
	sessionMetrics.LinesWritten = metrics.Lines
	sessionMetrics.TestsPassing = metrics.TestsPassing

	plan := fmt.Sprintf("Resume in %s phase; %d component(s) completed through checkpoint %d.", phase, len(completedComponents), number)

	cp := &domain.Checkpoint{
		SessionID:           sessionID,
		Number:              number,
		Timestamp:           time.Now(),
		ContextUsed:         targetTokens,
		CommitHash:          commitHash,
		CompletedComponents: completedComponents,
		Metrics:             sessionMetrics,
		ContinuationPlan:    plan,
	}

	if err := m.store.RecordCheckpoint(cp, sessionID, phase, "checkpoint"); err != nil {
		return nil, domain.StorageError(err)
	}

	updated, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	m.publishSessionState(updated)

	return &CheckpointResult{
		CheckpointID:     cp.ID,
		CommitHash:       commitHash,
		Checkpoint:       cp,
		ContinuationPlan: plan,
	}, nil
}

// Handoff implements session_handoff (§4.C).
func (m *Manager) Handoff(sessionID string, nextGoals []string, includeContextDump bool) (*HandoffResult, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	if sess.Status != domain.StatusActive {
		return nil, domain.InvalidState(fmt.Sprintf("session %s is not active", sessionID))
	}

	percent := sess.UsagePercent()
	if _, err := m.Checkpoint(sessionID, nil, CheckpointMetrics{
		Lines:              sess.Metrics.LinesWritten,
		TestsPassing:       sess.Metrics.TestsPassing,
		ContextUsedPercent: percent,
	}, "", true); err != nil {
		return nil, err
	}

	var doc *domain.DocumentMetadata
	if m.docs != nil {
		doc, err = m.docs.GenerateHandoff(sess, nextGoals, includeContextDump)
		if err != nil {
			return nil, err
		}
	}

	if err := m.store.SetSessionStatus(sessionID, domain.StatusHandoff); err != nil {
		return nil, domain.StorageError(err)
	}

	remaining := sess.ContextBudget - sess.ContextUsed
	estimate := time.Duration(0)
	if sess.Metrics.VelocityScore > 0 {
		estimate = time.Duration(float64(remaining)/sess.Metrics.VelocityScore) * time.Hour
	}

	requirements := []string{}
	if len(nextGoals) > 0 {
		requirements = nextGoals
	}

	checks := []string{"working tree clean", "prior checkpoint committed"}

	m.obs.Publish(observable.TopicSessionStatus, nil)

	return &HandoffResult{
		HandoffDocument:     doc,
		ContextRequirements: requirements,
		PrerequisiteChecks:  checks,
		NextSessionEstimate: estimate,
	}, nil
}

// Complete implements session_complete (§4.C).
func (m *Manager) Complete(sessionID string) (*domain.Session, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	if sess.Frozen() {
		return nil, domain.InvalidState(fmt.Sprintf("session %s is already %s", sessionID, sess.Status))
	}

	if err := m.store.CompleteSession(sessionID, sess.Metrics, time.Now()); err != nil {
		return nil, domain.StorageError(err)
	}

	completed, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	m.publishSessionState(completed)
	return completed, nil
}

// Status implements session_status: a read-through over the store.
func (m *Manager) Status(sessionID string) (*domain.Session, error) {
	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}
	return sess, nil
}

// History implements session_history.
func (m *Manager) History(project string, limit int) ([]*domain.Session, error) {
	sessions, err := m.store.ListSessions(project, limit)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return sessions, nil
}
