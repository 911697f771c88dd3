package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// CreateSession inserts a new session and its synthesized checkpoint 0 in
// a single transaction, ensuring the owning project row exists first
// (§4.C start).
func (s *Store) CreateSession(sess *domain.Session) error {
	sess.ID = uuid.New().String()
	sess.StartTime = time.Now()

	return s.withTx(func(tx *sql.Tx) error {
		if err := ensureProject(tx, sess.ProjectName); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO sessions (
				id, project_name, kind, start_time, current_phase, status,
				scope_lines, scope_tests, scope_docs, context_budget, context_used,
				alloc_planning, alloc_implementation, alloc_testing, alloc_documentation,
				lines_written, tests_written, tests_passing, docs_updated, velocity_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, 0, 0, 0, 0, 0)`,
			sess.ID, sess.ProjectName, string(sess.Kind), sess.StartTime, string(sess.CurrentPhase), string(sess.Status),
			sess.Scope.Lines, sess.Scope.Tests, sess.Scope.Docs, sess.ContextBudget,
			sess.PhaseAllocation.Planning, sess.PhaseAllocation.Implementation,
			sess.PhaseAllocation.Testing, sess.PhaseAllocation.Documentation,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		cp := &domain.Checkpoint{
			ID:                  uuid.New().String(),
			SessionID:           sess.ID,
			Number:              0,
			Timestamp:           sess.StartTime,
			ContextUsed:         0,
			CompletedComponents: []string{},
		}
		if err := insertCheckpoint(tx, cp); err != nil {
			return err
		}

		return nil
	})
}

// scanSession scans a single sessions row.
func scanSession(row interface{ Scan(...interface{}) error }) (*domain.Session, error) {
	var sess domain.Session
	var estCompletion, endTime sql.NullTime
	err := row.Scan(
		&sess.ID, &sess.ProjectName, &sess.Kind, &sess.StartTime, &estCompletion, &endTime,
		&sess.CurrentPhase, &sess.Status,
		&sess.Scope.Lines, &sess.Scope.Tests, &sess.Scope.Docs,
		&sess.ContextBudget, &sess.ContextUsed,
		&sess.PhaseAllocation.Planning, &sess.PhaseAllocation.Implementation,
		&sess.PhaseAllocation.Testing, &sess.PhaseAllocation.Documentation,
		&sess.Metrics.LinesWritten, &sess.Metrics.TestsWritten, &sess.Metrics.TestsPassing,
		&sess.Metrics.DocsUpdated, &sess.Metrics.VelocityScore,
	)
	if err != nil {
		return nil, err
	}
	sess.EstimatedCompleted = timePtr(estCompletion)
	sess.EndTime = timePtr(endTime)
	return &sess, nil
}

const sessionColumns = `
	id, project_name, kind, start_time, estimated_completion, end_time,
	current_phase, status, scope_lines, scope_tests, scope_docs,
	context_budget, context_used, alloc_planning, alloc_implementation,
	alloc_testing, alloc_documentation,
	lines_written, tests_written, tests_passing, docs_updated, velocity_score
	FROM sessions`

// GetSession returns a session by id, or nil if it does not exist.
func (s *Store) GetSession(id string) (*domain.Session, error) {
	row := s.db.QueryRow("SELECT "+sessionColumns+" WHERE id = ?", id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

// ActiveSession returns the canonical active session for a project: the
// store permits multiple rows with status=active, so the newest by
// start_time is treated as canonical (Open Question decision, SPEC_FULL.md).
func (s *Store) ActiveSession(projectName string) (*domain.Session, error) {
	row := s.db.QueryRow(
		"SELECT "+sessionColumns+" WHERE project_name = ? AND status = ? ORDER BY start_time DESC LIMIT 1",
		projectName, string(domain.StatusActive),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session for %s: %w", projectName, err)
	}
	return sess, nil
}

// ListSessions returns sessions, optionally filtered by project, newest
// first, optionally limited.
func (s *Store) ListSessions(projectName string, limit int) ([]*domain.Session, error) {
	query := "SELECT " + sessionColumns
	var args []interface{}
	if projectName != "" {
		query += " WHERE project_name = ?"
		args = append(args, projectName)
	}
	query += " ORDER BY start_time DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// UpdateSessionPhaseAndUsage overwrites a session's current phase and
// context_used counter; it appends no context sample.
func (s *Store) UpdateSessionPhaseAndUsage(id string, phase domain.Phase, contextUsed int) error {
	_, err := s.db.Exec(
		"UPDATE sessions SET current_phase = ?, context_used = ? WHERE id = ?",
		string(phase), contextUsed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %s usage: %w", id, err)
	}
	return nil
}

// SetSessionStatus transitions a session's status field alone.
func (s *Store) SetSessionStatus(id string, status domain.Status) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set status for session %s: %w", id, err)
	}
	return nil
}

// CompleteSession marks a session complete, freezes its metrics and bumps
// the owning project's aggregates (sessions_completed+1, total lines,
// running average velocity over non-zero velocities, completion_rate =
// actual_lines/estimated_lines), all within one transaction (§4.C
// complete).
func (s *Store) CompleteSession(id string, metrics domain.Metrics, endTime time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+sessionColumns+" WHERE id = ?", id)
		sess, err := scanSession(row)
		if err == sql.ErrNoRows {
			return domain.SessionNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to load session %s for completion: %w", id, err)
		}

		_, err = tx.Exec(`
			UPDATE sessions SET status = ?, end_time = ?,
				lines_written = ?, tests_written = ?, tests_passing = ?,
				docs_updated = ?, velocity_score = ?
			WHERE id = ?`,
			string(domain.StatusComplete), endTime,
			metrics.LinesWritten, metrics.TestsWritten, metrics.TestsPassing,
			metrics.DocsUpdated, metrics.VelocityScore, id,
		)
		if err != nil {
			return fmt.Errorf("failed to complete session %s: %w", id, err)
		}

		proj, err := getProjectTx(tx, sess.ProjectName)
		if err != nil {
			return err
		}
		if proj == nil {
			if err := ensureProject(tx, sess.ProjectName); err != nil {
				return err
			}
			proj = &domain.Project{Name: sess.ProjectName}
		}

		// Average velocity is kept over non-zero velocity samples only, so
		// a zero-velocity session (e.g. pure documentation work) never
		// drags the running average down.
		avgVelocity := proj.AverageVelocity
		sampleCount := proj.VelocitySampleCount
		if metrics.VelocityScore != 0 {
			avgVelocity = (proj.AverageVelocity*float64(sampleCount) + metrics.VelocityScore) / float64(sampleCount+1)
			sampleCount++
		}

		completionRate := 0.0
		if sess.Scope.Lines > 0 {
			completionRate = float64(metrics.LinesWritten) / float64(sess.Scope.Lines)
		}

		return updateProjectAggregatesTx(
			tx, sess.ProjectName,
			proj.SessionsCompleted+1,
			proj.TotalLinesWritten+metrics.LinesWritten,
			sampleCount,
			avgVelocity,
			completionRate,
			proj.CommonBlockerTags, proj.TechStack,
		)
	})
}

// SetSessionEstimatedCompletion records a session's estimated completion
// timestamp.
func (s *Store) SetSessionEstimatedCompletion(id string, when time.Time) error {
	_, err := s.db.Exec("UPDATE sessions SET estimated_completion = ? WHERE id = ?", when, id)
	if err != nil {
		return fmt.Errorf("failed to set estimated completion for %s: %w", id, err)
	}
	return nil
}
