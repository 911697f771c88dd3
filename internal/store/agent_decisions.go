package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// RecordAgentDecision appends a decision row. Best-effort: the FK to
// sessions is relaxed (§4.A) so this never fails because a session was
// deleted or never existed; callers log-and-continue on error rather than
// abort orchestration.
func (s *Store) RecordAgentDecision(d *domain.AgentDecision) error {
	d.ID = uuid.New().String()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	var outcome sql.NullBool
	if d.Outcome != nil {
		outcome = sql.NullBool{Bool: *d.Outcome, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO agent_decisions (id, agent_name, action_type, input_context,
			decision_made, outcome, project_name, session_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AgentName, d.ActionType, d.InputContext, d.DecisionMade,
		outcome, d.ProjectName, nullString(d.SessionID), d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record agent decision for %s: %w", d.AgentName, err)
	}
	return nil
}

// QueryAgentDecisions is the weak long-term memory lookup backing
// agent_memory_query: decisions for an agent/action/project, newest first.
func (s *Store) QueryAgentDecisions(agentName, actionType, projectName string, limit int) ([]*domain.AgentDecision, error) {
	query := `
		SELECT id, agent_name, action_type, input_context, decision_made, outcome,
		       project_name, session_id, timestamp
		FROM agent_decisions WHERE 1=1`
	var args []interface{}
	if agentName != "" {
		query += " AND agent_name = ?"
		args = append(args, agentName)
	}
	if actionType != "" {
		query += " AND action_type = ?"
		args = append(args, actionType)
	}
	if projectName != "" {
		query += " AND project_name = ?"
		args = append(args, projectName)
	}
	query += " ORDER BY timestamp DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent decisions: %w", err)
	}
	defer rows.Close()

	var out []*domain.AgentDecision
	for rows.Next() {
		var d domain.AgentDecision
		var outcome sql.NullBool
		var sessionID sql.NullString
		if err := rows.Scan(&d.ID, &d.AgentName, &d.ActionType, &d.InputContext, &d.DecisionMade,
			&outcome, &d.ProjectName, &sessionID, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan agent decision: %w", err)
		}
		if outcome.Valid {
			v := outcome.Bool
			d.Outcome = &v
		}
		d.SessionID = sessionID.String
		out = append(out, &d)
	}
	return out, rows.Err()
}
