package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

func insertCheckpoint(tx *sql.Tx, cp *domain.Checkpoint) error {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	componentsJSON, err := json.Marshal(cp.CompletedComponents)
	if err != nil {
		return fmt.Errorf("failed to marshal completed components: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO checkpoints (
			id, session_id, number, timestamp, context_used, commit_hash,
			completed_components, lines_written, tests_written, tests_passing,
			docs_updated, velocity_score, continuation_plan
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.SessionID, cp.Number, cp.Timestamp, cp.ContextUsed, nullString(cp.CommitHash),
		string(componentsJSON), cp.Metrics.LinesWritten, cp.Metrics.TestsWritten, cp.Metrics.TestsPassing,
		cp.Metrics.DocsUpdated, cp.Metrics.VelocityScore, cp.ContinuationPlan,
	)
	if err != nil {
		return fmt.Errorf("failed to insert checkpoint %d for session %s: %w", cp.Number, cp.SessionID, err)
	}
	return nil
}

// RecordCheckpoint atomically writes a checkpoint row targeting
// cp.ContextUsed absolute tokens, a context sample covering the delta
// between that target and the session's current sum of samples (tagged
// with phase), and the session's updated phase/usage counters — the
// single transaction §4.C's checkpoint() operation requires, and the
// mechanism that keeps invariant #1 (context_used = Σ sample tokens)
// true at every observable point (§8).
func (s *Store) RecordCheckpoint(cp *domain.Checkpoint, sessionID string, phase domain.Phase, operation string) error {
	return s.withTx(func(tx *sql.Tx) error {
		priorSum, err := sumContextSamplesTx(tx, sessionID)
		if err != nil {
			return err
		}

		if err := insertCheckpoint(tx, cp); err != nil {
			return err
		}

		sample := &domain.ContextSample{
			SessionID: sessionID,
			Phase:     phase,
			Tokens:    cp.ContextUsed - priorSum,
			Operation: operation,
		}
		if err := appendContextSampleTx(tx, sample); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE sessions SET current_phase = ?, context_used = ?,
				lines_written = ?, tests_written = ?, tests_passing = ?,
				docs_updated = ?, velocity_score = ?
			WHERE id = ?`,
			string(phase), cp.ContextUsed,
			cp.Metrics.LinesWritten, cp.Metrics.TestsWritten, cp.Metrics.TestsPassing,
			cp.Metrics.DocsUpdated, cp.Metrics.VelocityScore, sessionID,
		)
		if err != nil {
			return fmt.Errorf("failed to update session %s after checkpoint: %w", sessionID, err)
		}
		return nil
	})
}

// NextCheckpointNumber returns the next contiguous checkpoint number for a
// session (checkpoint invariant #2, §8).
func (s *Store) NextCheckpointNumber(sessionID string) (int, error) {
	var max int
	err := s.db.QueryRow("SELECT COALESCE(MAX(number), -1) FROM checkpoints WHERE session_id = ?", sessionID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next checkpoint number: %w", err)
	}
	return max + 1, nil
}

func scanCheckpoint(row interface{ Scan(...interface{}) error }) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	var commitHash sql.NullString
	var componentsJSON string
	err := row.Scan(
		&cp.ID, &cp.SessionID, &cp.Number, &cp.Timestamp, &cp.ContextUsed, &commitHash,
		&componentsJSON, &cp.Metrics.LinesWritten, &cp.Metrics.TestsWritten, &cp.Metrics.TestsPassing,
		&cp.Metrics.DocsUpdated, &cp.Metrics.VelocityScore, &cp.ContinuationPlan,
	)
	if err != nil {
		return nil, err
	}
	cp.CommitHash = commitHash.String
	json.Unmarshal([]byte(componentsJSON), &cp.CompletedComponents)
	return &cp, nil
}

const checkpointColumns = `
	id, session_id, number, timestamp, context_used, commit_hash,
	completed_components, lines_written, tests_written, tests_passing,
	docs_updated, velocity_score, continuation_plan
	FROM checkpoints`

// LatestCheckpoint returns the highest-numbered checkpoint for a session.
func (s *Store) LatestCheckpoint(sessionID string) (*domain.Checkpoint, error) {
	row := s.db.QueryRow("SELECT "+checkpointColumns+" WHERE session_id = ? ORDER BY number DESC LIMIT 1", sessionID)
	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest checkpoint for %s: %w", sessionID, err)
	}
	return cp, nil
}

// ListCheckpoints returns every checkpoint for a session, in order.
func (s *Store) ListCheckpoints(sessionID string) ([]*domain.Checkpoint, error) {
	rows, err := s.db.Query("SELECT "+checkpointColumns+" WHERE session_id = ? ORDER BY number ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*domain.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// ClaimedComponents returns every completed_components entry (across
// every checkpoint of a session), for the reality checker's
// file-mismatch scan. Entries are not filtered here; the reality checker
// picks out the ones that look like filesystem paths.
func (s *Store) ClaimedComponents(sessionID string) ([]string, error) {
	checkpoints, err := s.ListCheckpoints(sessionID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, cp := range checkpoints {
		for _, c := range cp.CompletedComponents {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}
