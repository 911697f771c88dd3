package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// AppendContextSample appends a context sample. Append-only: rows are
// never mutated or deleted (§3 ContextSample).
func (s *Store) AppendContextSample(sample *domain.ContextSample) error {
	sample.ID = uuid.New().String()
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if sample.Kind == "" {
		sample.Kind = domain.ContextSampleKindUsage
	}
	_, err := s.db.Exec(`
		INSERT INTO context_samples (id, session_id, timestamp, phase, tokens, operation, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.ID, sample.SessionID, sample.Timestamp, string(sample.Phase), sample.Tokens, sample.Operation, string(sample.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to append context sample for session %s: %w", sample.SessionID, err)
	}
	return nil
}

// appendContextSampleTx is the transactional variant, used by checkpoint()
// and applyContextSample, which write a sample and the session row
// atomically.
func appendContextSampleTx(tx *sql.Tx, sample *domain.ContextSample) error {
	sample.ID = uuid.New().String()
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if sample.Kind == "" {
		sample.Kind = domain.ContextSampleKindUsage
	}
	_, err := tx.Exec(`
		INSERT INTO context_samples (id, session_id, timestamp, phase, tokens, operation, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.ID, sample.SessionID, sample.Timestamp, string(sample.Phase), sample.Tokens, sample.Operation, string(sample.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to append context sample for session %s: %w", sample.SessionID, err)
	}
	return nil
}

// ListContextSamples returns every sample for a session, oldest first.
func (s *Store) ListContextSamples(sessionID string) ([]*domain.ContextSample, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, timestamp, phase, tokens, operation, kind
		FROM context_samples WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list context samples for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*domain.ContextSample
	for rows.Next() {
		var cs domain.ContextSample
		var kind string
		if err := rows.Scan(&cs.ID, &cs.SessionID, &cs.Timestamp, &cs.Phase, &cs.Tokens, &cs.Operation, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan context sample: %w", err)
		}
		cs.Kind = domain.ContextSampleKind(kind)
		out = append(out, &cs)
	}
	return out, rows.Err()
}

// SumContextSamples returns the sum of tokens across all of a session's
// samples — invariant #1 (§8): context_used must equal this at all
// observable points.
func (s *Store) SumContextSamples(sessionID string) (int, error) {
	return sumContextSamplesTx(s.db, sessionID)
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func sumContextSamplesTx(q queryRower, sessionID string) (int, error) {
	var total sql.NullInt64
	err := q.QueryRow("SELECT SUM(tokens) FROM context_samples WHERE session_id = ?", sessionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum context samples for %s: %w", sessionID, err)
	}
	return int(total.Int64), nil
}

// ApplyContextDelta appends a usage ContextSample and updates the
// session's current_phase/context_used columns to match, atomically,
// returning the resulting total. Used by track_usage (§4.D), which only
// ever grows context_used; checkpoint writes its sample through
// RecordCheckpoint instead.
func (s *Store) ApplyContextDelta(sessionID string, phase domain.Phase, tokens int, operation string) (int, error) {
	if tokens < 0 {
		return 0, fmt.Errorf("usage context sample for session %s must not be negative: %d", sessionID, tokens)
	}
	return s.applyContextSample(sessionID, phase, tokens, operation, domain.ContextSampleKindUsage)
}

// ApplyContextReduction appends an optimization ContextSample recording
// context freed by optimize (§4.D) and shrinks the session's
// context_used to match. freed must be positive; it is stored as a
// negative delta so context_used stays equal to the sum of samples
// (invariant #1, §8) without optimize's negative delta being mistaken
// for a usage sample's (always-positive) one.
func (s *Store) ApplyContextReduction(sessionID string, phase domain.Phase, freed int, operation string) (int, error) {
	if freed < 0 {
		return 0, fmt.Errorf("optimization context sample for session %s must not be negative: %d", sessionID, freed)
	}
	return s.applyContextSample(sessionID, phase, -freed, operation, domain.ContextSampleKindOptimization)
}

func (s *Store) applyContextSample(sessionID string, phase domain.Phase, tokens int, operation string, kind domain.ContextSampleKind) (int, error) {
	var total int
	err := s.withTx(func(tx *sql.Tx) error {
		if err := appendContextSampleTx(tx, &domain.ContextSample{
			SessionID: sessionID, Phase: phase, Tokens: tokens, Operation: operation, Kind: kind,
		}); err != nil {
			return err
		}
		sum, err := sumContextSamplesTx(tx, sessionID)
		if err != nil {
			return err
		}
		total = sum
		_, err = tx.Exec("UPDATE sessions SET current_phase = ?, context_used = ? WHERE id = ?", string(phase), sum, sessionID)
		if err != nil {
			return fmt.Errorf("failed to update session %s after context delta: %w", sessionID, err)
		}
		return nil
	})
	return total, err
}
