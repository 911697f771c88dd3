package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// SaveRealitySnapshot writes an immutable snapshot and its discrepancies
// in one transaction (§3 RealitySnapshot, §4.A).
func (s *Store) SaveRealitySnapshot(snap *domain.RealitySnapshot) error {
	snap.ID = uuid.New().String()
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO reality_snapshots (id, session_id, timestamp, confidence_score)
			VALUES (?, ?, ?, ?)`,
			snap.ID, snap.SessionID, snap.Timestamp, snap.ConfidenceScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reality snapshot: %w", err)
		}

		for i := range snap.Discrepancies {
			d := &snap.Discrepancies[i]
			d.ID = uuid.New().String()
			_, err := tx.Exec(`
				INSERT INTO discrepancies (
					id, snapshot_id, kind, severity, description, location,
					suggested_fix, auto_fixable, ui_priority, fixed
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
				d.ID, snap.ID, string(d.Kind), string(d.Severity), d.Description, d.Location,
				d.SuggestedFix, d.AutoFixable, d.UIPriority,
			)
			if err != nil {
				return fmt.Errorf("failed to insert discrepancy: %w", err)
			}
		}
		return nil
	})
}

// GetRealitySnapshot loads a snapshot and its discrepancies by id.
func (s *Store) GetRealitySnapshot(id string) (*domain.RealitySnapshot, error) {
	var snap domain.RealitySnapshot
	err := s.db.QueryRow(
		"SELECT id, session_id, timestamp, confidence_score FROM reality_snapshots WHERE id = ?", id,
	).Scan(&snap.ID, &snap.SessionID, &snap.Timestamp, &snap.ConfidenceScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reality snapshot %s: %w", id, err)
	}

	rows, err := s.db.Query(`
		SELECT id, kind, severity, description, location, suggested_fix, auto_fixable, ui_priority, fixed
		FROM discrepancies WHERE snapshot_id = ? ORDER BY ui_priority DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list discrepancies for snapshot %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Discrepancy
		var fixed bool
		if err := rows.Scan(&d.ID, &d.Kind, &d.Severity, &d.Description, &d.Location,
			&d.SuggestedFix, &d.AutoFixable, &d.UIPriority, &fixed); err != nil {
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		if !fixed {
			snap.Discrepancies = append(snap.Discrepancies, d)
		}
	}
	return &snap, rows.Err()
}

// GetDiscrepancy returns a single discrepancy by id along with its
// snapshot id, regardless of fixed status.
func (s *Store) GetDiscrepancy(id string) (*domain.Discrepancy, string, error) {
	var d domain.Discrepancy
	var snapshotID string
	err := s.db.QueryRow(`
		SELECT id, snapshot_id, kind, severity, description, location, suggested_fix, auto_fixable, ui_priority
		FROM discrepancies WHERE id = ?`, id,
	).Scan(&d.ID, &snapshotID, &d.Kind, &d.Severity, &d.Description, &d.Location, &d.SuggestedFix, &d.AutoFixable, &d.UIPriority)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get discrepancy %s: %w", id, err)
	}
	return &d, snapshotID, nil
}

// MarkDiscrepancyFixed flags a discrepancy as resolved so it no longer
// appears in future snapshot reads.
func (s *Store) MarkDiscrepancyFixed(id string) error {
	_, err := s.db.Exec("UPDATE discrepancies SET fixed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark discrepancy %s fixed: %w", id, err)
	}
	return nil
}
