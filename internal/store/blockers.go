package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// CreateBlocker inserts a new blocker row.
func (s *Store) CreateBlocker(b *domain.Blocker) error {
	b.ID = uuid.New().String()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO blockers (id, session_id, project_tag, kind, description, impact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SessionID, b.ProjectTag, string(b.Kind), b.Description, b.Impact, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blocker: %w", err)
	}
	return nil
}

// ResolveBlocker records a resolution and computes time_to_resolve.
func (s *Store) ResolveBlocker(id, resolution string) (*domain.Blocker, error) {
	b, err := s.GetBlocker(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	now := time.Now()
	ttr := now.Sub(b.CreatedAt)
	_, err = s.db.Exec(`
		UPDATE blockers SET resolution = ?, resolved_at = ?, time_to_resolve_seconds = ?
		WHERE id = ?`,
		resolution, now, int64(ttr.Seconds()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blocker %s: %w", id, err)
	}
	b.Resolution = resolution
	b.ResolvedAt = &now
	b.TimeToResolve = &ttr
	return b, nil
}

func scanBlocker(row interface{ Scan(...interface{}) error }) (*domain.Blocker, error) {
	var b domain.Blocker
	var resolution sql.NullString
	var resolvedAt sql.NullTime
	var ttrSeconds sql.NullInt64
	err := row.Scan(&b.ID, &b.SessionID, &b.ProjectTag, &b.Kind, &b.Description, &b.Impact,
		&b.CreatedAt, &resolution, &resolvedAt, &ttrSeconds)
	if err != nil {
		return nil, err
	}
	b.Resolution = resolution.String
	b.ResolvedAt = timePtr(resolvedAt)
	if ttrSeconds.Valid {
		d := time.Duration(ttrSeconds.Int64) * time.Second
		b.TimeToResolve = &d
	}
	return &b, nil
}

const blockerColumns = `
	id, session_id, project_tag, kind, description, impact, created_at,
	resolution, resolved_at, time_to_resolve_seconds
	FROM blockers`

// GetBlocker returns a blocker by id.
func (s *Store) GetBlocker(id string) (*domain.Blocker, error) {
	row := s.db.QueryRow("SELECT "+blockerColumns+" WHERE id = ?", id)
	b, err := scanBlocker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blocker %s: %w", id, err)
	}
	return b, nil
}

// ListBlockersByProjectTag returns blockers for a project, optionally only
// the unresolved ones.
func (s *Store) ListBlockersByProjectTag(tag string, onlyOpen bool) ([]*domain.Blocker, error) {
	query := "SELECT " + blockerColumns + " WHERE project_tag = ?"
	if onlyOpen {
		query += " AND resolved_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list blockers for %s: %w", tag, err)
	}
	defer rows.Close()

	var out []*domain.Blocker
	for rows.Next() {
		b, err := scanBlocker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocker: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
