package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// ensureProject inserts a project row if one doesn't exist yet. Must be
// called within an existing transaction (the project row is created
// implicitly alongside the first session or symbol for its name, §3
// "Created implicitly on first session for that name").
func ensureProject(tx *sql.Tx, name string) error {
	_, err := tx.Exec(`
		INSERT INTO projects (name, created_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING`,
		name, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure project %s: %w", name, err)
	}
	return nil
}

const projectColumns = `
	name, sessions_completed, total_lines_written, average_velocity,
	velocity_sample_count, completion_rate, common_blocker_tags, tech_stack, created_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*domain.Project, error) {
	var p domain.Project
	var tagsJSON, stackJSON string
	err := row.Scan(&p.Name, &p.SessionsCompleted, &p.TotalLinesWritten, &p.AverageVelocity,
		&p.VelocitySampleCount, &p.CompletionRate, &tagsJSON, &stackJSON, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(tagsJSON), &p.CommonBlockerTags)
	json.Unmarshal([]byte(stackJSON), &p.TechStack)
	return &p, nil
}

// GetProject returns a project by name, or nil if it does not exist.
func (s *Store) GetProject(name string) (*domain.Project, error) {
	row := s.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE name = ?", name)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", name, err)
	}
	return p, nil
}

// getProjectTx is GetProject scoped to a caller's transaction, used by
// CompleteSession to read-then-update aggregates atomically.
func getProjectTx(tx *sql.Tx, name string) (*domain.Project, error) {
	row := tx.QueryRow("SELECT "+projectColumns+" FROM projects WHERE name = ?", name)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", name, err)
	}
	return p, nil
}

// ListProjects returns every known project.
func (s *Store) ListProjects() ([]*domain.Project, error) {
	rows, err := s.db.Query("SELECT " + projectColumns + " FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// updateProjectAggregatesTx persists recomputed aggregate fields for a
// project inside the caller's transaction.
func updateProjectAggregatesTx(tx *sql.Tx, name string, sessionsCompleted, totalLines, velocitySampleCount int, avgVelocity, completionRate float64, tags, stack []string) error {
	tagsJSON, _ := json.Marshal(tags)
	stackJSON, _ := json.Marshal(stack)
	_, err := tx.Exec(`
		UPDATE projects SET sessions_completed = ?, total_lines_written = ?,
			average_velocity = ?, velocity_sample_count = ?, completion_rate = ?,
			common_blocker_tags = ?, tech_stack = ?
		WHERE name = ?`,
		sessionsCompleted, totalLines, avgVelocity, velocitySampleCount, completionRate,
		string(tagsJSON), string(stackJSON), name,
	)
	if err != nil {
		return fmt.Errorf("failed to update project aggregates for %s: %w", name, err)
	}
	return nil
}

// UpdateProjectAggregates is updateProjectAggregatesTx outside of any
// caller transaction, used by the velocity/blocker tracker (§4.G) when no
// wider operation needs to see the update atomically with anything else.
func (s *Store) UpdateProjectAggregates(name string, sessionsCompleted, totalLines, velocitySampleCount int, avgVelocity, completionRate float64, tags, stack []string) error {
	return s.withTx(func(tx *sql.Tx) error {
		return updateProjectAggregatesTx(tx, name, sessionsCompleted, totalLines, velocitySampleCount, avgVelocity, completionRate, tags, stack)
	})
}
