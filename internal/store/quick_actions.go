package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// SeedQuickAction inserts a quick action, or, when one with the same id
// already exists, overwrites its name, description, steps, ui_group and
// shortcut while keeping its usage_count and last_used (idempotent
// upsert by id). Used to load the YAML-configured catalog at boot
// (SPEC_FULL.md "Quick actions").
func (s *Store) SeedQuickAction(a *domain.QuickAction) error {
	stepsJSON, err := json.Marshal(a.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal quick action steps: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO quick_actions (id, name, description, steps, ui_group, shortcut, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			steps = excluded.steps, ui_group = excluded.ui_group, shortcut = excluded.shortcut`,
		a.ID, a.Name, a.Description, string(stepsJSON), a.UIGroup, a.Shortcut,
	)
	if err != nil {
		return fmt.Errorf("failed to seed quick action %s: %w", a.ID, err)
	}
	return nil
}

// GetQuickAction loads a quick action by id.
func (s *Store) GetQuickAction(id string) (*domain.QuickAction, error) {
	var a domain.QuickAction
	var stepsJSON string
	var lastUsed sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, name, description, steps, ui_group, shortcut, usage_count, last_used
		FROM quick_actions WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Description, &stepsJSON, &a.UIGroup, &a.Shortcut, &a.UsageCount, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quick action %s: %w", id, err)
	}
	json.Unmarshal([]byte(stepsJSON), &a.Steps)
	a.LastUsed = timePtr(lastUsed)
	return &a, nil
}

// ListQuickActions returns the full catalog.
func (s *Store) ListQuickActions() ([]*domain.QuickAction, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, steps, ui_group, shortcut, usage_count, last_used
		FROM quick_actions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quick actions: %w", err)
	}
	defer rows.Close()

	var out []*domain.QuickAction
	for rows.Next() {
		var a domain.QuickAction
		var stepsJSON string
		var lastUsed sql.NullTime
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &stepsJSON, &a.UIGroup, &a.Shortcut, &a.UsageCount, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan quick action: %w", err)
		}
		json.Unmarshal([]byte(stepsJSON), &a.Steps)
		a.LastUsed = timePtr(lastUsed)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// RecordQuickActionUsage bumps usage_count and last_used for an action.
func (s *Store) RecordQuickActionUsage(id string) error {
	_, err := s.db.Exec("UPDATE quick_actions SET usage_count = usage_count + 1, last_used = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to record usage for quick action %s: %w", id, err)
	}
	return nil
}
