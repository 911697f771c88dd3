package store

import (
	"database/sql"
	"fmt"

	"github.com/DEVCOACH/internal/domain"
	"github.com/google/uuid"
)

// LookupSymbol returns the canonical symbol for (project, concept,
// context_type), or nil if none is registered yet.
func (s *Store) LookupSymbol(project, concept string, ctxType domain.SymbolType) (*domain.Symbol, error) {
	var sym domain.Symbol
	var sessionID sql.NullString
	err := s.db.QueryRow(`
		SELECT id, project_name, concept, chosen_name, context_type, confidence,
		       usage_count, created_by_agent, session_id
		FROM symbols WHERE project_name = ? AND concept = ? AND context_type = ?`,
		project, concept, string(ctxType),
	).Scan(&sym.ID, &sym.ProjectName, &sym.Concept, &sym.ChosenName, &sym.ContextType,
		&sym.Confidence, &sym.UsageCount, &sym.CreatedByAgent, &sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up symbol %s/%s: %w", project, concept, err)
	}
	sym.SessionID = sessionID.String
	return &sym, nil
}

// RegisterSymbol inserts a new canonical symbol. When one already exists
// for (project, concept, context_type) the insert fails with the unique
// index violation, wrapped in a plain error; the symbol_register tool
// calls LookupSymbol first and reports that case as domain.ErrConflict.
func (s *Store) RegisterSymbol(sym *domain.Symbol) error {
	sym.ID = uuid.New().String()
	if sym.UsageCount == 0 {
		sym.UsageCount = 1
	}
	return s.withTx(func(tx *sql.Tx) error {
		if err := ensureProject(tx, sym.ProjectName); err != nil {
			return err
		}
		_, err := tx.Exec(`
		INSERT INTO symbols (id, project_name, concept, chosen_name, context_type,
			confidence, usage_count, created_by_agent, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sym.ID, sym.ProjectName, sym.Concept, sym.ChosenName, string(sym.ContextType),
			sym.Confidence, sym.UsageCount, sym.CreatedByAgent, nullString(sym.SessionID),
		)
		if err != nil {
			return fmt.Errorf("failed to register symbol %s/%s: %w", sym.ProjectName, sym.Concept, err)
		}
		return nil
	})
}

// IncrementSymbolUsage bumps a symbol's usage_count by one, used on every
// successful symbol_lookup (invariant #10, §8).
func (s *Store) IncrementSymbolUsage(id string) error {
	_, err := s.db.Exec("UPDATE symbols SET usage_count = usage_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to bump usage for symbol %s: %w", id, err)
	}
	return nil
}

// ListSymbols returns every symbol registered for a project.
func (s *Store) ListSymbols(project string) ([]*domain.Symbol, error) {
	rows, err := s.db.Query(`
		SELECT id, project_name, concept, chosen_name, context_type, confidence,
		       usage_count, created_by_agent, session_id
		FROM symbols WHERE project_name = ? ORDER BY concept`, project)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols for %s: %w", project, err)
	}
	defer rows.Close()

	var out []*domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		var sessionID sql.NullString
		if err := rows.Scan(&sym.ID, &sym.ProjectName, &sym.Concept, &sym.ChosenName, &sym.ContextType,
			&sym.Confidence, &sym.UsageCount, &sym.CreatedByAgent, &sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		sym.SessionID = sessionID.String
		out = append(out, &sym)
	}
	return out, rows.Err()
}
