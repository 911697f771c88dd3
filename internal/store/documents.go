package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DEVCOACH/internal/domain"
)

// SaveDocument upserts a document's metadata row (§3 Document metadata).
func (s *Store) SaveDocument(doc *domain.DocumentMetadata) error {
	sectionsJSON, _ := json.Marshal(doc.Sections)
	referencesJSON, _ := json.Marshal(doc.References)
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO documents (path, session_id, kind, generated_at, word_count, sections, references_, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			word_count = excluded.word_count, sections = excluded.sections,
			references_ = excluded.references_, updated_at = excluded.updated_at`,
		doc.Path, doc.SessionID, doc.Kind, doc.GeneratedAt, doc.WordCount,
		string(sectionsJSON), string(referencesJSON), doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.Path, err)
	}
	return nil
}

// GetDocument loads a document's metadata by path.
func (s *Store) GetDocument(path string) (*domain.DocumentMetadata, error) {
	var d domain.DocumentMetadata
	var sectionsJSON, referencesJSON string
	err := s.db.QueryRow(`
		SELECT path, session_id, kind, generated_at, word_count, sections, references_, updated_at
		FROM documents WHERE path = ?`, path,
	).Scan(&d.Path, &d.SessionID, &d.Kind, &d.GeneratedAt, &d.WordCount, &sectionsJSON, &referencesJSON, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	json.Unmarshal([]byte(sectionsJSON), &d.Sections)
	json.Unmarshal([]byte(referencesJSON), &d.References)
	return &d, nil
}

// ListDocumentsForSession returns every document generated for a session.
func (s *Store) ListDocumentsForSession(sessionID string) ([]*domain.DocumentMetadata, error) {
	rows, err := s.db.Query(`
		SELECT path, session_id, kind, generated_at, word_count, sections, references_, updated_at
		FROM documents WHERE session_id = ? ORDER BY generated_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*domain.DocumentMetadata
	for rows.Next() {
		var d domain.DocumentMetadata
		var sectionsJSON, referencesJSON string
		if err := rows.Scan(&d.Path, &d.SessionID, &d.Kind, &d.GeneratedAt, &d.WordCount, &sectionsJSON, &referencesJSON, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		json.Unmarshal([]byte(sectionsJSON), &d.Sections)
		json.Unmarshal([]byte(referencesJSON), &d.References)
		out = append(out, &d)
	}
	return out, rows.Err()
}
