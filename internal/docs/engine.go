package docs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

// Engine implements §4.F's operations.
type Engine struct {
	store   *store.Store
	obs     *observable.Registry
	rootDir string
}

// New builds an Engine that writes documents under rootDir.
func New(st *store.Store, obs *observable.Registry, rootDir string) *Engine {
	return &Engine{store: st, obs: obs, rootDir: rootDir}
}

func (e *Engine) defaultPath(kind Kind, project string) string {
	switch kind {
	case KindReadme:
		return filepath.Join(e.rootDir, "README.md")
	case KindAPI:
		return filepath.Join(e.rootDir, "docs", "API.md")
	case KindArchitecture:
		return filepath.Join(e.rootDir, "docs", "ARCHITECTURE.md")
	case KindHandoff:
		return filepath.Join(e.rootDir, "docs", fmt.Sprintf("HANDOFF-%s.md", project))
	default:
		return filepath.Join(e.rootDir, string(kind)+".md")
	}
}

// Generate implements generate (§4.F).
func (e *Engine) Generate(sessionID string, kind Kind, includeSections []string) (*domain.DocumentMetadata, error) {
	if !kind.valid() {
		return nil, domain.Invalid("unknown document kind", "kind")
	}
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}

	claimed, err := e.store.ClaimedComponents(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	data := templateData{
		Project:       sess.ProjectName,
		SessionID:     sess.ID,
		Phase:         string(sess.CurrentPhase),
		CompletedWork: claimed,
		GeneratedAt:   time.Now().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := templates[kind].Execute(&buf, data); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "template execution failed", err)
	}

	path := e.defaultPath(kind, sess.ProjectName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to create document directory", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to write document", err)
	}

	doc := &domain.DocumentMetadata{
		Path:        path,
		SessionID:   sessionID,
		Kind:        string(kind),
		GeneratedAt: time.Now(),
		WordCount:   wordCount(buf.String()),
		Sections:    includeSections,
	}
	if err := e.store.SaveDocument(doc); err != nil {
		return nil, domain.StorageError(err)
	}

	e.obs.Publish(observable.TopicDocumentationStatus, doc)
	return doc, nil
}

// Update implements update (§4.F): folds context into an existing document
// under one of three modes, rewriting it synchronously.
func (e *Engine) Update(path string, mode UpdateMode, context string) (*domain.DocumentMetadata, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to read document", err)
	}

	var content string
	switch mode {
	case ModeAppend:
		content = string(existing)
		if !strings.HasSuffix(content, "\n") && content != "" {
			content += "\n"
		}
		content += context + "\n"
	case ModeSync, ModeRestructure:
		content = context
	default:
		return nil, domain.Invalid("unknown update mode", "mode")
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to write document", err)
	}

	doc, err := e.store.GetDocument(path)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if doc == nil {
		doc = &domain.DocumentMetadata{Path: path, Kind: "unknown"}
	}
	doc.WordCount = wordCount(content)
	doc.UpdatedAt = time.Now()
	if err := e.store.SaveDocument(doc); err != nil {
		return nil, domain.StorageError(err)
	}

	e.obs.Publish(observable.TopicDocumentationStatus, doc)
	return doc, nil
}

// CheckStatus implements check_status (§4.F).
func (e *Engine) CheckStatus(paths []string) ([]StatusEntry, error) {
	out := make([]StatusEntry, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			out = append(out, StatusEntry{Path: p, Exists: false})
			continue
		}
		if err != nil {
			return nil, domain.Wrap(domain.ErrExternalTool, "failed to stat document", err)
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, domain.Wrap(domain.ErrExternalTool, "failed to read document", err)
		}
		out = append(out, StatusEntry{
			Path:      p,
			Exists:    true,
			WordCount: wordCount(string(content)),
			StaleDays: int(time.Since(info.ModTime()).Hours() / 24),
		})
	}
	return out, nil
}

// GenerateHandoff implements the session.DocEngine interface: a handoff
// document is just generate(kind=handoff) with the next goals and optional
// context dump folded into the template data.
func (e *Engine) GenerateHandoff(sess *domain.Session, nextGoals []string, includeContextDump bool) (*domain.DocumentMetadata, error) {
	data := templateData{
		Project:     sess.ProjectName,
		SessionID:   sess.ID,
		Phase:       string(sess.CurrentPhase),
		Goals:       nextGoals,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}
	if includeContextDump {
		data.ContextDumpText = fmt.Sprintf("%d/%d tokens used across phases: %+v", sess.ContextUsed, sess.ContextBudget, sess.PhaseAllocation)
	}

	var buf bytes.Buffer
	if err := templates[KindHandoff].Execute(&buf, data); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "template execution failed", err)
	}

	path := e.defaultPath(KindHandoff, sess.ProjectName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to create document directory", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "failed to write document", err)
	}

	doc := &domain.DocumentMetadata{
		Path:        path,
		SessionID:   sess.ID,
		Kind:        string(KindHandoff),
		GeneratedAt: time.Now(),
		WordCount:   wordCount(buf.String()),
	}
	if err := e.store.SaveDocument(doc); err != nil {
		return nil, domain.StorageError(err)
	}

	e.obs.Publish(observable.TopicDocumentationStatus, doc)
	return doc, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
