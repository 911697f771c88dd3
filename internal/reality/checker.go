package reality

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/store"
)

// Checker implements §4.E's operations.
type Checker struct {
	store      *store.Store
	obs        *observable.Registry
	vcs        VCS
	tests      TestRunner
	workDir    string
	readmePath string
}

// New builds a Checker rooted at workDir. vcs and tests may be nil; their
// checks are then skipped rather than failing the whole run.
func New(st *store.Store, obs *observable.Registry, vcs VCS, tests TestRunner, workDir string) *Checker {
	return &Checker{
		store:      st,
		obs:        obs,
		vcs:        vcs,
		tests:      tests,
		workDir:    workDir,
		readmePath: filepath.Join(workDir, "README.md"),
	}
}

// PerformCheck implements perform_check (§4.E).
func (c *Checker) PerformCheck(sessionID string, kind CheckKind, focusAreas []string) (*domain.RealitySnapshot, []string, error) {
	sess, err := c.store.GetSession(sessionID)
	if err != nil {
		return nil, nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, nil, domain.SessionNotFound(sessionID)
	}

	areas := focusAreas
	if len(areas) == 0 {
		areas = defaultAreasForKind(kind)
	}

	var discrepancies []domain.Discrepancy

	if includes(areas, "filesystem") {
		fsDiscs, err := c.checkFilesystem(sessionID)
		if err != nil {
			return nil, nil, err
		}
		discrepancies = append(discrepancies, fsDiscs...)
	}

	if includes(areas, "tests") && c.tests != nil {
		testDiscs, err := c.checkTests(sess)
		if err != nil {
			return nil, nil, err
		}
		discrepancies = append(discrepancies, testDiscs...)
	}

	if includes(areas, "documentation") {
		discrepancies = append(discrepancies, c.checkDocumentation(sess)...)
	}

	confidence := scoreConfidence(discrepancies)

	snapshot := &domain.RealitySnapshot{
		SessionID:       sessionID,
		Discrepancies:   discrepancies,
		ConfidenceScore: confidence,
	}
	if err := c.store.SaveRealitySnapshot(snapshot); err != nil {
		return nil, nil, domain.StorageError(err)
	}

	c.obs.Publish(observable.TopicRealityChecks, snapshot)

	return snapshot, recommendations(discrepancies), nil
}

// defaultAreasForKind picks which checks run when the caller doesn't name
// explicit focus_areas: "quick" only checks the filesystem (S3), while
// "comprehensive" runs every check. "specific" without focus_areas runs
// nothing — the caller is expected to have named areas.
func defaultAreasForKind(kind CheckKind) []string {
	switch kind {
	case CheckQuick:
		return []string{"filesystem"}
	case CheckComprehensive:
		return []string{"filesystem", "tests", "documentation"}
	default:
		return nil
	}
}

func includes(focusAreas []string, area string) bool {
	for _, a := range focusAreas {
		if a == area {
			return true
		}
	}
	return false
}

func (c *Checker) checkFilesystem(sessionID string) ([]domain.Discrepancy, error) {
	claimed, err := c.store.ClaimedComponents(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}

	var out []domain.Discrepancy
	for _, path := range claimed {
		if !looksLikePath(path) {
			continue
		}
		full := filepath.Join(c.workDir, path)
		if _, err := os.Stat(full); os.IsNotExist(err) {
			out = append(out, domain.Discrepancy{
				Kind:        domain.DiscFileMismatch,
				Severity:    domain.SeverityCritical,
				Description: fmt.Sprintf("claimed component %s does not exist", path),
				Location:    path,
				AutoFixable: false,
				UIPriority:  100,
			})
		}
	}

	if c.vcs != nil {
		count, err := c.vcs.UncommittedFileCount()
		if err == nil && count > 5 {
			out = append(out, domain.Discrepancy{
				Kind:        domain.DiscStateDrift,
				Severity:    domain.SeverityWarning,
				Description: fmt.Sprintf("%d uncommitted files in working tree", count),
				AutoFixable: false,
				UIPriority:  50,
			})
		}
	}

	return out, nil
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, ".")
}

func (c *Checker) checkTests(sess *domain.Session) ([]domain.Discrepancy, error) {
	passing, failing, err := c.tests.Run()
	if err != nil {
		return nil, domain.Wrap(domain.ErrExternalTool, "test run failed", err)
	}

	var out []domain.Discrepancy
	if failing > 0 {
		out = append(out, domain.Discrepancy{
			Kind:        domain.DiscTestFailure,
			Severity:    domain.SeverityCritical,
			Description: fmt.Sprintf("%d failing tests", failing),
			AutoFixable: false,
			UIPriority:  90,
		})
	}

	claimed := sess.Metrics.TestsPassing
	if diff := abs(claimed - passing); diff > 5 {
		out = append(out, domain.Discrepancy{
			Kind:        domain.DiscTestFailure,
			Severity:    domain.SeverityWarning,
			Description: fmt.Sprintf("claimed %d passing tests, observed %d", claimed, passing),
			AutoFixable: false,
			UIPriority:  40,
		})
	}

	return out, nil
}

func (c *Checker) checkDocumentation(sess *domain.Session) []domain.Discrepancy {
	var out []domain.Discrepancy

	if _, err := os.Stat(c.readmePath); os.IsNotExist(err) {
		out = append(out, domain.Discrepancy{
			Kind:        domain.DiscDocGap,
			Severity:    domain.SeverityWarning,
			Description: "no README found",
			Location:    c.readmePath,
			AutoFixable: true,
			SuggestedFix: "generate a README stub",
			UIPriority:  30,
		})
	}

	claimed, err := c.store.ClaimedComponents(sess.ID)
	if err == nil && len(claimed) >= 3 && sess.Metrics.DocsUpdated == 0 {
		out = append(out, domain.Discrepancy{
			Kind:        domain.DiscDocGap,
			Severity:    domain.SeverityInfo,
			Description: fmt.Sprintf("%d components completed with no documentation update", len(claimed)),
			AutoFixable: false,
			UIPriority:  10,
		})
	}

	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// scoreConfidence implements §4.E's confidence formula: 100 − 20·critical
// − 10·warning − 5·info, clamped to [0,100].
func scoreConfidence(discrepancies []domain.Discrepancy) int {
	score := 100
	for _, d := range discrepancies {
		switch d.Severity {
		case domain.SeverityCritical:
			score -= 20
		case domain.SeverityWarning:
			score -= 10
		case domain.SeverityInfo:
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func recommendations(discrepancies []domain.Discrepancy) []string {
	var critical int
	for _, d := range discrepancies {
		if d.Severity == domain.SeverityCritical {
			critical++
		}
	}
	var out []string
	if critical > 0 {
		out = append(out, fmt.Sprintf("Address %d critical issues before continuing", critical))
	}
	return out
}
