// Package reality implements the reality checker (§4.E): cross-checking a
// session's claims against the filesystem, test results and
// documentation state, scoring confidence, and applying auto-fixable
// discrepancies.
package reality

// CheckKind enumerates the depth of a reality check.
type CheckKind string

const (
	CheckComprehensive CheckKind = "comprehensive"
	CheckQuick         CheckKind = "quick"
	CheckSpecific      CheckKind = "specific"
)

// CheckResult is what perform_check returns.
type CheckResult struct {
	SnapshotID      string   `json:"snapshot_id"`
	Discrepancies   []string `json:"-"` // discrepancy IDs, for callers that need them
	ConfidenceScore int      `json:"confidence_score"`
	Recommendations []string `json:"recommendations"`
}

// MetricStatus classifies how far a reported metric is from the actual.
type MetricStatus string

const (
	MetricAccurate      MetricStatus = "accurate"
	MetricMinorVariance MetricStatus = "minor_variance"
	MetricMajorVariance MetricStatus = "major_variance"
)

// MetricVariance is one entry of validate_metrics' output.
type MetricVariance struct {
	Name            string       `json:"name"`
	Reported        int          `json:"reported"`
	Actual          int          `json:"actual"`
	VariancePercent float64      `json:"variance_percent"`
	Status          MetricStatus `json:"status"`
}

// ReportedMetrics is validate_metrics' optional input; nil fields are
// skipped.
type ReportedMetrics struct {
	LinesWritten *int
	TestsWritten *int
	TestsPassing *int
	DocsUpdated  *int
}

// FixFailure is one entry of apply_fixes' failed[] list.
type FixFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ApplyFixesResult is what apply_fixes returns.
type ApplyFixesResult struct {
	Applied    []string     `json:"applied"`
	Failed     []FixFailure `json:"failed"`
	CommitHash string       `json:"commit_hash,omitempty"`
}

// VCS is the version-control capability the reality checker needs: how
// dirty the working tree is, and an optional commit for apply_fixes.
type VCS interface {
	UncommittedFileCount() (int, error)
	Commit(message string) (hash string, err error)
}

// TestRunner executes the project's configured test command and reports
// pass/fail counts.
type TestRunner interface {
	Run() (passing, failing int, err error)
}
