package reality

import (
	"github.com/DEVCOACH/internal/domain"
)

// ValidateMetrics implements validate_metrics (§4.E): compares reported
// counters against the session's actual recorded metrics, classifying
// each by variance percent (thresholds 5 and 20).
func (c *Checker) ValidateMetrics(sessionID string, reported ReportedMetrics) ([]MetricVariance, error) {
	sess, err := c.store.GetSession(sessionID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if sess == nil {
		return nil, domain.SessionNotFound(sessionID)
	}

	var out []MetricVariance
	if reported.LinesWritten != nil {
		out = append(out, variance("lines_written", *reported.LinesWritten, sess.Metrics.LinesWritten))
	}
	if reported.TestsWritten != nil {
		out = append(out, variance("tests_written", *reported.TestsWritten, sess.Metrics.TestsWritten))
	}
	if reported.TestsPassing != nil {
		out = append(out, variance("tests_passing", *reported.TestsPassing, sess.Metrics.TestsPassing))
	}
	if reported.DocsUpdated != nil {
		out = append(out, variance("docs_updated", *reported.DocsUpdated, sess.Metrics.DocsUpdated))
	}
	return out, nil
}

func variance(name string, reportedVal, actual int) MetricVariance {
	denom := actual
	if denom == 0 {
		denom = 1
	}
	pct := float64(abs(reportedVal-actual)) / float64(denom) * 100

	status := MetricAccurate
	switch {
	case pct > 20:
		status = MetricMajorVariance
	case pct > 5:
		status = MetricMinorVariance
	}

	return MetricVariance{
		Name:            name,
		Reported:        reportedVal,
		Actual:          actual,
		VariancePercent: pct,
		Status:          status,
	}
}
