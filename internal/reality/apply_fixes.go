package reality

import (
	"fmt"
	"os"

	"github.com/DEVCOACH/internal/domain"
)

// ApplyFixes implements apply_fixes (§4.E): only auto_fixable
// discrepancies may be fixed; unknown ids and non-auto-fixable ids are
// recorded as per-item failures without aborting the batch.
func (c *Checker) ApplyFixes(snapshotID string, fixIDs []string, autoCommit bool) (*ApplyFixesResult, error) {
	result := &ApplyFixesResult{}

	for _, id := range fixIDs {
		disc, ownerSnapshot, err := c.store.GetDiscrepancy(id)
		if err != nil {
			return nil, domain.StorageError(err)
		}
		if disc == nil {
			result.Failed = append(result.Failed, FixFailure{ID: id, Error: "unknown discrepancy"})
			continue
		}
		if ownerSnapshot != snapshotID {
			result.Failed = append(result.Failed, FixFailure{ID: id, Error: "discrepancy does not belong to snapshot"})
			continue
		}
		if !disc.AutoFixable {
			result.Failed = append(result.Failed, FixFailure{ID: id, Error: "discrepancy is not auto-fixable"})
			continue
		}

		if err := c.applyFix(disc); err != nil {
			result.Failed = append(result.Failed, FixFailure{ID: id, Error: err.Error()})
			continue
		}

		if err := c.store.MarkDiscrepancyFixed(id); err != nil {
			return nil, domain.StorageError(err)
		}
		result.Applied = append(result.Applied, id)
	}

	if autoCommit && len(result.Applied) > 0 && c.vcs != nil {
		hash, err := c.vcs.Commit("apply reality check fixes")
		if err == nil {
			result.CommitHash = hash
		}
	}

	return result, nil
}

func (c *Checker) applyFix(disc *domain.Discrepancy) error {
	switch disc.Kind {
	case domain.DiscDocGap:
		if disc.Location == "" {
			return fmt.Errorf("no location recorded for documentation gap")
		}
		return os.WriteFile(disc.Location, []byte("# Project\n\nGenerated by reality_check auto-fix.\n"), 0o644)
	default:
		return fmt.Errorf("no auto-fix implemented for discrepancy kind %s", disc.Kind)
	}
}
