package session

import (
	"math"

	"github.com/DEVCOACH/internal/domain"
)

// computeBudget derives a session's context budget from its scope (§4.C
// start): ceil(1.2 × (lines·10 + tests·15 + docs·12)).
func computeBudget(scope domain.Scope) int {
	raw := 1.2 * float64(scope.Lines*10+scope.Tests*15+scope.Docs*12)
	return int(math.Ceil(raw))
}

// computeAllocation splits a budget 10:50:25:15 across planning,
// implementation, testing, documentation.
func computeAllocation(budget int) domain.PhaseAllocation {
	return domain.PhaseAllocation{
		Planning:       budget * 10 / 100,
		Implementation: budget * 50 / 100,
		Testing:        budget * 25 / 100,
		Documentation:  budget * 15 / 100,
	}
}

// phaseForPercent maps a context_used_percent to the phase band it falls
// in (§4.C checkpoint): <10 planning, <60 implementation, <85 testing,
// else documentation.
func phaseForPercent(percent float64) domain.Phase {
	switch {
	case percent < 10:
		return domain.PhasePlanning
	case percent < 60:
		return domain.PhaseImplementation
	case percent < 85:
		return domain.PhaseTesting
	default:
		return domain.PhaseDocumentation
	}
}

// tokensAtPercent returns floor(budget * percent / 100), the absolute
// token count a context_used_percent corresponds to (S2).
func tokensAtPercent(budget int, percent float64) int {
	return int(math.Floor(float64(budget) * percent / 100))
}
