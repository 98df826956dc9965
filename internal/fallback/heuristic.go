// internal/fallback/heuristic.go
package fallback

import (
	"sort"

	"admission-checker/internal/common/config"
	"admission-checker/internal/models"
)

const otherTier = "other"

// Estimator buckets degrees into demand tiers and compares the psychometric
// total against the tier cutoff.
type Estimator struct {
	byDegree map[string]string
	cutoffs  map[string]int
}

func NewEstimator(tiers map[string]config.TierSpec) *Estimator {
	if len(tiers) == 0 {
		tiers = config.DefaultTiers()
	}
	e := &Estimator{byDegree: map[string]string{}, cutoffs: map[string]int{}}

	// sorted so a degree listed twice lands in the same tier on every start
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := tiers[name]
		e.cutoffs[name] = spec.Cutoff
		for _, d := range spec.Degrees {
			if _, seen := e.byDegree[d]; !seen {
				e.byDegree[d] = name
			}
		}
	}
	if _, ok := e.cutoffs[otherTier]; !ok {
		e.cutoffs[otherTier] = config.DefaultTiers()[otherTier].Cutoff
	}
	return e
}

// Tier returns the demand tier of degree.
func (e *Estimator) Tier(degree string) string {
	if t, ok := e.byDegree[degree]; ok {
		return t
	}
	return otherTier
}

// Estimate returns the synthetic verdict and the tier used. A zero total has no verdict.
func (e *Estimator) Estimate(degree string, total int) (models.Verdict, string) {
	tier := e.Tier(degree)
	if total <= 0 {
		return "", tier
	}
	if total >= e.cutoffs[tier] {
		return models.VerdictAccepted, tier
	}
	return models.VerdictRejected, tier
}

// Cutoff returns the cutoff of tier.
func (e *Estimator) Cutoff(tier string) int {
	return e.cutoffs[tier]
}
