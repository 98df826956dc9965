// internal/fallback/fallback.go
package fallback

import (
	"context"
	"fmt"
	"strings"

	"admission-checker/internal/common/logger"
	"admission-checker/internal/models"
)

// Source says where a verdict came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceCache     Source = "cache"
	SourceHeuristic Source = "heuristic"
)

// Outcome is a degraded-mode verdict.
type Outcome struct {
	Verdict models.Verdict
	Raw     string
	Source  Source
	Message string
}

// Resolver produces a degraded-mode verdict after a live run failed:
// cache first, then the heuristic estimator.
type Resolver struct {
	cache     Cache
	estimator *Estimator
	log       logger.Logger
}

// NewResolver accepts a nil cache; the estimator alone is then used.
func NewResolver(cache Cache, estimator *Estimator, log logger.Logger) *Resolver {
	return &Resolver{cache: cache, estimator: estimator, log: log}
}

// Recover returns the degraded-mode outcome for degree.
func (r *Resolver) Recover(ctx context.Context, university models.UniversityID, degree string, total int) Outcome {
	if r.cache != nil {
		raw, ok, err := r.cache.Get(ctx, string(university), degree)
		switch {
		case err != nil:
			r.log.Warn("verdict cache unavailable", map[string]interface{}{"error": err.Error()})
		case ok:
			return Outcome{
				Verdict: VerdictFromRaw(raw),
				Raw:     raw,
				Source:  SourceCache,
				Message: fmt.Sprintf("התוצאה נלקחה מבדיקה קודמת שנשמרה במטמון ולא מחישוב חי: %s", raw),
			}
		}
	}

	if r.estimator == nil {
		return Outcome{Source: SourceHeuristic, Message: "לא ניתן היה להשלים את הבדיקה באתר האוניברסיטה"}
	}
	verdict, tier := r.estimator.Estimate(degree, total)
	if verdict == "" {
		return Outcome{
			Source:  SourceHeuristic,
			Message: "לא ניתן היה להשלים את הבדיקה באתר האוניברסיטה ולא סופק ציון פסיכומטרי להערכה",
		}
	}
	return Outcome{
		Verdict: verdict,
		Raw:     string(verdict),
		Source:  SourceHeuristic,
		Message: fmt.Sprintf("הערכה בלבד: הבדיקה באתר נכשלה, התוצאה מבוססת על ציון סף משוער של %d (ביקוש %s)",
			r.estimator.Cutoff(tier), tier),
	}
}

// Remember stores a live verdict for later degraded runs.
func (r *Resolver) Remember(ctx context.Context, university models.UniversityID, degree, raw string) error {
	if r.cache == nil || strings.TrimSpace(raw) == "" {
		return nil
	}
	return r.cache.Put(ctx, string(university), degree, raw)
}

// VerdictFromRaw maps a stored verdict string onto the response enum.
func VerdictFromRaw(raw string) models.Verdict {
	switch strings.TrimSpace(raw) {
	case "התקבלתי", string(models.VerdictAccepted):
		return models.VerdictAccepted
	case "לא התקבלתי", string(models.VerdictRejected):
		return models.VerdictRejected
	default:
		return ""
	}
}
