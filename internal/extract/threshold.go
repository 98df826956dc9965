// internal/extract/threshold.go
package extract

import (
	"strings"

	"admission-checker/internal/models"
)

// CompareThreshold accepts iff score >= required.
func CompareThreshold(score, required float64) models.Verdict {
	if score >= required {
		return models.VerdictAccepted
	}
	return models.VerdictRejected
}

// Band is the outcome of a two-threshold comparison.
type Band int

const (
	BandRejected Band = iota
	BandWaitlist
	BandAccepted
)

// CompareBands places score against an acceptance and a rejection threshold.
// Scores between the two are waitlisted.
func CompareBands(score, acceptance, rejection float64) Band {
	switch {
	case score >= acceptance:
		return BandAccepted
	case score >= rejection:
		return BandWaitlist
	default:
		return BandRejected
	}
}

// Cutoff is one row of a published per-degree cutoff table.
type Cutoff struct {
	Degree   string
	Required float64
}

// FindCutoff returns the first row whose degree cell contains degree.
func FindCutoff(table []Cutoff, degree string) (Cutoff, bool) {
	degree = strings.TrimSpace(degree)
	if degree == "" {
		return Cutoff{}, false
	}
	for _, row := range table {
		if strings.Contains(row.Degree, degree) {
			return row, true
		}
	}
	return Cutoff{}, false
}

// Thresholds compares one composite score against the table for every
// requested degree. Degrees absent from the table are omitted from the map.
func Thresholds(score float64, table []Cutoff, degrees []string, siteName func(string) string) map[string]models.Verdict {
	out := make(map[string]models.Verdict, len(degrees))
	for _, d := range degrees {
		name := d
		if siteName != nil {
			name = siteName(d)
		}
		if row, ok := FindCutoff(table, name); ok {
			out[d] = CompareThreshold(score, row.Required)
		}
	}
	return out
}
