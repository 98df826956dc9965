// internal/extract/list.go
package extract

import (
	"context"
	"time"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/retry"
)

// ListSource is a terminal page that shows the degrees an applicant qualifies for.
type ListSource interface {
	// AcceptedDegrees reads the full accepted-degrees list.
	AcceptedDegrees(ctx context.Context) ([]string, error)
	// SearchDegree looks up one degree on its own and returns the raw result text.
	SearchDegree(ctx context.Context, degree string) (string, error)
}

// ListExtractor reads verdicts from a ListSource, falling back to one search
// per degree when the full list cannot be read.
type ListExtractor struct {
	Qualifiers []string
	SiteName   func(string) string
	Search     retry.Policy
	Log        logger.Logger
}

// NewListExtractor returns an extractor with three attempts per searched degree.
func NewListExtractor(qualifiers []string, siteName func(string) string, log logger.Logger) *ListExtractor {
	return &ListExtractor{
		Qualifiers: qualifiers,
		SiteName:   siteName,
		Search:     retry.Policy{Attempts: 3, BaseDelay: time.Second, MaxDelay: 2 * time.Second},
		Log:        log,
	}
}

// Extract returns degree -> raw verdict for every requested degree.
func (x *ListExtractor) Extract(ctx context.Context, src ListSource, degrees []string) (map[string]string, error) {
	accepted, err := src.AcceptedDegrees(ctx)
	if err == nil {
		x.Log.Info("accepted list read", map[string]interface{}{"count": len(accepted)})
		return AcceptedList(accepted, degrees, x.SiteName, x.Qualifiers), nil
	}

	x.Log.Warn("accepted list unavailable, searching degrees individually", map[string]interface{}{
		"error": err.Error(),
	})
	return x.searchEach(ctx, src, degrees)
}

func (x *ListExtractor) searchEach(ctx context.Context, src ListSource, degrees []string) (map[string]string, error) {
	out := make(map[string]string, len(degrees))
	found := 0
	for _, d := range degrees {
		name := d
		if x.SiteName != nil {
			name = x.SiteName(d)
		}
		text, err := retry.Value(ctx, x.Search, func(ctx context.Context) (string, error) {
			return src.SearchDegree(ctx, name)
		})
		if err != nil {
			x.Log.Warn("degree search failed", map[string]interface{}{
				logger.FieldDegree: d,
				"error":            err.Error(),
			})
			out[d] = ErrorChecking
			continue
		}
		out[d] = text
		found++
	}
	if found == 0 && len(degrees) > 0 {
		return out, errors.NewExtractionError("degree search results", nil)
	}
	return out, nil
}
