// internal/fallback/cache.go
package fallback

import (
	"context"
	"fmt"
	"strings"

	"admission-checker/internal/common/logger"
)

// Cache stores the last live verdict per university and degree.
type Cache interface {
	Get(ctx context.Context, university, degree string) (string, bool, error)
	Put(ctx context.Context, university, degree, verdict string) error
}

// Tiered reads tiers in order and writes to all of them.
type Tiered struct {
	tiers []Cache
	log   logger.Logger
}

// NewTiered skips nil tiers so callers can pass optional backends directly.
func NewTiered(log logger.Logger, tiers ...Cache) *Tiered {
	t := &Tiered{log: log}
	for _, c := range tiers {
		if c != nil {
			t.tiers = append(t.tiers, c)
		}
	}
	return t
}

// Get returns the first hit. A failing tier is logged and skipped.
func (t *Tiered) Get(ctx context.Context, university, degree string) (string, bool, error) {
	var failures []string
	for i, c := range t.tiers {
		v, ok, err := c.Get(ctx, university, degree)
		if err != nil {
			t.log.Warn("cache tier read failed", map[string]interface{}{
				"tier":             i,
				logger.FieldDegree: degree,
				"error":            err.Error(),
			})
			failures = append(failures, err.Error())
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	if len(failures) == len(t.tiers) && len(failures) > 0 {
		return "", false, fmt.Errorf("all cache tiers failed: %s", strings.Join(failures, "; "))
	}
	return "", false, nil
}

// Put writes verdict to every tier and reports the tiers that failed.
func (t *Tiered) Put(ctx context.Context, university, degree, verdict string) error {
	var failures []string
	for _, c := range t.tiers {
		if err := c.Put(ctx, university, degree, verdict); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("cache write failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
